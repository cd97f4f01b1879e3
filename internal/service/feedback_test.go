package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
)

func foldFixture() (*MockUserRepo, *feedbackRecorder) {
	users := new(MockUserRepo)
	return users, newFeedbackRecorder(new(MockFeedbackRepo), users, silentSender())
}

func TestFoldRating_RetriesThenSucceeds(t *testing.T) {
	users, rec := foldFixture()
	subject := primitive.NewObjectID()

	users.On("GetByID", mock.Anything, subject).Return(&domain.User{ID: subject, Rating: 3, NumberOfRatings: 1}, nil)
	// first conditional write loses to a concurrent fold
	users.On("SetRating", mock.Anything, subject, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrNotFound).Once()
	users.On("SetRating", mock.Anything, subject, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	err := rec.foldRating(context.Background(), subject, 5)
	assert.NoError(t, err)
	users.AssertNumberOfCalls(t, "SetRating", 2)
}

func TestFoldRating_ExhaustedRetriesAreNotANotFound(t *testing.T) {
	users, rec := foldFixture()
	subject := primitive.NewObjectID()

	users.On("GetByID", mock.Anything, subject).Return(&domain.User{ID: subject, Rating: 3, NumberOfRatings: 1}, nil)
	users.On("SetRating", mock.Anything, subject, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrNotFound)

	err := rec.foldRating(context.Background(), subject, 5)
	assert.ErrorIs(t, err, domain.ErrRatingContention)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	users.AssertNumberOfCalls(t, "SetRating", 3)
}
