package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

// feedbackRecorder implements the write-once feedback rule shared by
// both rating directions: requester on deliverer via the request, and
// deliverer on requester via the invite.
type feedbackRecorder struct {
	feedback repository.FeedbackRepository
	users    repository.UserRepository
	sender   *notifier.EventSender
}

func newFeedbackRecorder(feedback repository.FeedbackRepository, users repository.UserRepository, sender *notifier.EventSender) *feedbackRecorder {
	return &feedbackRecorder{feedback: feedback, users: users, sender: sender}
}

type feedbackSubmission struct {
	requestID primitive.ObjectID
	inviteID  primitive.ObjectID
	subject   primitive.ObjectID // the user being rated
	rating    int
	comment   string
	existing  int // previously stored rating, 0 when none
}

// submit enforces the write-once rule, records the public feedback
// entry and folds the rating into the subject's average.
func (r *feedbackRecorder) submit(ctx context.Context, sub feedbackSubmission) error {
	if sub.existing != 0 {
		// rating already set: only a comment patch on a comment-less
		// feedback entry is allowed
		if sub.rating != sub.existing || sub.comment == "" {
			return domain.ErrImmutableFeedback
		}
		fb, err := r.feedback.GetByInviteFor(ctx, sub.inviteID, sub.subject)
		if err != nil {
			return err
		}
		if fb.Comment != "" {
			return domain.ErrImmutableFeedback
		}
		return r.feedback.UpdateComment(ctx, fb.ID, sub.comment)
	}

	fb := &domain.Feedback{
		RequestID:       sub.requestID,
		RequestInviteID: sub.inviteID,
		Rating:          sub.rating,
		Comment:         sub.comment,
		For:             sub.subject,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := r.feedback.Create(ctx, fb); err != nil {
		return err
	}

	if err := r.foldRating(ctx, sub.subject, sub.rating); err != nil {
		return err
	}

	r.sender.Dispatch(ctx, []domain.Event{
		domain.NewEvent(domain.EventFeedbackSubmitted, sub.subject, fb.ID),
	})
	return nil
}

// foldRating retries the optimistic rating update a few times before
// giving up, in case two feedback submissions land together.
func (r *feedbackRecorder) foldRating(ctx context.Context, userID primitive.ObjectID, rating int) error {
	for attempt := 0; attempt < 3; attempt++ {
		user, err := r.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		prev := user.NumberOfRatings
		user.AddRating(rating)
		err = r.users.SetRating(ctx, userID, user.Rating, user.NumberOfRatings, prev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	// losing the conditional write three times is contention, not a
	// missing user
	return domain.ErrRatingContention
}
