package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
)

func regionAt(owner primitive.ObjectID) domain.Location {
	return domain.Location{
		ID:        primitive.NewObjectID(),
		CreatedBy: owner,
	}
}

func TestMatchCandidates_IntersectsAllRoutes(t *testing.T) {
	locations := new(MockLocationRepo)
	matcher := NewMatcher(locations)
	ctx := context.Background()

	owner := primitive.NewObjectID()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	carol := primitive.NewObjectID()

	req := &domain.Request{
		ID:        primitive.NewObjectID(),
		CreatedBy: owner,
		Places: []domain.Place{
			{Name: "bakery", Location: geo.NewPoint(-79.1, 43.9)},
			{Name: "pharmacy", Location: geo.NewPoint(-79.2, 43.8)},
		},
		RequestedTime: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC), // Monday
	}
	dest := geo.NewPoint(-79.15, 43.95)

	// the near hint carries the proximity ordering for the first route
	locations.On("FindIntersectingRoute", mock.Anything, mock.Anything,
		mock.MatchedBy(func(near *geo.Point) bool { return near != nil }), 1).
		Return([]domain.Location{
			regionAt(alice), regionAt(bob), regionAt(owner), regionAt(carol),
		}, nil).Once()
	locations.On("FindIntersectingRoute", mock.Anything, mock.Anything,
		mock.MatchedBy(func(near *geo.Point) bool { return near == nil }), 1).
		Return([]domain.Location{
			regionAt(carol), regionAt(alice),
		}, nil).Once()

	got, err := matcher.MatchCandidates(ctx, req, dest)
	assert.NoError(t, err)
	// bob misses the second route, the owner is never a candidate, and
	// the first route's ordering survives the intersection
	assert.Equal(t, []primitive.ObjectID{alice, carol}, got)
	locations.AssertExpectations(t)
}

func TestMatchCandidates_SingleRouteKeepsOrder(t *testing.T) {
	locations := new(MockLocationRepo)
	matcher := NewMatcher(locations)

	owner := primitive.NewObjectID()
	near := primitive.NewObjectID()
	far := primitive.NewObjectID()

	req := &domain.Request{
		ID:        primitive.NewObjectID(),
		CreatedBy: owner,
		Places: []domain.Place{
			{Name: "grocer", Location: geo.NewPoint(-79.1, 43.9)},
		},
		RequestedTime: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), // Sunday
	}

	locations.On("FindIntersectingRoute", mock.Anything, mock.Anything, mock.Anything, 7).
		Return([]domain.Location{regionAt(near), regionAt(far), regionAt(near)}, nil)

	got, err := matcher.MatchCandidates(context.Background(), req, geo.NewPoint(-79.2, 44.0))
	assert.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{near, far}, got)
}

func TestMatchCandidates_NoPlaces(t *testing.T) {
	matcher := NewMatcher(new(MockLocationRepo))
	got, err := matcher.MatchCandidates(context.Background(), &domain.Request{}, geo.NewPoint(0, 0))
	assert.NoError(t, err)
	assert.Nil(t, got)
}
