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
	"frrand-backend/internal/geocode"
)

type requestFixture struct {
	requests  *MockRequestRepo
	invites   *MockInviteRepo
	publics   *MockPublicInviteRepo
	users     *MockUserRepo
	addresses *MockAddressRepo
	locations *MockLocationRepo
	feedback  *MockFeedbackRepo
	svc       RequestService
}

func newRequestFixture() *requestFixture {
	f := &requestFixture{
		requests:  new(MockRequestRepo),
		invites:   new(MockInviteRepo),
		publics:   new(MockPublicInviteRepo),
		users:     new(MockUserRepo),
		addresses: new(MockAddressRepo),
		locations: new(MockLocationRepo),
		feedback:  new(MockFeedbackRepo),
	}
	sender := silentSender()
	dispatcher := NewDispatcher(f.requests, f.invites, f.publics, f.users, f.addresses,
		sender, matchingConfig())
	f.svc = NewRequestService(f.requests, f.invites, f.publics, f.users, f.addresses,
		f.locations, f.feedback, NewMatcher(f.locations), dispatcher,
		geocode.StaticGeocoder{}, sender)
	return f
}

func attachedRequest() (*domain.Request, *domain.Invite) {
	owner := primitive.NewObjectID()
	deliverer := primitive.NewObjectID()
	inv := &domain.Invite{
		ID:        primitive.NewObjectID(),
		From:      owner,
		CreatedBy: deliverer,
		Accepted:  true,
		Attached:  true,
	}
	req := &domain.Request{
		ID:               primitive.NewObjectID(),
		CreatedBy:        owner,
		Points:           2,
		InviteIDs:        []primitive.ObjectID{inv.ID},
		AttachedInviteID: &inv.ID,
	}
	inv.RequestID = req.ID
	return req, inv
}

func TestCreateRequest_EscrowsAndDispatches(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	destID := primitive.NewObjectID()
	cand := primitive.NewObjectID()

	req := &domain.Request{
		Destination: destID,
		Points:      2,
		Places: []domain.Place{
			{Name: "bakery", Location: geo.NewPoint(-79.1, 43.9)},
		},
		RequestedTime: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}

	f.addresses.On("GetByID", ctx, destID).
		Return(&domain.Address{ID: destID, CreatedBy: owner, Location: geo.NewPoint(-79.15, 43.95)}, nil)
	f.users.On("StashPoints", ctx, owner, 2).Return(nil)
	f.requests.On("Create", ctx, mock.AnythingOfType("*domain.Request")).
		Return(primitive.NewObjectID(), nil)
	f.locations.On("FindIntersectingRoute", mock.Anything, mock.Anything, mock.Anything, 1).
		Return([]domain.Location{{ID: primitive.NewObjectID(), CreatedBy: cand}}, nil)
	f.requests.On("PushCandidates", ctx, mock.Anything, []primitive.ObjectID{cand}).Return(nil)
	f.requests.On("PopCandidate", ctx, mock.Anything).Return(cand, nil).Once()
	f.requests.On("PopCandidate", ctx, mock.Anything).Return(primitive.NilObjectID, domain.ErrNotFound)
	f.users.On("GetByID", ctx, cand).Return(&domain.User{ID: cand, Active: true}, nil)
	f.invites.On("Create", ctx, mock.AnythingOfType("*domain.Invite")).
		Return(primitive.NewObjectID(), nil)
	f.requests.On("AddInvite", ctx, mock.Anything, mock.Anything).Return(nil)
	f.requests.On("GetByID", ctx, mock.Anything).Return(&domain.Request{CreatedBy: owner}, nil)

	created, err := f.svc.CreateRequest(ctx, owner, req)
	assert.NoError(t, err)
	assert.NotNil(t, created)
	f.users.AssertCalled(t, "StashPoints", ctx, owner, 2)
	f.invites.AssertExpectations(t)
}

func TestCreateRequest_Guards(t *testing.T) {
	t.Run("complete on create", func(t *testing.T) {
		f := newRequestFixture()
		_, err := f.svc.CreateRequest(context.Background(), primitive.NewObjectID(),
			&domain.Request{Complete: true})
		assert.ErrorIs(t, err, domain.ErrCompleteOnCreate)
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("foreign destination", func(t *testing.T) {
		f := newRequestFixture()
		ctx := context.Background()
		destID := primitive.NewObjectID()
		f.addresses.On("GetByID", ctx, destID).
			Return(&domain.Address{ID: destID, CreatedBy: primitive.NewObjectID()}, nil)

		_, err := f.svc.CreateRequest(ctx, primitive.NewObjectID(),
			&domain.Request{Destination: destID, Points: 1})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("insufficient points", func(t *testing.T) {
		f := newRequestFixture()
		ctx := context.Background()
		owner := primitive.NewObjectID()
		destID := primitive.NewObjectID()
		f.addresses.On("GetByID", ctx, destID).
			Return(&domain.Address{ID: destID, CreatedBy: owner}, nil)
		f.users.On("StashPoints", ctx, owner, 5).Return(domain.ErrInsufficientPoints)

		_, err := f.svc.CreateRequest(ctx, owner,
			&domain.Request{Destination: destID, Points: 5})
		assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("no location history", func(t *testing.T) {
		f := newRequestFixture()
		ctx := context.Background()
		owner := primitive.NewObjectID()
		f.locations.On("ListRecent", ctx, owner, 1).Return([]domain.Location{}, nil)

		_, err := f.svc.CreateRequest(ctx, owner, &domain.Request{Points: 1})
		assert.ErrorIs(t, err, domain.ErrNoLocationHistory)
	})
}

func TestCreateRequest_DefaultDestinationFromLocation(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	here := geo.NewPoint(-79.1235, 43.9877)

	f.locations.On("ListRecent", ctx, owner, 1).
		Return([]domain.Location{{ID: primitive.NewObjectID(), CreatedBy: owner, Location: here}}, nil)
	f.addresses.On("FindNearestPermanent", ctx, owner, here).Return(nil, domain.ErrNotFound)
	f.addresses.On("Create", ctx, mock.MatchedBy(func(a *domain.Address) bool {
		return a.Temporary && a.Location.Coordinates[0] == here.Coordinates[0]
	})).Return(primitive.NewObjectID(), nil)
	// stop the flow at the escrow, destination resolution already ran
	f.users.On("StashPoints", ctx, owner, 1).Return(domain.ErrInsufficientPoints)

	req := &domain.Request{Points: 1}
	_, err := f.svc.CreateRequest(ctx, owner, req)
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
	assert.False(t, req.Destination.IsZero())
	f.addresses.AssertExpectations(t)
}

func TestAttachInvite_RetractsCompetitors(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()

	owner := primitive.NewObjectID()
	winner := &domain.Invite{
		ID:        primitive.NewObjectID(),
		From:      owner,
		CreatedBy: primitive.NewObjectID(),
		Accepted:  true,
	}
	loser := domain.Invite{
		ID:        primitive.NewObjectID(),
		From:      owner,
		CreatedBy: primitive.NewObjectID(),
	}
	req := &domain.Request{
		ID:        primitive.NewObjectID(),
		CreatedBy: owner,
		InviteIDs: []primitive.ObjectID{winner.ID, loser.ID},
	}
	winner.RequestID = req.ID
	loser.RequestID = req.ID

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, winner.ID).Return(winner, nil)
	f.requests.On("Attach", ctx, req.ID, winner.ID).Return(nil)
	f.invites.On("SetAttached", ctx, winner.ID).Return(nil)
	f.invites.On("ListByRequest", ctx, req.ID).Return([]domain.Invite{*winner, loser}, nil)
	f.invites.On("Delete", ctx, loser.ID).Return(nil)
	f.publics.On("DeleteByRequest", ctx, req.ID).Return(nil)

	err := f.svc.AttachInvite(ctx, owner, req.ID, winner.ID)
	assert.NoError(t, err)
	f.invites.AssertCalled(t, "Delete", ctx, loser.ID)
	f.invites.AssertNotCalled(t, "Delete", ctx, winner.ID)
	f.publics.AssertExpectations(t)
}

func TestAttachInvite_LosesConditionalWrite(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()

	owner := primitive.NewObjectID()
	inv := &domain.Invite{
		ID:        primitive.NewObjectID(),
		From:      owner,
		CreatedBy: primitive.NewObjectID(),
		Accepted:  true,
	}
	req := &domain.Request{
		ID:        primitive.NewObjectID(),
		CreatedBy: owner,
		InviteIDs: []primitive.ObjectID{inv.ID},
	}
	inv.RequestID = req.ID

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, inv.ID).Return(inv, nil)
	f.requests.On("Attach", ctx, req.ID, inv.ID).Return(domain.ErrAlreadyAttached)

	err := f.svc.AttachInvite(ctx, owner, req.ID, inv.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyAttached)
	f.invites.AssertNotCalled(t, "SetAttached", mock.Anything, mock.Anything)
}

func TestCompleteRequest_TransfersEscrow(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, inv := attachedRequest()

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, inv.ID).Return(inv, nil)
	f.requests.On("SetComplete", ctx, req.ID).Return(nil)
	f.invites.On("SetComplete", ctx, inv.ID).Return(nil)
	f.users.On("SpendPendingPoints", ctx, req.CreatedBy, 2).Return(nil)
	f.users.On("AwardPoints", ctx, inv.CreatedBy, 2).Return(nil)
	f.users.On("IncrementDeliveryCounters", ctx, req.CreatedBy, inv.CreatedBy).Return(nil)

	err := f.svc.CompleteRequest(ctx, req.CreatedBy, req.ID)
	assert.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestCompleteRequest_Guards(t *testing.T) {
	t.Run("stranger refused", func(t *testing.T) {
		f := newRequestFixture()
		ctx := context.Background()
		req, _ := attachedRequest()
		f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

		err := f.svc.CompleteRequest(ctx, primitive.NewObjectID(), req.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unattached cannot complete", func(t *testing.T) {
		f := newRequestFixture()
		ctx := context.Background()
		req := &domain.Request{ID: primitive.NewObjectID(), CreatedBy: primitive.NewObjectID()}
		f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

		err := f.svc.CompleteRequest(ctx, req.CreatedBy, req.ID)
		assert.ErrorIs(t, err, domain.ErrCompleteUnattached)
		f.requests.AssertNotCalled(t, "SetComplete", mock.Anything, mock.Anything)
	})
}

func TestRequestCancellation_UnattachedRefundsImmediately(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()

	outstanding := domain.Invite{ID: primitive.NewObjectID()}
	req := &domain.Request{
		ID:        primitive.NewObjectID(),
		CreatedBy: primitive.NewObjectID(),
		Points:    3,
		InviteIDs: []primitive.ObjectID{outstanding.ID},
	}
	outstanding.RequestID = req.ID

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.requests.On("SetCancel", ctx, req.ID).Return(nil)
	f.requests.On("SetMutuallyCancelled", ctx, req.ID).Return(nil)
	f.users.On("SpendPendingPoints", ctx, req.CreatedBy, 3).Return(nil)
	f.users.On("AwardPoints", ctx, req.CreatedBy, 3).Return(nil)
	f.publics.On("DeleteByRequest", ctx, req.ID).Return(nil)
	f.invites.On("ListByRequest", ctx, req.ID).Return([]domain.Invite{outstanding}, nil)
	f.invites.On("Delete", ctx, outstanding.ID).Return(nil)

	err := f.svc.RequestCancellation(ctx, req.CreatedBy, req.ID)
	assert.NoError(t, err)
	f.users.AssertExpectations(t)
	f.invites.AssertExpectations(t)
}

func TestRequestCancellation_AttachedNeedsBothSides(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, inv := attachedRequest()

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, inv.ID).Return(inv, nil)
	f.requests.On("SetCancel", ctx, req.ID).Return(nil)

	err := f.svc.RequestCancellation(ctx, req.CreatedBy, req.ID)
	assert.NoError(t, err)
	// one side alone does not finalize
	f.requests.AssertNotCalled(t, "SetMutuallyCancelled", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "AwardPoints", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCancellation_StrangerRefused(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, inv := attachedRequest()

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, inv.ID).Return(inv, nil)

	err := f.svc.RequestCancellation(ctx, primitive.NewObjectID(), req.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSubmitRequestFeedback_WriteOnce(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, inv := attachedRequest()
	req.Complete = true
	req.Rating = 4

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, inv.ID).Return(inv, nil)

	err := f.svc.SubmitRequestFeedback(ctx, req.CreatedBy, req.ID, 5, "late")
	assert.ErrorIs(t, err, domain.ErrImmutableFeedback)
	f.requests.AssertNotCalled(t, "SetFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRequestFeedback_RecordsAndFoldsRating(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, inv := attachedRequest()
	req.Complete = true

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("GetByID", ctx, inv.ID).Return(inv, nil)
	f.feedback.On("Create", ctx, mock.AnythingOfType("*domain.Feedback")).
		Return(primitive.NewObjectID(), nil)
	f.users.On("GetByID", ctx, inv.CreatedBy).
		Return(&domain.User{ID: inv.CreatedBy, Rating: 3, NumberOfRatings: 1}, nil)
	f.users.On("SetRating", ctx, inv.CreatedBy, 4.0, 2, 1).Return(nil)
	f.requests.On("SetFeedback", ctx, req.ID, 5, "quick").Return(nil)

	err := f.svc.SubmitRequestFeedback(ctx, req.CreatedBy, req.ID, 5, "quick")
	assert.NoError(t, err)
	f.users.AssertExpectations(t)
	f.requests.AssertCalled(t, "SetFeedback", ctx, req.ID, 5, "quick")
}

func TestSubmitRequestFeedback_RequiresCompletion(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, _ := attachedRequest()

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)

	err := f.svc.SubmitRequestFeedback(ctx, req.CreatedBy, req.ID, 5, "")
	assert.ErrorIs(t, err, domain.ErrFeedbackUncompleted)
}

func TestGetRequest_InviteHolderAllowed(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	holder := primitive.NewObjectID()
	req, _ := attachedRequest()

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("ExistsForUser", ctx, req.ID, holder).Return(true, nil)

	got, err := f.svc.GetRequest(ctx, holder, req.ID)
	assert.NoError(t, err)
	// attached request passes through the maintenance pass untouched
	assert.Equal(t, req, got)
}

func TestGetRequest_StrangerRefused(t *testing.T) {
	f := newRequestFixture()
	ctx := context.Background()
	req, _ := attachedRequest()
	stranger := primitive.NewObjectID()

	f.requests.On("GetByID", ctx, req.ID).Return(req, nil)
	f.invites.On("ExistsForUser", ctx, req.ID, stranger).Return(false, nil)

	_, err := f.svc.GetRequest(ctx, stranger, req.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
