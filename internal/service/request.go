package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geocode"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

type requestService struct {
	requests   repository.RequestRepository
	invites    repository.InviteRepository
	publics    repository.PublicInviteRepository
	users      repository.UserRepository
	addresses  repository.AddressRepository
	locations  repository.LocationRepository
	recorder   *feedbackRecorder
	matcher    *Matcher
	dispatcher *Dispatcher
	geocoder   geocode.Geocoder
	sender     *notifier.EventSender
	log        *slog.Logger
}

func NewRequestService(
	requests repository.RequestRepository,
	invites repository.InviteRepository,
	publics repository.PublicInviteRepository,
	users repository.UserRepository,
	addresses repository.AddressRepository,
	locations repository.LocationRepository,
	feedback repository.FeedbackRepository,
	matcher *Matcher,
	dispatcher *Dispatcher,
	geocoder geocode.Geocoder,
	sender *notifier.EventSender,
) RequestService {
	return &requestService{
		requests:   requests,
		invites:    invites,
		publics:    publics,
		users:      users,
		addresses:  addresses,
		locations:  locations,
		recorder:   newFeedbackRecorder(feedback, users, sender),
		matcher:    matcher,
		dispatcher: dispatcher,
		geocoder:   geocoder,
		sender:     sender,
		log:        logger.WithService("request"),
	}
}

// CreateRequest validates the new request, escrows the reward, matches
// candidates and dispatches the first invite batch.
func (s *requestService) CreateRequest(ctx context.Context, userID primitive.ObjectID, req *domain.Request) (*domain.Request, error) {
	if req.Complete {
		return nil, domain.ErrCompleteOnCreate
	}

	dest, err := s.resolveDestination(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.users.StashPoints(ctx, userID, req.Points); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.CreatedBy = userID
	req.CreatedAt = now
	req.Candidates = nil
	req.InviteIDs = nil
	req.AttachedInviteID = nil
	req.PublicInviteID = nil
	req.Cancel = false
	req.MutuallyCancelled = false
	if req.RequestedTime.IsZero() {
		req.RequestedTime = now
	}

	if _, err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	candidates, err := s.matcher.MatchCandidates(ctx, req, dest.Location)
	if err != nil {
		return nil, err
	}
	if err := s.requests.PushCandidates(ctx, req.ID, candidates); err != nil {
		return nil, err
	}
	req.Candidates = candidates

	if err := s.dispatcher.GenerateInvites(ctx, req); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, req.ID)
}

// resolveDestination validates an explicit destination or, when none
// was given, derives one: the owner's permanent address nearest their
// current location, falling back to a temporary address created from
// the location itself.
func (s *requestService) resolveDestination(ctx context.Context, userID primitive.ObjectID, req *domain.Request) (*domain.Address, error) {
	if !req.Destination.IsZero() {
		dest, err := s.addresses.GetByID(ctx, req.Destination)
		if err != nil {
			return nil, err
		}
		if dest.CreatedBy != userID {
			return nil, domain.ErrUnauthorized
		}
		return dest, nil
	}

	recent, err := s.locations.ListRecent(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, domain.ErrNoLocationHistory
	}
	here := recent[0].Location

	dest, err := s.addresses.FindNearestPermanent(ctx, userID, here)
	if errors.Is(err, domain.ErrNotFound) {
		text, gerr := s.geocoder.Reverse(ctx, here)
		if gerr != nil {
			text = geocode.UnknownAddress
		}
		dest = &domain.Address{
			CreatedBy: userID,
			Location:  here,
			Text:      text,
			Temporary: true,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := s.addresses.Create(ctx, dest); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	req.Destination = dest.ID
	return dest, nil
}

// GetRequest returns the request after the lazy maintenance pass, to
// the owner or anyone holding an invite on it.
func (s *requestService) GetRequest(ctx context.Context, userID, requestID primitive.ObjectID) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != userID {
		held, err := s.invites.ExistsForUser(ctx, requestID, userID)
		if err != nil {
			return nil, err
		}
		if !held {
			return nil, domain.ErrUnauthorized
		}
	}
	return s.dispatcher.RefreshRequest(ctx, req)
}

// AttachInvite locks the request to one accepted invite. Every
// competing invite is retracted and the public listing withdrawn.
func (s *requestService) AttachInvite(ctx context.Context, userID, requestID, inviteID primitive.ObjectID) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CreatedBy != userID {
		return domain.ErrUnauthorized
	}
	inv, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAttachInvite
		}
		return err
	}

	events, err := req.MarkAttached(inv)
	if err != nil {
		return err
	}
	if err := s.requests.Attach(ctx, requestID, inviteID); err != nil {
		return err
	}
	if err := s.invites.SetAttached(ctx, inviteID); err != nil {
		return err
	}

	// retract everything that competed
	others, err := s.invites.ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == inviteID {
			continue
		}
		if err := s.invites.Delete(ctx, other.ID); err != nil {
			return err
		}
	}
	if err := s.publics.DeleteByRequest(ctx, requestID); err != nil {
		return err
	}

	s.log.Info("invite attached", "request", requestID.Hex(), "invite", inviteID.Hex())
	s.sender.Dispatch(ctx, events)
	return nil
}

// CompleteRequest is the owner confirming delivery. The escrowed points
// move from the requester to the deliverer.
func (s *requestService) CompleteRequest(ctx context.Context, userID, requestID primitive.ObjectID) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CreatedBy != userID {
		return domain.ErrUnauthorized
	}
	var inv *domain.Invite
	if req.AttachedInviteID != nil {
		inv, err = s.invites.GetByID(ctx, *req.AttachedInviteID)
		if err != nil {
			return err
		}
	}

	events, err := req.MarkComplete(inv)
	if err != nil {
		return err
	}
	if err := s.requests.SetComplete(ctx, requestID); err != nil {
		return err
	}
	if err := s.invites.SetComplete(ctx, inv.ID); err != nil {
		return err
	}

	if err := s.users.SpendPendingPoints(ctx, req.CreatedBy, req.Points); err != nil {
		return err
	}
	if err := s.users.AwardPoints(ctx, inv.CreatedBy, req.Points); err != nil {
		return err
	}
	if err := s.users.IncrementDeliveryCounters(ctx, req.CreatedBy, inv.CreatedBy); err != nil {
		return err
	}

	s.log.Info("request completed", "request", requestID.Hex(), "points", req.Points)
	s.sender.Dispatch(ctx, events)
	return nil
}

// RequestCancellation records one side of the cancellation handshake.
// An unattached request cancels on the requester's word alone; an
// attached one needs both parties, prompting the other side until they
// agree. Finalizing refunds the escrow and purges child invites.
func (s *requestService) RequestCancellation(ctx context.Context, userID, requestID primitive.ObjectID) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	var inv *domain.Invite
	if req.AttachedInviteID != nil {
		inv, err = s.invites.GetByID(ctx, *req.AttachedInviteID)
		if err != nil {
			return err
		}
	}

	var side domain.CancelSide
	switch {
	case req.CreatedBy == userID:
		side = domain.CancelByRequester
	case inv != nil && inv.CreatedBy == userID:
		side = domain.CancelByDeliverer
	default:
		return domain.ErrUnauthorized
	}

	finalized, events, err := req.RecordCancellation(inv, side)
	if err != nil {
		return err
	}

	if side == domain.CancelByRequester {
		if err := s.requests.SetCancel(ctx, requestID); err != nil {
			return err
		}
	} else {
		if err := s.invites.SetCancel(ctx, inv.ID); err != nil {
			return err
		}
	}

	if finalized {
		if err := s.requests.SetMutuallyCancelled(ctx, requestID); err != nil {
			return err
		}
		// refund the escrow
		if err := s.users.SpendPendingPoints(ctx, req.CreatedBy, req.Points); err != nil {
			return err
		}
		if err := s.users.AwardPoints(ctx, req.CreatedBy, req.Points); err != nil {
			return err
		}
		if err := s.publics.DeleteByRequest(ctx, requestID); err != nil {
			return err
		}
		if inv == nil {
			// never attached: retract the outstanding invites too
			outstanding, err := s.invites.ListByRequest(ctx, requestID)
			if err != nil {
				return err
			}
			for _, o := range outstanding {
				if err := s.invites.Delete(ctx, o.ID); err != nil {
					return err
				}
			}
		}
		s.log.Info("request mutually cancelled", "request", requestID.Hex())
	}

	s.sender.Dispatch(ctx, events)
	return nil
}

// SubmitRequestFeedback is the requester rating the deliverer on a
// completed request. The rating is write-once; a later call may only
// add a comment where none exists yet.
func (s *requestService) SubmitRequestFeedback(ctx context.Context, userID, requestID primitive.ObjectID, rating int, comment string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CreatedBy != userID {
		return domain.ErrUnauthorized
	}
	if !req.Complete {
		return domain.ErrFeedbackUncompleted
	}
	inv, err := s.invites.GetByID(ctx, *req.AttachedInviteID)
	if err != nil {
		return err
	}

	err = s.recorder.submit(ctx, feedbackSubmission{
		requestID: requestID,
		inviteID:  inv.ID,
		subject:   inv.CreatedBy,
		rating:    rating,
		comment:   comment,
		existing:  req.Rating,
	})
	if err != nil {
		return err
	}
	return s.requests.SetFeedback(ctx, requestID, rating, comment)
}

