package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/locker"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

const claimLockTTL = 10 * time.Second

type inviteService struct {
	invites    repository.InviteRepository
	requests   repository.RequestRepository
	publics    repository.PublicInviteRepository
	users      repository.UserRepository
	recorder   *feedbackRecorder
	dispatcher *Dispatcher
	locks      locker.Locker
	sender     *notifier.EventSender
	log        *slog.Logger
}

func NewInviteService(
	invites repository.InviteRepository,
	requests repository.RequestRepository,
	publics repository.PublicInviteRepository,
	users repository.UserRepository,
	feedback repository.FeedbackRepository,
	dispatcher *Dispatcher,
	locks locker.Locker,
	sender *notifier.EventSender,
) InviteService {
	return &inviteService{
		invites:    invites,
		requests:   requests,
		publics:    publics,
		users:      users,
		recorder:   newFeedbackRecorder(feedback, users, sender),
		dispatcher: dispatcher,
		locks:      locks,
		sender:     sender,
		log:        logger.WithService("invite"),
	}
}

// AcceptInvite marks the invite accepted and notifies the request
// owner. An expired invite is pruned on the spot and the request
// replenished from its candidate queue.
func (s *inviteService) AcceptInvite(ctx context.Context, userID, inviteID primitive.ObjectID) error {
	inv, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv.CreatedBy != userID {
		return domain.ErrUnauthorized
	}

	events, err := inv.Accept(time.Now().UTC())
	if errors.Is(err, domain.ErrInviteExpired) {
		if perr := s.pruneInvite(ctx, inv); perr != nil {
			s.log.Warn("failed to prune expired invite", "invite", inviteID.Hex(), "error", perr)
		}
		return err
	}
	if err != nil {
		return err
	}
	if err := s.invites.SetAccepted(ctx, inviteID); err != nil {
		return err
	}
	s.sender.Dispatch(ctx, events)
	return nil
}

// DeclineInvite deletes the invite, refusal being the only way to back
// out of one. Attached invites cannot be refused.
func (s *inviteService) DeclineInvite(ctx context.Context, userID, inviteID primitive.ObjectID) error {
	inv, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv.CreatedBy != userID {
		return domain.ErrUnauthorized
	}
	if inv.Attached {
		return domain.ErrDeleteAttached
	}
	return s.pruneInvite(ctx, inv)
}

// pruneInvite removes an invite and lets the dispatcher backfill the
// request's invite pool.
func (s *inviteService) pruneInvite(ctx context.Context, inv *domain.Invite) error {
	if err := s.invites.Delete(ctx, inv.ID); err != nil {
		return err
	}
	if err := s.requests.RemoveInvite(ctx, inv.RequestID, inv.ID); err != nil {
		return err
	}
	req, err := s.requests.GetByID(ctx, inv.RequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	_, err = s.dispatcher.RefreshRequest(ctx, req)
	return err
}

// SubmitInviteFeedback is the deliverer rating the requester on a
// completed delivery. Same write-once rule as the other direction.
func (s *inviteService) SubmitInviteFeedback(ctx context.Context, userID, inviteID primitive.ObjectID, rating int, comment string) error {
	inv, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv.CreatedBy != userID {
		return domain.ErrUnauthorized
	}
	if !inv.Complete {
		return domain.ErrFeedbackUncompleted
	}

	err = s.recorder.submit(ctx, feedbackSubmission{
		requestID: inv.RequestID,
		inviteID:  inviteID,
		subject:   inv.From,
		rating:    rating,
		comment:   comment,
		existing:  inv.Rating,
	})
	if err != nil {
		return err
	}
	return s.invites.SetFeedback(ctx, inviteID, rating, comment)
}

func (s *inviteService) ListPublicInvites(ctx context.Context, near geo.Point, limit int) ([]domain.PublicInvite, error) {
	return s.publics.ListNear(ctx, near, limit)
}

// ClaimPublicInvite converts an open public listing into a private,
// pre-accepted invite for the claimant. The claim window is guarded by
// a short lock plus a conditional write, so two claimants racing for
// the same listing cannot both convert it.
func (s *inviteService) ClaimPublicInvite(ctx context.Context, userID, publicInviteID primitive.ObjectID) error {
	release, ok, err := s.locks.Acquire(ctx, "publicInvite:"+publicInviteID.Hex(), claimLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrDuplicateCandidate
	}
	defer release()

	pub, err := s.publics.GetByID(ctx, publicInviteID)
	if err != nil {
		return err
	}
	req, err := s.requests.GetByID(ctx, pub.RequestID)
	if err != nil {
		return err
	}
	// a stale listing whose request moved on is garbage, collect it
	if req.PublicInviteID == nil || *req.PublicInviteID != publicInviteID || req.Attached() || req.IsComplete() {
		_ = s.publics.Delete(ctx, publicInviteID)
		return domain.ErrInviteExpired
	}
	if req.CreatedBy == userID {
		return domain.ErrUnauthorized
	}
	held, err := s.invites.ExistsForUser(ctx, req.ID, userID)
	if err != nil {
		return err
	}
	if held || req.HasCandidate(userID) {
		return domain.ErrDuplicateCandidate
	}

	if err := s.publics.ClaimAcceptedBy(ctx, publicInviteID, userID); err != nil {
		return err
	}
	// the listing stays claimable for the next user once we are done
	defer func() {
		if cerr := s.publics.ClearAcceptedBy(ctx, publicInviteID); cerr != nil {
			s.log.Warn("failed to reset public invite claim", "publicInvite", publicInviteID.Hex(), "error", cerr)
		}
	}()

	now := time.Now().UTC()
	inv := &domain.Invite{
		RequestID:     req.ID,
		From:          req.CreatedBy,
		CreatedBy:     userID,
		Accepted:      true,
		RequestExpiry: now, // moot once accepted
		CreatedAt:     now,
	}
	if _, err := s.invites.Create(ctx, inv); err != nil {
		return err
	}
	if err := s.requests.AddInvite(ctx, req.ID, inv.ID); err != nil {
		return err
	}
	if err := s.requests.PullCandidate(ctx, req.ID, userID); err != nil {
		return err
	}

	s.log.Info("public invite claimed", "request", req.ID.Hex(), "user", userID.Hex())
	s.sender.Dispatch(ctx, []domain.Event{
		domain.NewEvent(domain.EventRequestInviteAccepted, req.CreatedBy, inv.ID),
	})
	return nil
}
