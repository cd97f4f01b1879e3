package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"frrand-backend/internal/config"
	"frrand-backend/internal/domain"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

// Dispatcher turns matched candidates into live invites and keeps the
// invite pool of each open request replenished. When a request runs out
// of both invites and candidates it falls back to a public listing any
// user can claim.
type Dispatcher struct {
	requests  repository.RequestRepository
	invites   repository.InviteRepository
	publics   repository.PublicInviteRepository
	users     repository.UserRepository
	addresses repository.AddressRepository
	sender    *notifier.EventSender
	cfg       config.MatchingConfig
	log       *slog.Logger
}

func NewDispatcher(
	requests repository.RequestRepository,
	invites repository.InviteRepository,
	publics repository.PublicInviteRepository,
	users repository.UserRepository,
	addresses repository.AddressRepository,
	sender *notifier.EventSender,
	cfg config.MatchingConfig,
) *Dispatcher {
	return &Dispatcher{
		requests:  requests,
		invites:   invites,
		publics:   publics,
		users:     users,
		addresses: addresses,
		sender:    sender,
		cfg:       cfg,
		log:       logger.WithService("dispatcher"),
	}
}

// GenerateInvites pops candidates off the request's queue and creates
// invites until the live pool reaches the batch size or the queue runs
// dry. Inactive candidates are discarded without consuming a slot. If
// no invite could be created at all, the request is listed publicly.
func (d *Dispatcher) GenerateInvites(ctx context.Context, req *domain.Request) error {
	live := len(req.InviteIDs)
	now := time.Now().UTC()
	expiry := now.Add(time.Duration(d.cfg.InviteExpiryMinutes) * time.Minute)

	for live < d.cfg.InviteBatchSize {
		uid, err := d.requests.PopCandidate(ctx, req.ID)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return err
		}
		user, err := d.users.GetByID(ctx, uid)
		if errors.Is(err, domain.ErrNotFound) {
			// account gone, drop the candidate
			continue
		}
		if err != nil {
			// the pop is not undone; surface the error so a later
			// refresh retries with the remaining queue intact instead
			// of draining it into a wrong public listing
			return err
		}
		if !user.Active {
			continue
		}

		inv := &domain.Invite{
			RequestID:     req.ID,
			From:          req.CreatedBy,
			CreatedBy:     uid,
			RequestExpiry: expiry,
			CreatedAt:     now,
		}
		if _, err := d.invites.Create(ctx, inv); err != nil {
			return err
		}
		if err := d.requests.AddInvite(ctx, req.ID, inv.ID); err != nil {
			return err
		}
		live++
		d.sender.Dispatch(ctx, []domain.Event{
			domain.NewEvent(domain.EventRequestInvite, uid, inv.ID),
		})
	}

	if live == 0 {
		return d.ensurePublicInvite(ctx, req)
	}
	return nil
}

// RefreshRequest prunes expired invites off the request and tops the
// pool back up. Safe to run any number of times; attached and terminal
// requests are left alone. Returns the request in its refreshed state.
func (d *Dispatcher) RefreshRequest(ctx context.Context, req *domain.Request) (*domain.Request, error) {
	if req.Attached() || req.IsComplete() {
		return req, nil
	}

	invites, err := d.invites.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	pruned := false
	for _, inv := range invites {
		if !inv.IsExpired(now) {
			continue
		}
		if err := d.invites.Delete(ctx, inv.ID); err != nil {
			return nil, err
		}
		if err := d.requests.RemoveInvite(ctx, req.ID, inv.ID); err != nil {
			return nil, err
		}
		pruned = true
	}
	if pruned {
		d.log.Info("pruned expired invites", "request", req.ID.Hex())
	}

	fresh, err := d.requests.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if len(fresh.InviteIDs) == 0 {
		if err := d.GenerateInvites(ctx, fresh); err != nil {
			return nil, err
		}
		fresh, err = d.requests.GetByID(ctx, req.ID)
		if err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// ensurePublicInvite lists the request publicly at its destination.
// Loses gracefully when a concurrent refresh already listed it.
func (d *Dispatcher) ensurePublicInvite(ctx context.Context, req *domain.Request) error {
	if req.PublicInviteID != nil {
		return nil
	}
	dest, err := d.addresses.GetByID(ctx, req.Destination)
	if err != nil {
		return err
	}
	pub := &domain.PublicInvite{
		RequestID: req.ID,
		From:      req.CreatedBy,
		Location:  dest.Location,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := d.publics.Create(ctx, pub); err != nil {
		return err
	}
	ok, err := d.requests.SetPublicInviteIfUnset(ctx, req.ID, pub.ID)
	if err != nil {
		return err
	}
	if !ok {
		// lost the race, another listing is already bound
		return d.publics.Delete(ctx, pub.ID)
	}
	d.log.Info("request listed publicly", "request", req.ID.Hex())
	return nil
}
