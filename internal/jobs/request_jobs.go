package jobs

import (
	"context"
	"time"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/logger"
)

// staleCancelGrace is how long past its requested time a warned request
// may linger before the sweep cancels it outright.
const staleCancelGrace = 24 * time.Hour

// SweepStaleRequests walks requests whose requested time has passed
// without completion. First pass prompts the parties to cancel; a
// request still hanging around a day later is force-cancelled with the
// escrow refunded.
func (jr *JobRunner) SweepStaleRequests() {
	jr.runWithRecovery("sweep_stale_requests", func() {
		ctx := context.Background()
		now := time.Now().UTC()

		stale, err := jr.store.RequestRepository.ListPastDue(ctx, now)
		if err != nil {
			logger.Error("failed to list past-due requests", "error", err)
			return
		}

		warned, cancelled := 0, 0
		for _, req := range stale {
			r := req
			if !r.StaleWarned {
				if err := jr.warnStale(ctx, &r); err != nil {
					logger.Error("failed to warn stale request", "request", r.ID.Hex(), "error", err)
					continue
				}
				warned++
				continue
			}
			if now.Sub(r.RequestedTime) < staleCancelGrace {
				continue
			}
			if err := jr.cancelStale(ctx, &r); err != nil {
				logger.Error("failed to cancel stale request", "request", r.ID.Hex(), "error", err)
				continue
			}
			cancelled++
		}
		if warned > 0 || cancelled > 0 {
			logger.Info("stale request sweep done", "warned", warned, "cancelled", cancelled)
		}
	})
}

// warnStale prompts both parties to wrap the request up.
func (jr *JobRunner) warnStale(ctx context.Context, req *domain.Request) error {
	if err := jr.store.RequestRepository.SetStaleWarned(ctx, req.ID); err != nil {
		return err
	}
	events := []domain.Event{
		domain.NewEvent(domain.EventPromptRequestCancellation, req.CreatedBy, req.ID),
	}
	if req.AttachedInviteID != nil {
		inv, err := jr.store.InviteRepository.GetByID(ctx, *req.AttachedInviteID)
		if err == nil {
			events = append(events,
				domain.NewEvent(domain.EventPromptInviteCancellation, inv.CreatedBy, inv.ID))
		}
	}
	jr.sender.Dispatch(ctx, events)
	return nil
}

// cancelStale force-cancels a warned request: escrow back to the
// requester, children purged, both parties told.
func (jr *JobRunner) cancelStale(ctx context.Context, req *domain.Request) error {
	if err := jr.store.RequestRepository.SetMutuallyCancelled(ctx, req.ID); err != nil {
		return err
	}
	if err := jr.store.UserRepository.SpendPendingPoints(ctx, req.CreatedBy, req.Points); err != nil {
		return err
	}
	if err := jr.store.UserRepository.AwardPoints(ctx, req.CreatedBy, req.Points); err != nil {
		return err
	}
	if err := jr.store.PublicInviteRepository.DeleteByRequest(ctx, req.ID); err != nil {
		return err
	}

	events := []domain.Event{
		domain.NewEvent(domain.EventRequestMutuallyCancelled, req.CreatedBy, req.ID),
	}
	invites, err := jr.store.InviteRepository.ListByRequest(ctx, req.ID)
	if err != nil {
		return err
	}
	for _, inv := range invites {
		if req.AttachedInviteID != nil && inv.ID == *req.AttachedInviteID {
			events = append(events,
				domain.NewEvent(domain.EventInviteMutuallyCancelled, inv.CreatedBy, inv.ID))
			continue
		}
		if err := jr.store.InviteRepository.Delete(ctx, inv.ID); err != nil {
			return err
		}
	}
	jr.sender.Dispatch(ctx, events)
	return nil
}
