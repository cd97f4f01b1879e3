package jobs

import (
	"context"
	"time"

	"frrand-backend/internal/logger"
)

// PruneExpiredInvites sweeps the whole invite collection for expired,
// unaccepted invites and replenishes the affected requests. The lazy
// per-read refresh handles the hot path; this job mops up requests
// nobody is looking at.
func (jr *JobRunner) PruneExpiredInvites() {
	jr.runWithRecovery("prune_expired_invites", func() {
		ctx := context.Background()
		now := time.Now().UTC()

		expired, err := jr.store.InviteRepository.ListExpired(ctx, now)
		if err != nil {
			logger.Error("failed to list expired invites", "error", err)
			return
		}
		if len(expired) == 0 {
			return
		}

		touched := make(map[string]bool)
		for _, inv := range expired {
			if err := jr.store.InviteRepository.Delete(ctx, inv.ID); err != nil {
				logger.Error("failed to delete expired invite", "invite", inv.ID.Hex(), "error", err)
				continue
			}
			if err := jr.store.RequestRepository.RemoveInvite(ctx, inv.RequestID, inv.ID); err != nil {
				logger.Error("failed to detach expired invite", "invite", inv.ID.Hex(), "error", err)
				continue
			}
			// replenish once per request, after all its prunes
			touched[inv.RequestID.Hex()] = true
		}

		replenished := 0
		for _, inv := range expired {
			key := inv.RequestID.Hex()
			if !touched[key] {
				continue
			}
			touched[key] = false
			req, err := jr.store.RequestRepository.GetByID(ctx, inv.RequestID)
			if err != nil {
				continue
			}
			if _, err := jr.dispatcher.RefreshRequest(ctx, req); err != nil {
				logger.Error("failed to replenish request", "request", key, "error", err)
				continue
			}
			replenished++
		}
		logger.Info("expired invites pruned", "pruned", len(expired), "requests_replenished", replenished)
	})
}
