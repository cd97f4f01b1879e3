package jobs

import (
	"frrand-backend/internal/config"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository/mongodb"
	"frrand-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store      *mongodb.Store
	dispatcher *service.Dispatcher
	sender     *notifier.EventSender
	config     *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store *mongodb.Store, dispatcher *service.Dispatcher, sender *notifier.EventSender, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:      store,
		dispatcher: dispatcher,
		sender:     sender,
		config:     cfg,
	}
}

// Config exposes the runner's configuration to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllJobs runs every job once (for manual execution)
func (jr *JobRunner) RunAllJobs() {
	jr.PruneExpiredInvites()
	jr.SweepStaleRequests()
}
