package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"frrand-backend/internal/config"
	"frrand-backend/internal/jobs"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository/mongodb"
	"frrand-backend/internal/scheduler"
	"frrand-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'prune-expired-invites', 'all')")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Frrand Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Error("Failed to connect to mongo", "error", err)
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Failed to ping mongo", "error", err)
		log.Fatalf("Failed to ping mongo: %v", err)
	}
	logger.Info("Mongo connection established")

	// Initialize Repositories
	store := mongodb.NewStore(client.Database(cfg.Mongo.Database))

	// Jobs only push, never provision, so the log fallback is fine
	// when FCM is not configured.
	var push notifier.Notifier
	if cfg.Push.Type == "fcm" {
		fcm, err := notifier.NewFCMNotifier(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM", "error", err)
			log.Fatalf("Failed to initialize FCM: %v", err)
		}
		push = fcm
	} else {
		push = notifier.LogNotifier{}
	}
	sender := notifier.NewEventSender(store.UserRepository, push)

	dispatcher := service.NewDispatcher(
		store.RequestRepository,
		store.InviteRepository,
		store.PublicInviteRepository,
		store.UserRepository,
		store.AddressRepository,
		sender,
		cfg.Matching,
	)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, dispatcher, sender, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "prune-expired-invites":
		jobRunner.PruneExpiredInvites()
	case "sweep-stale-requests":
		jobRunner.SweepStaleRequests()
	case "all":
		jobRunner.RunAllJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - prune-expired-invites\n")
		fmt.Printf("  - sweep-stale-requests\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
