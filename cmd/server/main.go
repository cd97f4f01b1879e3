package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	httpapi "frrand-backend/internal/api/http"
	"frrand-backend/internal/config"
	"frrand-backend/internal/geocode"
	"frrand-backend/internal/jobs"
	"frrand-backend/internal/locker"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository/mongodb"
	"frrand-backend/internal/scheduler"
	"frrand-backend/internal/security"
	"frrand-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Frrand Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Mongo configuration", "database", cfg.Mongo.Database)

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
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Error("Failed to ensure indexes", "error", err)
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Initialize Locker
	var locks locker.Locker
	if cfg.Redis.Disabled {
		logger.Info("Redis disabled, using no-op locker")
		locks = locker.NoopLocker{}
	} else {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to ping redis", "error", err)
			log.Fatalf("Failed to ping redis: %v", err)
		}
		defer rdb.Close()
		locks = locker.NewRedisLocker(rdb)
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
	}

	// Initialize Notifier
	var push notifier.Notifier
	if cfg.Push.Type == "fcm" {
		fcm, err := notifier.NewFCMNotifier(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM", "error", err)
			log.Fatalf("Failed to initialize FCM: %v", err)
		}
		push = fcm
		logger.Info("FCM notifier initialized")
	} else {
		push = notifier.LogNotifier{}
		logger.Info("Using log-only notifier")
	}
	sender := notifier.NewEventSender(store.UserRepository, push)

	// Initialize Geocoder
	var geocoder geocode.Geocoder
	if cfg.Geocoder.Type == "google" {
		geocoder = geocode.NewGoogleGeocoder(cfg.Geocoder.APIKey)
	} else {
		geocoder = geocode.StaticGeocoder{}
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize Services
	matcher := service.NewMatcher(store.LocationRepository)
	dispatcher := service.NewDispatcher(
		store.RequestRepository,
		store.InviteRepository,
		store.PublicInviteRepository,
		store.UserRepository,
		store.AddressRepository,
		sender,
		cfg.Matching,
	)
	authSvc := service.NewAuthService(
		store.UserRepository,
		store.APIKeyRepository,
		store.VoucherRepository,
		push,
		tokenManager,
	)
	locationSvc := service.NewLocationService(
		store.LocationRepository,
		store.AddressRepository,
		locks,
		geocoder,
		sender,
		cfg.Matching,
	)
	addressSvc := service.NewAddressService(store.AddressRepository, geocoder, sender)
	requestSvc := service.NewRequestService(
		store.RequestRepository,
		store.InviteRepository,
		store.PublicInviteRepository,
		store.UserRepository,
		store.AddressRepository,
		store.LocationRepository,
		store.FeedbackRepository,
		matcher,
		dispatcher,
		geocoder,
		sender,
	)
	inviteSvc := service.NewInviteService(
		store.InviteRepository,
		store.RequestRepository,
		store.PublicInviteRepository,
		store.UserRepository,
		store.FeedbackRepository,
		dispatcher,
		locks,
		sender,
	)
	commentSvc := service.NewCommentService(
		store.CommentRepository,
		store.RequestRepository,
		store.InviteRepository,
		store.PublicInviteRepository,
		sender,
	)
	// Initialize Scheduler
	jobRunner := jobs.NewJobRunner(store, dispatcher, sender, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// HTTP API
	router := mux.NewRouter()
	api := httpapi.NewAPI(authSvc, locationSvc, addressSvc, requestSvc, inviteSvc, commentSvc, tokenManager)
	api.Routes(router)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := client.Ping(r.Context(), readpref.Primary()); err != nil {
			http.Error(w, "mongo unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	logger.Info("Goodbye!")
}
