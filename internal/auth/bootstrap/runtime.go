package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/auth/adapters/cache"
	"github.com/stoliar/commerce-mesh/internal/auth/adapters/client"
	"github.com/stoliar/commerce-mesh/internal/auth/adapters/events"
	httpadapter "github.com/stoliar/commerce-mesh/internal/auth/adapters/http"
	"github.com/stoliar/commerce-mesh/internal/auth/adapters/postgres"
	"github.com/stoliar/commerce-mesh/internal/auth/adapters/security"
	"github.com/stoliar/commerce-mesh/internal/auth/application"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

// Runtime owns the wired auth service and its background workers.
type Runtime struct {
	cfg    Config
	logger *slog.Logger

	db     *gorm.DB
	redis  *redis.Client
	router http.Handler
	outbox *events.OutboxWorker

	publisherCloser func() error
}

// NewRuntime wires adapters and application services from configuration.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	signer, err := buildSigner(cfg, logger)
	if err != nil {
		return nil, err
	}

	repos := postgres.NewRepositories(db)
	userClient := client.NewUserServiceClient(cfg.UserServiceURL, cfg.ServiceName, cfg.UserServiceTimeout)
	lockouts := cache.NewRedisLockoutStore(redisClient)

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:          cfg.ServiceName,
			AccessTokenTTL:       cfg.AccessTokenTTL,
			RefreshTokenTTL:      cfg.RefreshTokenTTL,
			FailedLoginThreshold: cfg.FailedLoginThreshold,
			LockoutDuration:      cfg.LockoutDuration,
		},
		Credentials: repos.Credentials,
		Outbox:      repos.Outbox,
		Profiles:    userClient,
		Lockouts:    lockouts,
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner: signer,
	})

	publisher, closer := buildPublisher(cfg, logger)

	return &Runtime{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		redis:           redisClient,
		router:          httpadapter.NewRouter(httpadapter.NewHandler(service, cfg.TrustedServices)),
		outbox:          events.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		publisherCloser: closer,
	}, nil
}

func buildSigner(cfg Config, logger *slog.Logger) (ports.TokenSigner, error) {
	if cfg.JWTPrivateKeyPEM != "" && cfg.JWTPublicKeyPEM != "" {
		return security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	}
	logger.Warn("jwt keys not configured, using ephemeral keypair",
		"module", "bootstrap",
		"layer", "bootstrap",
		"operation", "build_signer",
		"outcome", "degraded",
	)
	return security.NewEphemeralJWTSigner(cfg.JWTKeyID)
}

func buildPublisher(cfg Config, logger *slog.Logger) (ports.EventPublisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLoggingPublisher(logger), func() error { return nil }
	}
	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
		"registration.rollback_failed": cfg.RollbackAlertTopic,
	})
	if err != nil {
		logger.Warn("kafka publisher unavailable, falling back to log publisher",
			"module", "bootstrap",
			"layer", "bootstrap",
			"operation", "build_publisher",
			"outcome", "degraded",
			"error", err,
		)
		return events.NewLoggingPublisher(logger), func() error { return nil }
	}
	return publisher, publisher.Close
}

// Run starts the HTTP API and the outbox worker, blocking until ctx is done.
func (rt *Runtime) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.HTTPPort),
		Handler:           rt.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := rt.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			rt.logger.ErrorContext(ctx, "outbox worker stopped",
				"module", "bootstrap",
				"layer", "bootstrap",
				"operation", "run_outbox_worker",
				"outcome", "failure",
				"error", err,
			)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		rt.logger.InfoContext(ctx, "http server starting",
			"module", "bootstrap",
			"layer", "bootstrap",
			"operation", "run_api",
			"outcome", "success",
			"addr", server.Addr,
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("http shutdown incomplete",
			"module", "bootstrap",
			"layer", "bootstrap",
			"operation", "shutdown",
			"outcome", "failure",
			"error", err,
		)
	}
	<-workerDone
	rt.close()
	return nil
}

func (rt *Runtime) close() {
	if rt.publisherCloser != nil {
		_ = rt.publisherCloser()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
