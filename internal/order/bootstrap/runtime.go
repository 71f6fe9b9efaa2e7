package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/order/adapters/client"
	httpadapter "github.com/stoliar/commerce-mesh/internal/order/adapters/http"
	"github.com/stoliar/commerce-mesh/internal/order/adapters/postgres"
	"github.com/stoliar/commerce-mesh/internal/order/application"
)

// Runtime owns the wired order service.
type Runtime struct {
	cfg    Config
	logger *slog.Logger

	db     *gorm.DB
	router http.Handler
}

// NewRuntime wires adapters and the application service from configuration.
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

	userClient := client.NewUserServiceClient(client.UserClientConfig{
		BaseURL:          cfg.UserServiceURL,
		Timeout:          cfg.UserServiceTimeout,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
		MaxAttempts:      cfg.RetryMaxAttempts,
		RetryBase:        cfg.RetryBase,
		RetryCap:         cfg.RetryCap,
	})

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:     cfg.ServiceName,
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
		Orders: postgres.NewOrderRepository(db),
		Users:  userClient,
	})

	validator := client.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthServiceTimeout)
	handler := httpadapter.NewHandler(service, validator)

	return &Runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		router: httpadapter.NewRouter(handler),
	}, nil
}

// Run serves the HTTP API, blocking until ctx is done.
func (rt *Runtime) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.HTTPPort),
		Handler:           rt.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

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
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return nil
}
