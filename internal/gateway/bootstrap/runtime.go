package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/stoliar/commerce-mesh/internal/gateway/admintoken"
	"github.com/stoliar/commerce-mesh/internal/gateway/proxy"
)

// Runtime owns the wired gateway.
type Runtime struct {
	cfg    Config
	logger *slog.Logger
	admin  *admintoken.Supplier
	router http.Handler
}

// NewRuntime wires the gateway from configuration.
func NewRuntime(_ context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	admin := admintoken.NewSupplier(admintoken.Config{
		AuthURL:         cfg.AuthServiceURL,
		Email:           cfg.AdminEmail,
		Password:        cfg.AdminPassword,
		Timeout:         cfg.AdminTokenTimeout,
		MaxAttempts:     cfg.AdminMaxAttempts,
		BackoffBase:     cfg.AdminBackoffBase,
		BackoffCap:      cfg.AdminBackoffCap,
		RefreshInterval: cfg.AdminRefreshInterval,
	}, logger)

	gateway, err := proxy.NewGateway(proxy.Config{
		AuthServiceURL:  cfg.AuthServiceURL,
		UserServiceURL:  cfg.UserServiceURL,
		OrderServiceURL: cfg.OrderServiceURL,
	}, admin, logger)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	limiter := proxy.NewRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	return &Runtime{
		cfg:    cfg,
		logger: logger,
		admin:  admin,
		router: gateway.Routes(limiter),
	}, nil
}

// Run starts the admin token supplier and the HTTP server, blocking until
// ctx is done.
func (rt *Runtime) Run(ctx context.Context) error {
	go rt.admin.Run(ctx)

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
	return nil
}
