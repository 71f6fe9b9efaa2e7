package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/application"
)

// authService is the slice of the application layer the HTTP adapter calls.
type authService interface {
	Register(ctx context.Context, req application.RegisterRequest, callerToken string) (application.RegisterResponse, error)
	Login(ctx context.Context, req application.LoginRequest) (application.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (application.TokenResponse, error)
	Validate(ctx context.Context, token string) application.ValidateResponse
	DeleteUser(ctx context.Context, id uuid.UUID, callingService string) error
}

// Handler is the HTTP adapter entrypoint for auth use-cases.
type Handler struct {
	service authService
	trusted map[string]struct{}
}

// NewHandler constructs an HTTP handler bound to the application service.
// trustedServices names internal callers whose X-Service-Name header stands
// in for a bearer token on the delete route.
func NewHandler(service authService, trustedServices []string) *Handler {
	trusted := make(map[string]struct{}, len(trustedServices))
	for _, name := range trustedServices {
		trusted[name] = struct{}{}
	}
	return &Handler{service: service, trusted: trusted}
}

// NewRouter registers auth HTTP routes and the middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/refresh", handler.refresh)
		r.Post("/validate", handler.validate)
		r.Delete("/users/{id}", handler.deleteUser)
	})

	return r
}
