package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoliar/commerce-mesh/internal/user/application"
	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

// Handler is the HTTP adapter entrypoint for user use-cases.
type Handler struct {
	service         *application.Service
	validator       ports.TokenValidator
	trustedServices map[string]struct{}
}

// NewHandler constructs an HTTP handler. trustedServices names the internal
// callers whose delete requests are accepted on X-Service-Name alone.
func NewHandler(service *application.Service, validator ports.TokenValidator, trustedServices []string) *Handler {
	trusted := make(map[string]struct{}, len(trustedServices))
	for _, name := range trustedServices {
		trusted[name] = struct{}{}
	}
	return &Handler{
		service:         service,
		validator:       validator,
		trustedServices: trusted,
	}
}

// NewRouter registers user HTTP routes and the middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1/users", func(r chi.Router) {
		// Delete authenticates per-request: trusted internal services skip
		// token validation.
		r.Delete("/{id}", handler.deleteProfile)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(handler.validator))
			r.Post("/", handler.createProfile)
			r.Get("/", handler.listProfiles)
			r.Get("/{id}", handler.getProfile)
			r.Put("/{id}", handler.updateProfile)
		})
	})

	return r
}
