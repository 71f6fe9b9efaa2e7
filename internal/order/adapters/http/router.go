package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoliar/commerce-mesh/internal/order/application"
	"github.com/stoliar/commerce-mesh/internal/order/ports"
)

// Handler is the HTTP adapter entrypoint for order use-cases.
type Handler struct {
	service   *application.Service
	validator ports.TokenValidator
}

func NewHandler(service *application.Service, validator ports.TokenValidator) *Handler {
	return &Handler{service: service, validator: validator}
}

// NewRouter registers order HTTP routes and the middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(authMiddleware(handler.validator))
		r.Post("/", handler.createOrder)
		r.Get("/", handler.listOrders)
		r.Get("/{id}", handler.getOrder)
		r.Put("/{id}/status", handler.updateOrderStatus)
	})

	return r
}
