package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/order/application"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization token is required")
		return
	}

	var req application.CreateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "create_order", r, err)
		return
	}
	if req.UserID == "" {
		req.UserID = principal.UserID.String()
	}
	if !principal.IsAdmin() && req.UserID != principal.UserID.String() {
		writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "orders may only be placed for the authenticated user")
		return
	}

	res, err := h.service.CreateOrder(r.Context(), req, tokenFromContext(r.Context()))
	if err != nil {
		writeMappedError(w, "create_order", r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}

	res, err := h.service.GetOrder(r.Context(), id, tokenFromContext(r.Context()))
	if err != nil {
		writeMappedError(w, "get_order", r, err)
		return
	}

	principal, ok := principalFromContext(r.Context())
	if !ok || (!principal.IsAdmin() && res.User.ID != principal.UserID) {
		writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "orders are visible to their owner or an admin")
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization token is required")
		return
	}

	userID := principal.UserID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user_id")
			return
		}
		if !principal.IsAdmin() && parsed != principal.UserID {
			writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "orders are visible to their owner or an admin")
			return
		}
		userID = parsed
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	res, err := h.service.ListOrders(r.Context(), application.ListOrdersRequest{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	}, tokenFromContext(r.Context()))
	if err != nil {
		writeMappedError(w, "list_orders", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "order status changes require the ADMIN role")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}

	var req application.UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "update_order_status", r, err)
		return
	}

	res, err := h.service.UpdateOrderStatus(r.Context(), id, req, tokenFromContext(r.Context()))
	if err != nil {
		writeMappedError(w, "update_order_status", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
