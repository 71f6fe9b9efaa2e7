package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/application"
	"github.com/stoliar/commerce-mesh/internal/auth/domain"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	token, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization token is required")
		return
	}

	var req application.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "register", r, err)
		return
	}

	res, err := h.service.Register(r.Context(), req, token)
	if err != nil {
		writeMappedError(w, "register", r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "login", r, err)
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(w, "login", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req application.RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "refresh", r, err)
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeMappedError(w, "refresh", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	token, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "expected Authorization: Bearer <token>")
		return
	}
	writeSuccess(w, http.StatusOK, h.service.Validate(r.Context(), token))
}

// deleteUser tears down an account in both stores. Trusted internal callers
// are admitted by their X-Service-Name header; everyone else needs a valid
// ADMIN access token.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user id")
		return
	}

	callingService := r.Header.Get("X-Service-Name")
	if _, ok := h.trusted[callingService]; !ok {
		token, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization token is required")
			return
		}
		res := h.service.Validate(r.Context(), token)
		if !res.Valid {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token is invalid")
			return
		}
		if res.Role != string(domain.RoleAdmin) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "ADMIN role required")
			return
		}
		callingService = "direct-admin"
	}

	if err := h.service.DeleteUser(r.Context(), id, callingService); err != nil {
		writeMappedError(w, "delete_user", r, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}
