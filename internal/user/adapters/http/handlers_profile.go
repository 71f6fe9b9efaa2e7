package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/application"
)

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "profile creation requires the ADMIN role")
		return
	}

	var req application.CreateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "create_profile", r, err)
		return
	}

	res, err := h.service.CreateProfile(r.Context(), req)
	if err != nil {
		writeMappedError(w, "create_profile", r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid profile id")
		return
	}

	res, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		writeMappedError(w, "get_profile", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// listProfiles serves both paginated listing and lookup by email. Both are
// admin-only because they expose other users' data.
func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "listing profiles requires the ADMIN role")
		return
	}

	if email := r.URL.Query().Get("email"); email != "" {
		res, err := h.service.GetProfileByEmail(r.Context(), email)
		if err != nil {
			writeMappedError(w, "get_profile_by_email", r, err)
			return
		}
		writeSuccess(w, http.StatusOK, res)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	res, err := h.service.ListProfiles(r.Context(), application.ListProfilesRequest{Limit: limit, Offset: offset})
	if err != nil {
		writeMappedError(w, "list_profiles", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid profile id")
		return
	}

	principal, ok := principalFromContext(r.Context())
	if !ok || (!principal.IsAdmin() && principal.UserID != id) {
		writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "profiles may only be updated by their owner or an admin")
		return
	}

	var req application.UpdateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "update_profile", r, err)
		return
	}

	res, err := h.service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		writeMappedError(w, "update_profile", r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// deleteProfile accepts two caller classes: trusted services identified by
// X-Service-Name (the auth service's deletion and rollback paths carry no
// bearer token) and admins with a validated token.
func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid profile id")
		return
	}

	callingService := r.Header.Get("X-Service-Name")
	if !h.isTrustedService(callingService) {
		token, tokenErr := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if tokenErr != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization token is required")
			return
		}
		principal, validateErr := h.validator.Validate(r.Context(), token)
		if validateErr != nil {
			writeMappedError(w, "delete_profile", r, validateErr)
			return
		}
		if !principal.IsAdmin() {
			writeError(w, http.StatusForbidden, "AUTHORIZATION_DENIED", "profile deletion requires the ADMIN role")
			return
		}
		if callingService == "" {
			callingService = "direct-admin"
		}
	}

	if err := h.service.DeleteProfile(r.Context(), id, callingService); err != nil {
		writeMappedError(w, "delete_profile", r, err)
		return
	}
	writeMessage(w, http.StatusOK, "profile deleted")
}

func (h *Handler) isTrustedService(name string) bool {
	if name == "" {
		return false
	}
	_, ok := h.trustedServices[name]
	return ok
}
