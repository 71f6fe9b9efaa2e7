package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeValidationError(w http.ResponseWriter, operation string, r *http.Request, err error) {
	logHTTPOperationError(r.Context(), operation, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
	writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}

func writeMappedError(w http.ResponseWriter, operation string, r *http.Request, err error) {
	statusCode, code, message := mapDomainError(err)
	logHTTPOperationError(r.Context(), operation, statusCode, code, message, err)
	writeError(w, statusCode, code, message)
}
