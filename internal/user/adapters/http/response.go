package http

import (
	"encoding/json"
	"net/http"
)

// Response helpers emit the cross-service envelope. The auth service's
// profile client decodes the success shape, so the field names here are part
// of the wire contract.

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{"status": "success", "data": data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"status": "success", "message": message})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
