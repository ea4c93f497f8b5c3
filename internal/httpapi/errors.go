package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/internal/lora"
	"inferd/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps well-known core errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case lora.IsNotFound(err):
		return http.StatusNotFound
	case lora.IsAdaptersNotFound(err):
		return http.StatusNotFound
	case lora.IsLoadFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErr maps err to a status and writes the JSON payload.
func writeErr(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), err.Error())
}
