package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"docuchat/internal/app"
	"docuchat/internal/util"
)

// Machine-readable error codes carried next to the human-readable message.
const (
	codeValidation       = "validation"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: util.RequestIDFromRequest(r),
	})
}

// writeAppError maps application errors to HTTP semantics: not-found
// sentinels map to 404, anything else is a 500 carrying the failure text.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrDocumentNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "document not found")
	case errors.Is(err, app.ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "session not found")
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, http.StatusNotFound, codeNotFound, msg)
}
