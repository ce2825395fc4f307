// Package httputil centralizes response serialization so every endpoint emits
// the same envelope: {"success": true, "data": ...} on success and
// {"success": false, "error": code, "message": ...} on failure.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"rbi-platform/pkg/apperrors"
)

// Envelope is the uniform response wrapper for all API endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a success envelope with the given status and payload.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// WriteMessage writes a success envelope carrying only a message, for
// operations with no payload worth returning.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Message: message})
}

// WriteError translates a domain error into the failure envelope. Internal
// errors deliberately omit the message so infrastructure details never reach
// clients; every other code passes its message through.
func WriteError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.ToHTTPStatus(code)

	env := Envelope{Success: false, Error: string(code)}
	var appErr *apperrors.Error
	if code != apperrors.CodeInternal && errors.As(err, &appErr) {
		env.Message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
