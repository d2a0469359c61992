// Package respond centralizes JSON response encoding so every handler emits
// the same envelope and error shape.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the stable error envelope returned to clients. Code is a
// machine-readable identifier; Error is the human-readable message. Raw
// storage errors never appear here.
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes a stable error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Code: code, Error: message})
}
