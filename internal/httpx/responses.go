package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the wire shape of every error response. The frontend and
// bookctl both read the message field, so it is always populated.
type ErrorBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body with a single message.
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorBody{Message: message})
}

// ErrorWithDetails writes a JSON error body with per-field details,
// used for validation failures.
func ErrorWithDetails(w http.ResponseWriter, statusCode int, message string, details []FieldError) {
	JSON(w, statusCode, ErrorBody{Message: message, Errors: details})
}
