// Package response provides helpers for writing consistent JSON HTTP
// responses, and is the single place that maps service errors to HTTP
// status codes. Nothing below the HTTP layer produces HTTP artifacts.
//
// Error responses always look like:
//
//	{ "status": "error", "error": "email already in use" }
//
// Success responses may return any JSON shape (a student, a list, a
// confirmation).
package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aanand-mishra/student-records-api/internal/storage"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error"`  // human-readable error detail
}

// Status string constants — a typo here is caught by the compiler
// rather than silently sending the wrong literal.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status
// code. Headers must be set before WriteHeader, which must precede any
// body bytes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts validator field errors into a single
// human-readable Response, one plain-English clause per failing field.
//
// Example output:
//
//	{ "status": "error", "error": "field Name is required, field Age must be between 1 and 149" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "gt", "lt":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be between 1 and 149", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must not be empty", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// Error maps a service/storage error to its status code and writes the
// envelope. The mapping implements the error taxonomy:
//
//	storage.ErrNotFound        → 404
//	storage.ErrDuplicateEmail  → 409
//	deadline exceeded          → 503 (store unreachable within timeout)
//	anything else              → 500, generic message, no internal
//	                             detail leaked to the client
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, GeneralError(err))
	case errors.Is(err, storage.ErrDuplicateEmail):
		WriteJSON(w, http.StatusConflict, GeneralError(err))
	case errors.Is(err, context.DeadlineExceeded):
		WriteJSON(w, http.StatusServiceUnavailable,
			GeneralError(errors.New("dependency unavailable")))
	default:
		WriteJSON(w, http.StatusInternalServerError,
			GeneralError(errors.New("internal server error")))
	}
}
