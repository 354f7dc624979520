package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidResponse = errors.New("invalid response format")
)

// Error is a non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
	// Errors is the backend validation array, untouched.
	Errors []json.RawMessage
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// newHTTPError builds an *Error from a failed response. The message comes
// from the body's "message" field when the body is JSON.
func newHTTPError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	var payload struct {
		Message string            `json:"message"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Message
		e.Errors = payload.Errors
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return e
}

// ValidationErrors returns the backend validation array carried by err, if any.
func ValidationErrors(err error) []json.RawMessage {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Errors
	}
	return nil
}
