package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse marks a body that could not be decoded or is missing
// required fields.
var ErrMalformedResponse = errors.New("malformed backend response")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Endpoint, e.StatusCode)
}

// Restricted reports whether the backend refused the lot as restricted.
func (e *StatusError) Restricted() bool { return e.StatusCode == http.StatusForbidden }

// ModelUnavailable reports whether the backend model is disabled or not loaded.
func (e *StatusError) ModelUnavailable() bool { return e.StatusCode == http.StatusServiceUnavailable }

func malformed(endpoint string, err error) error {
	return fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
}
