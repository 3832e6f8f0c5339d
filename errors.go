package klein

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Dispatch Errors
// =============================================================================

// ErrNotFound is returned by Match when no registered rule matches the
// request path. Dispatch converts it into a 404 response; it never
// propagates as a fault.
var ErrNotFound = errors.New("klein: no route matches the request path")

// MethodNotAllowedError is returned by Match when at least one rule matches
// the request path but none accepts the request method. It carries the
// methods the path does accept so dispatch can advertise them in an Allow
// header on the 405 response.
type MethodNotAllowedError struct {
	// Allowed is the sorted set of methods accepted for the path.
	Allowed []string
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return "klein: method not allowed (allowed: " + strings.Join(e.Allowed, ", ") + ")"
}

// =============================================================================
// Reverse Build Errors
// =============================================================================

// BuildError is returned by URLFor when no URL can be constructed for the
// given endpoint and parameters. This is a programmer error and is returned
// to the caller immediately, never silently defaulted.
type BuildError struct {
	// Endpoint is the endpoint name the build was attempted for.
	Endpoint string

	// Err is the underlying router error, if any.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("klein: cannot build URL for endpoint %q: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("klein: cannot build URL for endpoint %q: no such endpoint", e.Endpoint)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Handler Errors
// =============================================================================

// HTTPError represents a handler failure with an explicit HTTP status code.
// Handlers may return it to control the status of the error response;
// any other error produces a 500.
type HTTPError struct {
	Code    int    // HTTP status code (e.g., 400, 403, 404, 500)
	Message string // Error message to return to the client
	Err     error  // Optional underlying error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *HTTPError) StatusCode() int {
	return e.Code
}
