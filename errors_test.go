package klein

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestMethodNotAllowedErrorMessage(t *testing.T) {
	err := &MethodNotAllowedError{Allowed: []string{http.MethodGet, http.MethodPost}}
	if !strings.Contains(err.Error(), "GET, POST") {
		t.Errorf("expected allowed methods in message, got %q", err.Error())
	}
}

func TestBuildErrorUnwrap(t *testing.T) {
	inner := errors.New("missing variable")
	err := &BuildError{Endpoint: "item", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected BuildError to unwrap to inner error")
	}
	if !strings.Contains(err.Error(), "item") {
		t.Errorf("expected endpoint in message, got %q", err.Error())
	}
}

func TestBuildErrorWithoutInner(t *testing.T) {
	err := &BuildError{Endpoint: "missing"}
	if !strings.Contains(err.Error(), "no such endpoint") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPErrorStatusAndUnwrap(t *testing.T) {
	inner := errors.New("db down")
	err := &HTTPError{Code: http.StatusServiceUnavailable, Message: "unavailable", Err: inner}

	if err.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.StatusCode())
	}
	if !errors.Is(err, inner) {
		t.Error("expected HTTPError to unwrap to inner error")
	}
	if err.Error() != "unavailable: db down" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
