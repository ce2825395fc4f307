package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs(t *testing.T) {
	err := New(CodeNotFound, "record not found")
	if !Is(err, CodeNotFound) {
		t.Fatalf("expected Is to match CodeNotFound")
	}
	if Is(err, CodeConflict) {
		t.Fatalf("expected Is not to match CodeConflict")
	}
	if Is(errors.New("plain"), CodeNotFound) {
		t.Fatalf("expected Is to reject plain errors")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	base := New(CodeConflict, "duplicate reference")
	wrapped := fmt.Errorf("create circular: %w", base)
	if !Is(wrapped, CodeConflict) {
		t.Fatalf("expected code to survive fmt.Errorf wrapping")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "connector probe failed")
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if CodeOf(err) != CodeUnavailable {
		t.Fatalf("expected CodeUnavailable, got %s", CodeOf(err))
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if CodeOf(errors.New("boom")) != CodeInternal {
		t.Fatalf("expected plain errors to map to CodeInternal")
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeRateLimited:  http.StatusTooManyRequests,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeInternal:     http.StatusInternalServerError,
		Code("mystery"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Fatalf("code %s: expected %d, got %d", code, want, got)
		}
	}
}
