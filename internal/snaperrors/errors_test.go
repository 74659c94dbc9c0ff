package snaperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"invalid input", NewInvalidInputError("descriptor", "descriptor required"), ErrInvalidInput},
		{"forbidden", NewForbiddenError("only the owner can upload"), ErrForbidden},
		{"not found", NewNotFoundError("collection", ""), ErrNotFound},
		{"upstream", NewUpstreamError("list images", errors.New("connection refused")), ErrUpstream},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tc.err)
			if !errors.Is(wrapped, tc.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false, want true", wrapped)
			}
		})
	}
}

func TestSentinelsDoNotCrossMatch(t *testing.T) {
	err := NewForbiddenError("")
	if errors.Is(err, ErrNotFound) {
		t.Error("ForbiddenError should not match ErrNotFound")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("ForbiddenError should not match ErrInvalidInput")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewInvalidInputError("descriptor", ""), "invalid value for field: descriptor"},
		{NewInvalidInputError("", "bad"), "bad"},
		{&InvalidInputError{}, "invalid input"},
		{NewForbiddenError(""), "forbidden"},
		{NewNotFoundError("collection", ""), "collection not found"},
		{NewNotFoundError("collection", "gone"), "gone"},
		{&NotFoundError{}, "resource not found"},
		{NewUpstreamError("store image", errors.New("timeout")), "store image: timeout"},
		{NewUpstreamError("store image", nil), "store image failed"},
		{&UpstreamError{}, "upstream failure"},
	}

	for _, tc := range tests {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("list images", cause)
	if !errors.Is(err, cause) {
		t.Error("UpstreamError should unwrap to its cause")
	}
}
