package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"voicebot/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "telegram", "sendVoice", "upload failed", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"telegram", "sendVoice", "upload failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) || !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected default wrap %v", err)
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"transient marker", services.Wrap(services.ErrTransient, "x", "y", "z", nil), true},
		{"rate limited", services.Wrap(services.ErrRateLimited, "x", "y", "z", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "x", "y", "z", nil), false},
		{"unauthorized", services.Wrap(services.ErrUnauthorized, "x", "y", "z", nil), false},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"other", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		if got := services.IsRetriable(tt.err); got != tt.want {
			t.Errorf("%s: IsRetriable = %v, want %v", tt.name, got, tt.want)
		}
	}
}
