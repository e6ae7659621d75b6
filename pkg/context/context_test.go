package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestNewContextWithRequest(t *testing.T) {
	ctx := NewContextWithRequest(context.Background(), "handler", "SignIn")

	if got := GetModule(ctx); got != "handler" {
		t.Errorf("GetModule() = %q, want handler", got)
	}
	if got := GetFunction(ctx); got != "SignIn" {
		t.Errorf("GetFunction() = %q, want SignIn", got)
	}
	if GetStartTime(ctx).IsZero() {
		t.Error("Expected start time to be set")
	}
}

func TestNewContextWithRequest_KeepsStartTime(t *testing.T) {
	start := time.Now().Add(-time.Second)
	ctx := context.WithValue(context.Background(), StartTimeKey, start)

	ctx = NewContextWithRequest(ctx, "service", "Logout")

	if !GetStartTime(ctx).Equal(start) {
		t.Error("Expected existing start time to be preserved")
	}
	if GetDuration(ctx) < time.Second {
		t.Errorf("Expected duration of at least 1s, got %s", GetDuration(ctx))
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()

	if GetRequestID(ctx) != "" || GetUserID(ctx) != "" || GetClientIP(ctx) != "" {
		t.Error("Expected empty values from a bare context")
	}
	if GetDuration(ctx) != 0 {
		t.Error("Expected zero duration without a start time")
	}
}

func TestWithHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "01HZX")
	ctx = WithClient(ctx, "10.0.0.1", "curl/8")

	if GetRequestID(ctx) != "req-1" {
		t.Errorf("GetRequestID() = %q", GetRequestID(ctx))
	}
	if GetUserID(ctx) != "01HZX" {
		t.Errorf("GetUserID() = %q", GetUserID(ctx))
	}
	if GetClientIP(ctx) != "10.0.0.1" || GetUserAgent(ctx) != "curl/8" {
		t.Error("Expected client info to round trip")
	}
}
