package logger

import (
	"context"
	"errors"
	"testing"

	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, cfg PerformanceConfig) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetOptimizedLogger(NewOptimizedLogger(zap.New(core), cfg))
	t.Cleanup(UseNop)
	return logs
}

func TestContextLogBuilder_ExtractsContextFields(t *testing.T) {
	logs := observe(t, DevelopmentConfig())

	ctx := ctxutil.WithRequestID(context.Background(), "req-42")
	ctx = ctxutil.WithUserID(ctx, "01J0USER")
	ctx = ctxutil.WithFunction(ctx, "service", "SignIn")

	InfoWithContext(ctx, "User signed in").
		String("email", "alice@example.com").
		Err(errors.New("store timeout")).
		Log()

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", logs.Len())
	}

	fields := logs.All()[0].ContextMap()
	for key, want := range map[string]string{
		"request_id": "req-42",
		"user_id":    "01J0USER",
		"module":     "service",
		"function":   "SignIn",
		"email":      "alice@example.com",
		"error":      "store timeout",
	} {
		if got, _ := fields[key].(string); got != want {
			t.Errorf("Field %s = %q, want %q", key, got, want)
		}
	}
}

func TestContextLogBuilder_LevelFilter(t *testing.T) {
	logs := observe(t, ProductionConfig())

	DebugWithContext(context.Background(), "hidden").String("k", "v").Log()
	WarnWithContext(context.Background(), "visible").Log()

	if logs.Len() != 1 {
		t.Fatalf("Expected only the warn entry, got %d", logs.Len())
	}
	if logs.All()[0].Message != "visible" {
		t.Errorf("Unexpected message %q", logs.All()[0].Message)
	}
}

func TestContextLogBuilder_CancelledContext(t *testing.T) {
	logs := observe(t, DevelopmentConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	InfoWithContext(ctx, "dropped").Log()
	ErrorWithContext(ctx, "kept").Log()

	if logs.Len() != 1 || logs.All()[0].Message != "kept" {
		t.Fatalf("Expected only the error entry after cancellation, got %d entries", logs.Len())
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2)

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("Expected the first two calls to pass")
	}
	if rl.Allow() {
		t.Error("Expected the third call within a second to be dropped")
	}
}

func TestGetLogger_NopBeforeInit(t *testing.T) {
	Logger = nil
	t.Cleanup(UseNop)

	// Must not panic.
	GetLogger().Info("no init yet")
	LogAuth("u1", "signin", false)
}
