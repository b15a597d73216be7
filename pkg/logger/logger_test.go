package logger

import (
	"context"
	"errors"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initializing must be safe.
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "test message",
		String("k", "v"),
		Int("quarter", 2),
		Int64("seed", 42),
		Float64("condition", 0.87),
		Bool("final", true),
		Error(errors.New("boom")),
	)
}

func TestLoggerNamedAndWith(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("engine").With(String("match_id", "r1-m1"))
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestNopLogger(t *testing.T) {
	nop := NewNop()
	if nop == nil {
		t.Fatal("nop logger is nil")
	}
	// Must not panic or write anywhere.
	nop.Error(context.Background(), "discarded", String("k", "v"))
	nop.Named("x").With(Int("n", 1)).Warn(context.Background(), "discarded")
}

func TestSetLevelString(t *testing.T) {
	cases := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"", false},
		{"warning", false},
		{" error ", false},
		{"verbose", true},
	}
	for _, tc := range cases {
		err := SetLevelString(tc.level)
		if (err != nil) != tc.wantErr {
			t.Errorf("SetLevelString(%q) error = %v, wantErr %v", tc.level, err, tc.wantErr)
		}
	}
	_ = SetLevelString("info")
}
