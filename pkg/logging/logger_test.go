package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger2 := Default(); logger == logger2 {
		t.Error("Default() returned the same instance twice")
	}
}

func TestNewWithOptions_JSONWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: "info", Writer: &buf})
	logger.Info("slot selected", "hour", 9)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "slot selected" {
		t.Fatalf("msg = %v", record["msg"])
	}
	if record["hour"] != float64(9) {
		t.Fatalf("hour = %v", record["hour"])
	}
}

func TestNewWithOptions_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: "debug", Format: "text", Writer: &buf})
	logger.With("provider_id", "p1").Debug("fetching availability")

	out := buf.String()
	if !strings.Contains(out, "msg=\"fetching availability\"") {
		t.Fatalf("unexpected text output: %q", out)
	}
	if !strings.Contains(out, "provider_id=p1") {
		t.Fatalf("expected attribute in output: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Discard() should not enable info level")
	}
	logger.Error("dropped")
}
