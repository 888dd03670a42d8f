package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewDefaultsToConsole(t *testing.T) {
	logger, err := New(Options{Level: "info"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
		" Debug ": slog.LevelDebug,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("should not panic", String("key", "value"))
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should report disabled at every level")
	}
}

func TestComponentLoggerTagsOutput(t *testing.T) {
	var buf strings.Builder
	levelVar := new(slog.LevelVar)
	handler := newConsoleHandler(writerAdapter{&buf}, levelVar, false)
	logger := NewComponentLogger(slog.New(handler), "resolver")

	logger.Info("resolved", String(FieldTitle, "Toy Story"))

	out := buf.String()
	if !strings.Contains(out, "[resolver]") {
		t.Fatalf("expected component tag in output, got %q", out)
	}
	if !strings.Contains(out, `title="Toy Story"`) {
		t.Fatalf("expected quoted title attribute, got %q", out)
	}
}

type writerAdapter struct{ b *strings.Builder }

func (w writerAdapter) Write(p []byte) (int, error) { return w.b.Write(p) }
