package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContext_NoLogger(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext() should return default logger when no logger in context")
	}
}

func TestFromContext_WithLogger(t *testing.T) {
	customLogger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := WithContext(context.Background(), customLogger)

	if FromContext(ctx) != customLogger {
		t.Error("FromContext() should return the logger from context")
	}
}

func TestContextWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := ContextWith(WithContext(context.Background(), base), "command", "get")
	DebugContext(ctx, "debug message")
	InfoContext(ctx, "info message")

	output := buf.String()
	if !strings.Contains(output, "command=get") {
		t.Errorf("ContextWith() attribute missing from %q", output)
	}
	if !strings.Contains(output, "debug message") || !strings.Contains(output, "info message") {
		t.Errorf("context helpers did not log: %q", output)
	}
}
