package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// restoreDefault puts back the package logger after a test replaced it.
func restoreDefault(t *testing.T) {
	t.Helper()
	loggerMu.RLock()
	old := defaultLogger
	loggerMu.RUnlock()

	t.Cleanup(func() {
		_ = Close()
		loggerMu.Lock()
		defaultLogger = old
		loggerMu.Unlock()
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "warn" {
		t.Errorf("DefaultConfig().Level = %s, want warn", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("DefaultConfig().Format = %s, want text", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("DefaultConfig().Output = %s, want stderr", cfg.Output)
	}
}

func TestSetup_Formats(t *testing.T) {
	restoreDefault(t)

	for _, format := range []string{"text", "json", "JSON", ""} {
		if err := Setup(Config{Level: "debug", Format: format, Output: "stderr"}); err != nil {
			t.Errorf("Setup(format=%q) error = %v", format, err)
		}
	}
}

func TestSetup_FileOutput(t *testing.T) {
	restoreDefault(t)

	logFile := filepath.Join(t.TempDir(), "nested", "dir", "sysproxy.log")

	if err := Setup(Config{Level: "info", Format: "json", Output: logFile}); err != nil {
		t.Fatalf("Setup() with file output error = %v", err)
	}

	Default().Info("written to file", "key", "value")

	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written to file"`) {
		t.Errorf("log file content = %s, want JSON record", data)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	err := Setup(Config{Level: "invalid", Format: "text", Output: "stderr"})

	if err == nil {
		t.Fatal("Setup() with invalid level should return error")
	}
	if !strings.Contains(err.Error(), "unknown log level") {
		t.Errorf("Error should mention unknown log level, got: %v", err)
	}
}

func TestSetup_InvalidFormat(t *testing.T) {
	err := Setup(Config{Level: "info", Format: "invalid", Output: "stderr"})

	if err == nil {
		t.Fatal("Setup() with invalid format should return error")
	}
	if !strings.Contains(err.Error(), "unknown log format") {
		t.Errorf("Error should mention unknown log format, got: %v", err)
	}
}

func TestSetup_InvalidFilePath(t *testing.T) {
	err := Setup(Config{Level: "info", Format: "text", Output: "/dev/null/impossible/path/log.txt"})

	if err == nil {
		t.Error("Setup() with invalid file path should return error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", slog.LevelWarn, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Error("parseLevel() should return error")
				}
				return
			}

			if err != nil {
				t.Errorf("parseLevel() error = %v", err)
				return
			}

			if level != tt.want {
				t.Errorf("parseLevel() = %v, want %v", level, tt.want)
			}
		})
	}
}

func TestGetOutput(t *testing.T) {
	tests := []struct {
		output string
		want   *os.File
	}{
		{"stdout", os.Stdout},
		{"STDOUT", os.Stdout},
		{"stderr", os.Stderr},
		{"", os.Stderr},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			w, f, err := getOutput(tt.output)
			if err != nil {
				t.Fatalf("getOutput() error = %v", err)
			}
			if f != nil {
				t.Error("getOutput() should not open a file for standard streams")
			}
			if w != tt.want {
				t.Errorf("getOutput(%q) returned wrong writer", tt.output)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	loggerMu.Lock()
	defaultLogger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	loggerMu.Unlock()

	WithComponent("sysproxy.gsettings").Debug("native command finished")
	Warn("warn message")

	output := buf.String()
	if !strings.Contains(output, "component=sysproxy.gsettings") {
		t.Errorf("component attribute missing from %q", output)
	}
	if !strings.Contains(output, "warn message") {
		t.Errorf("Warn() did not log: %q", output)
	}
}
