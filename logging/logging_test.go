package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := levelFromString(tt.in); got != tt.want {
			t.Errorf("levelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "smartdash.log")
	logger, err := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("task added", zap.String("priority", "High"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %d: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "task added" || entry["priority"] != "High" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
