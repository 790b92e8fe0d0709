package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_WritesJSONToFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Config{Level: "info"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = closer.Close() }()

	logger.Debug("hidden")
	logger.Info("poll completed", "records", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1 (debug filtered): %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "poll completed" {
		t.Errorf("msg = %v, want poll completed", entry["msg"])
	}
	if entry["records"] != float64(3) {
		t.Errorf("records = %v, want 3", entry["records"])
	}
}

func TestNew_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distroboard.log")
	logger, closer, err := New(Config{File: path}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("session started")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "session started") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("New() expected error for invalid level")
	}
}
