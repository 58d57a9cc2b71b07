package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerTo_JSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSessionID(WithComponent(NewLoggerTo(&buf, "info"), "editor"), "s-1")
	logger.Debug("hidden")
	logger.Info("split added", "time", 12.5)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("output is not a single JSON record: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "split added" || rec["component"] != "editor" || rec["session_id"] != "s-1" {
		t.Errorf("record = %v", rec)
	}
}

func TestBytes(t *testing.T) {
	if got := Bytes(82_000_000); got != "82 MB" {
		t.Errorf("Bytes(82e6) = %q", got)
	}
	if got := Bytes(-1); got != "unknown" {
		t.Errorf("Bytes(-1) = %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("short"); got != "****" {
		t.Errorf("SanitizeToken(short) = %q", got)
	}
	if got := SanitizeToken("abcd1234efgh5678"); got != "abcd...5678" {
		t.Errorf("SanitizeToken = %q", got)
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory")
	}
	p := filepath.Join(home, "Movies", "clip.mp4")
	if got := SanitizePath(p); got != filepath.Join("~", "Movies", "clip.mp4") {
		t.Errorf("SanitizePath(%q) = %q", p, got)
	}
	if got := SanitizePath("/opt/clip.mp4"); got != "/opt/clip.mp4" && home != "/" {
		t.Errorf("SanitizePath(/opt/clip.mp4) = %q", got)
	}
}
