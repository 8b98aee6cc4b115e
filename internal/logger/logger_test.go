package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarn, false)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("tile %s retried", "14-100-200")
	l.Error("tile %s failed", "14-101-200")

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below Warn were logged:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] tile 14-100-200 retried") {
		t.Errorf("missing warn line:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] tile 14-101-200 failed") {
		t.Errorf("missing error line:\n%s", out)
	}
}

func TestLogger_Stdout(t *testing.T) {
	var file, stdout bytes.Buffer
	l := NewWriter(&file, LevelDebug, true)
	l.stdout = &stdout

	l.Debug("hidden")
	l.Info("shown")

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug line echoed to stdout")
	}
	if !strings.Contains(stdout.String(), "shown") {
		t.Error("info line not echoed to stdout")
	}
	if !strings.Contains(file.String(), "hidden") {
		t.Error("debug line missing from file")
	}
}

func TestNew_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilefetch.log")

	for i := 0; i < 2; i++ {
		l, err := New(path, LevelInfo, false)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		l.Info("run %d", i)
		if err := l.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "run 0") || !strings.Contains(string(data), "run 1") {
		t.Errorf("log file = %q, want both runs", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
