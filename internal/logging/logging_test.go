package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_FileSinkWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "emarket.log")
	logger, closer, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug().Msg("hidden")
	logger.Warn().Str("op", "fetch_products").Msg("operation failed")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 (debug filtered)", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["op"] != "fetch_products" || entry["level"] != "warn" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestNew_ConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("console output = %q", buf.String())
	}
}
