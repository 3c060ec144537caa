package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/emarket/internal/kvstore"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.Timeout != defaultTimeout || cfg.PollInterval != defaultPollInterval {
		t.Fatalf("durations = %v/%v", cfg.Timeout, cfg.PollInterval)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.Store.Backend != kvstore.BackendFile {
		t.Fatalf("Store.Backend = %q, want file", cfg.Store.Backend)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  http://10.0.0.5:9999  "
timeout = "2s"
rate_limit = 5.5
log_level = "DEBUG"
log_file = "  ~/logs/emarket.log  "
poll_interval = "1m"

[store]
backend = "SQLite"
path = "~/data/emarket.db"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 2*time.Second || cfg.PollInterval != time.Minute {
		t.Fatalf("durations = %v/%v", cfg.Timeout, cfg.PollInterval)
	}
	if cfg.RateLimit != 5.5 || cfg.LogLevel != "debug" {
		t.Fatalf("RateLimit/LogLevel = %v/%q", cfg.RateLimit, cfg.LogLevel)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	opts := cfg.StoreOptions()
	if opts.Backend != kvstore.BackendSQLite || opts.Path != filepath.Join(home, "data", "emarket.db") {
		t.Fatalf("store options = %+v", opts)
	}
}

func TestLoad_EnvFileAndEnvironmentOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = \"http://file\"\nlog_level = \"warn\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("EMARKET_API_URL=http://dotenv\nEMARKET_STORE_BACKEND=redis\nEMARKET_REDIS_DB=3\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("EMARKET_API_URL", "http://process")

	cfg, err := Load(path, envFile, filepath.Join(home, "missing.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://process" {
		t.Fatalf("APIURL = %q, want process env to win", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want file value", cfg.LogLevel)
	}
	if cfg.Store.Backend != kvstore.BackendRedis || cfg.Store.RedisDB != 3 {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad timeout":  "timeout = \"soon\"\n",
		"neg interval": "poll_interval = \"-1s\"\n",
		"bad backend":  "[store]\nbackend = \"etcd\"\n",
		"neg rate":     "rate_limit = -1.0\n",
		"bad toml":     "api_url = \n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	t.Setenv("EMARKET_RATE_LIMIT", "fast")
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected error for non-numeric rate limit")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x/y")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("expandPath = %q", got)
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
