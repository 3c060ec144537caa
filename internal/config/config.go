package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/emarket/internal/kvstore"
)

// Config is the resolved emarket configuration.
type Config struct {
	APIURL       string
	Timeout      time.Duration
	RateLimit    float64 // requests per second; 0 disables
	LogLevel     string
	LogFile      string
	PollInterval time.Duration
	Store        StoreConfig
}

// StoreConfig selects the local persistence backend.
type StoreConfig struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string
}

const (
	defaultConfigPath   = "~/.config/emarket/config.toml"
	defaultAPIURL       = "http://localhost:3000"
	defaultTimeout      = 8 * time.Second
	defaultLogLevel     = "info"
	defaultLogFile      = "~/.local/state/emarket/emarket.log"
	defaultPollInterval = 30 * time.Second
	defaultBackend      = kvstore.BackendFile
	defaultRedisAddr    = "localhost:6379"
	defaultNamespace    = "emarket"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EMARKET_"

type rawConfig struct {
	APIURL       string   `toml:"api_url"`
	Timeout      string   `toml:"timeout"`
	RateLimit    float64  `toml:"rate_limit"`
	LogLevel     string   `toml:"log_level"`
	LogFile      string   `toml:"log_file"`
	PollInterval string   `toml:"poll_interval"`
	Store        rawStore `toml:"store"`
}

type rawStore struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Namespace     string `toml:"namespace"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		APIURL:       defaultAPIURL,
		Timeout:      defaultTimeout,
		LogLevel:     defaultLogLevel,
		LogFile:      mustExpand(defaultLogFile),
		PollInterval: defaultPollInterval,
		Store: StoreConfig{
			Backend:   defaultBackend,
			RedisAddr: defaultRedisAddr,
			Namespace: defaultNamespace,
		},
	}
}

// Load reads the TOML file at path (the default location when empty),
// then applies overrides from envFiles and finally from the process
// environment. A missing config file or env file is not an error.
func Load(path string, envFiles ...string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}

	env := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vals {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if err := applyEnv(&raw, env); err != nil {
		return Config{}, err
	}

	return resolve(raw)
}

func readFile(path string) (rawConfig, error) {
	var raw rawConfig
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func applyEnv(raw *rawConfig, env map[string]string) error {
	str := func(name string, dst *string) {
		if v, ok := env[EnvPrefix+name]; ok {
			*dst = v
		}
	}
	str("API_URL", &raw.APIURL)
	str("TIMEOUT", &raw.Timeout)
	str("LOG_LEVEL", &raw.LogLevel)
	str("LOG_FILE", &raw.LogFile)
	str("POLL_INTERVAL", &raw.PollInterval)
	str("STORE_BACKEND", &raw.Store.Backend)
	str("STORE_PATH", &raw.Store.Path)
	str("REDIS_ADDR", &raw.Store.RedisAddr)
	str("REDIS_PASSWORD", &raw.Store.RedisPassword)
	str("STORE_NAMESPACE", &raw.Store.Namespace)

	if v, ok := env[EnvPrefix+"RATE_LIMIT"]; ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("parse %sRATE_LIMIT: %w", EnvPrefix, err)
		}
		raw.RateLimit = f
	}
	if v, ok := env[EnvPrefix+"REDIS_DB"]; ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %sREDIS_DB: %w", EnvPrefix, err)
		}
		raw.Store.RedisDB = n
	}
	return nil
}

func resolve(raw rawConfig) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	var err error
	if cfg.Timeout, err = parseDuration("timeout", raw.Timeout, defaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}
	if raw.RateLimit < 0 {
		return Config{}, fmt.Errorf("rate_limit must not be negative")
	}
	cfg.RateLimit = raw.RateLimit
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Store.Backend)); v != "" {
		cfg.Store.Backend = v
	}
	switch cfg.Store.Backend {
	case kvstore.BackendMemory, kvstore.BackendFile, kvstore.BackendRedis, kvstore.BackendSQLite:
	default:
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if v := strings.TrimSpace(raw.Store.Path); v != "" {
		cfg.Store.Path = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Store.RedisAddr); v != "" {
		cfg.Store.RedisAddr = v
	}
	cfg.Store.RedisPassword = raw.Store.RedisPassword
	cfg.Store.RedisDB = raw.Store.RedisDB
	if v := strings.TrimSpace(raw.Store.Namespace); v != "" {
		cfg.Store.Namespace = v
	}
	return cfg, nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

// StoreOptions maps the store section onto kvstore.Options.
func (c Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Backend:       c.Store.Backend,
		Path:          c.Store.Path,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		Namespace:     c.Store.Namespace,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
