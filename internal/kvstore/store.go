package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store is a string key/value persistence adapter. Structured values are
// JSON-encoded by the caller (see GetJSON and SetJSON).
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// MultiGet returns the present keys only.
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)
	MultiSet(ctx context.Context, entries map[string]string) error
	MultiRemove(ctx context.Context, keys []string) error
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kvstore: closed")

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Options select and configure a backend.
type Options struct {
	Backend       string
	Path          string // file and sqlite backends
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string // redis key prefix
}

// Open builds the backend named by opts.Backend. An empty backend means
// the file store.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		s, err = OpenFile(opts.Path)
	case BackendMemory:
		s = NewMemory()
	case BackendRedis:
		s, err = OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.Namespace)
	case BackendSQLite:
		s, err = OpenSQLite(opts.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetJSON decodes the value at key into dest. It reports false when the
// key is absent; dest is left untouched in that case.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value at key as JSON.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}
