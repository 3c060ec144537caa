package kvstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultFilePath = "~/.local/share/emarket/store.toml"

// File persists every entry in a single TOML document. Each write
// rewrites the whole document through a temp file and rename.
type File struct {
	path string

	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

type fileDocument struct {
	Entries map[string]string `toml:"entries"`
}

// OpenFile loads (or prepares) the store at path. An empty path uses
// ~/.local/share/emarket/store.toml.
func OpenFile(path string) (*File, error) {
	resolved, err := resolvePath(path, defaultFilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}
	f := &File{path: resolved, data: make(map[string]string)}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	var doc fileDocument
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		return nil, fmt.Errorf("parse store: %w", err)
	}
	if doc.Entries != nil {
		f.data = doc.Entries
	}
	return f, nil
}

// Path returns the resolved document location.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	return f.mutate(func(m map[string]string) { m[key] = value })
}

func (f *File) Remove(_ context.Context, key string) error {
	return f.mutate(func(m map[string]string) { delete(m, key) })
}

func (f *File) MultiGet(_ context.Context, keys []string) (map[string]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *File) MultiSet(_ context.Context, entries map[string]string) error {
	return f.mutate(func(m map[string]string) { maps.Copy(m, entries) })
}

func (f *File) MultiRemove(_ context.Context, keys []string) error {
	return f.mutate(func(m map[string]string) {
		for _, k := range keys {
			delete(m, k)
		}
	})
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// mutate applies fn to a copy of the data and only swaps it in once the
// document is on disk, so a failed write leaves memory and file in sync.
func (f *File) mutate(fn func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	next := maps.Clone(f.data)
	if next == nil {
		next = make(map[string]string)
	}
	fn(next)
	if err := f.write(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *File) write(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	bytes, err := toml.Marshal(fileDocument{Entries: data})
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func resolvePath(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(fallback)
	}
	return expandPath(path)
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
