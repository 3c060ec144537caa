// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options select the sink and level.
type Options struct {
	Level string
	// File receives JSON lines when set. Otherwise Console is used with a
	// human-readable writer.
	File    string
	Console io.Writer
}

// New returns a logger and a closer for its sink. The closer is a no-op
// for console output.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if strings.TrimSpace(opts.File) != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return logger, f, nil
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	logger := zerolog.New(console).Level(level).With().Timestamp().Logger()
	return logger, nopCloser{}, nil
}

// ParseLevel maps a config level name onto zerolog. Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
