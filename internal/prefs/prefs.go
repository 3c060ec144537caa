// Package prefs handles emarket user preferences persistence.
// Preferences live in the same key/value store as the session.
package prefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/emarket/internal/kvstore"
)

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ThemeKey is the storage key of the theme preference.
const ThemeKey = "@theme"

const defaultTheme = ThemeLight

// Prefs holds user preferences for emarket.
type Prefs struct {
	Theme string
}

// Load reads preferences from s, falling back to defaults when missing or
// unreadable.
func Load(ctx context.Context, s kvstore.Store) Prefs {
	prefs := Prefs{Theme: defaultTheme}
	if s == nil {
		return prefs
	}
	raw, ok, err := s.Get(ctx, ThemeKey)
	if err != nil || !ok {
		return prefs // Graceful degradation
	}
	prefs.Theme = normalizeTheme(raw)
	return prefs
}

// Save writes preferences to s.
func Save(ctx context.Context, s kvstore.Store, p Prefs) error {
	if s == nil {
		return fmt.Errorf("no preference store")
	}
	if err := s.Set(ctx, ThemeKey, normalizeTheme(p.Theme)); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Toggled returns p with the other theme selected.
func (p Prefs) Toggled() Prefs {
	if normalizeTheme(p.Theme) == ThemeDark {
		return Prefs{Theme: ThemeLight}
	}
	return Prefs{Theme: ThemeDark}
}

func normalizeTheme(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		return ThemeDark
	default:
		return defaultTheme
	}
}
