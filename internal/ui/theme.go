package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/prefs"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	// Base colors
	Background string
	Surface    string
	SurfaceAlt string

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Listing status badge colors
	StatusColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Surface: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SurfaceAlt)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.SelectionText)).
			Background(lipgloss.Color(t.SelectionBg)).
			Bold(true).
			Padding(0, 1),

		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),

		FocusPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderFocus)).
			Padding(0, 1),

		statusColors: t.StatusColors,
		badgeText:    t.Background,
		muted:        t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Surface lipgloss.Style

	// Text
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	// Components
	Header      lipgloss.Style
	Footer      lipgloss.Style
	Logo        lipgloss.Style
	Selected    lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Panel       lipgloss.Style
	FocusPanel  lipgloss.Style

	statusColors map[string]string
	badgeText    string
	muted        string
}

// StatusStyle returns a badge style for a listing status.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeText)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// ThemeFor maps a stored theme preference onto a palette.
func ThemeFor(name string) Theme {
	if name == prefs.ThemeDark {
		return darkTheme()
	}
	return lightTheme()
}

func lightTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: prefs.ThemeLight,

		Background: "#f8fafc", // slate-50
		Surface:    "#f1f5f9", // slate-100
		SurfaceAlt: "#e2e8f0", // slate-200

		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50

		Border:      "#cbd5e1", // slate-300
		BorderFocus: "#0284c7", // sky-600

		Text:    "#0f172a", // slate-900
		Muted:   "#475569", // slate-600
		Faint:   "#94a3b8", // slate-400
		Accent:  "#0284c7", // sky-600
		Success: "#16a34a", // green-600
		Warning: "#d97706", // amber-600
		Danger:  "#dc2626", // red-600
		Info:    "#0891b2", // cyan-600

		StatusColors: map[string]string{
			market.ProductActive: "#16a34a",
			market.ProductSold:   "#64748b",
		},
	}
}

func darkTheme() Theme {
	// Dracula palette.
	return Theme{
		Name: prefs.ThemeDark,

		Background: "#191A21", // BGDarker
		Surface:    "#282A36", // Background
		SurfaceAlt: "#21222C", // BGDark

		SelectionBg:   "#44475A", // Selection
		SelectionText: "#F8F8F2", // Foreground

		Border:      "#44475A",
		BorderFocus: "#BD93F9", // Purple

		Text:    "#F8F8F2",
		Muted:   "#6272A4", // Comment
		Faint:   "#44475A",
		Accent:  "#BD93F9",
		Success: "#50FA7B",
		Warning: "#FFB86C",
		Danger:  "#FF5555",
		Info:    "#8BE9FD",

		StatusColors: map[string]string{
			market.ProductActive: "#50FA7B",
			market.ProductSold:   "#6272A4",
		},
	}
}
