package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	ToggleTheme key.Binding
	Tab         key.Binding
	ShiftTab    key.Binding
	Escape      key.Binding
	Refresh     key.Binding
	Login       key.Binding
	Logout      key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Listings
	Open           key.Binding
	Search         key.Binding
	ToggleFavorite key.Binding
	ToggleSold     key.Binding

	// Account
	ChangePassword key.Binding

	// Addresses
	NewAddress  key.Binding
	EditAddress key.Binding
	Delete      key.Binding
	SetPrimary  key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Light/dark theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next tab"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous tab"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / clear search"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Sign in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Sign out"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Listing details"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search by title"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle favorite"),
		),
		ToggleSold: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Mark sold / active"),
		),

		ChangePassword: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Change password"),
		),

		NewAddress: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add address"),
		),
		EditAddress: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit address"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "Delete"),
		),
		SetPrimary: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Make primary"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Submit"),
		),
	}
}
