package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/state"
)

// renderHeader renders the status bar: logo, user, sync state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	surface := lipgloss.Color(m.theme.Surface)
	on := func(s lipgloss.Style) lipgloss.Style { return s.Background(surface) }
	sep := on(styles.Text).Render("  ")

	parts := []string{on(styles.Logo).Render("emarket")}

	if user, ok := state.CurrentUser(m.snapshot); ok {
		parts = append(parts, on(styles.Text).Render(user.Name))
	} else {
		parts = append(parts, on(styles.MutedText).Render("guest"))
	}

	sync := m.snapshot.Sync
	switch {
	case sync.IsOffline():
		parts = append(parts, on(styles.DangerText).Render("OFFLINE"),
			on(styles.MutedText).Render(truncate(sync.LastError, 48)))
	case sync.LastError != "":
		parts = append(parts, on(styles.WarningText).Render("retrying"))
	case !sync.LastUpdated.IsZero():
		parts = append(parts, on(styles.FaintText).Render("synced "+humanizeDuration(m.now.Sub(sync.LastUpdated))+" ago"))
	}

	if m.snapshot.Addresses.Mode == market.ModeLocal {
		parts = append(parts, on(styles.InfoText).Render("addresses on this device"))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := tabNames[t]
		switch t {
		case TabFavorites:
			if n := m.rowCount(t); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		case TabAddresses:
			label = fmt.Sprintf("%s %d/%d", label, len(m.snapshot.Addresses.Items), market.MaxAddresses)
		}
		if t == m.tab {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderContent renders the body for the active tab.
func (m Model) renderContent(height int) string {
	styles := m.theme.Styles()
	if m.tab.needsLogin() && !state.IsLoggedIn(m.snapshot) {
		msg := styles.MutedText.Render("Sign in to see your " + strings.ToLower(tabNames[m.tab]) + ".")
		hint := styles.AccentText.Render("Press L or enter to sign in.")
		return centered(m.width, height, msg+"\n"+hint)
	}

	var body string
	switch m.tab {
	case TabMarket:
		body = m.renderListings(TabMarket, "No listings yet.")
		if m.query != "" {
			body = styles.InfoText.Render(fmt.Sprintf("Results for %q (esc clears)", m.query)) + "\n" + body
		}
	case TabFavorites:
		body = m.renderListings(TabFavorites, "Nothing saved. Press f on a listing to save it.")
	case TabAddresses:
		body = m.renderAddresses()
	case TabAccount:
		body = m.renderAccount()
	}

	if m.showDetail && m.snapshot.Products.Detail != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.renderDetail(*m.snapshot.Products.Detail))
	}
	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(body)
}

func (m Model) renderListings(t Tab, empty string) string {
	styles := m.theme.Styles()
	rows := m.listings(t)
	if len(rows) == 0 {
		if m.snapshot.Products.Loading() {
			return styles.MutedText.Render(m.spinner.View() + " loading listings")
		}
		return styles.MutedText.Render(empty)
	}

	user, loggedIn := state.CurrentUser(m.snapshot)
	titleWidth := max(m.width-48, 16)

	var b strings.Builder
	for i, p := range rows {
		mark := " "
		if loggedIn && state.IsFavorite(m.snapshot, user.ID, p.ID) {
			mark = "★"
		}
		line := fmt.Sprintf("%s %s %14s  %-12s",
			mark,
			padRight(truncate(p.Title, titleWidth), titleWidth),
			formatPrice(p.Price),
			truncate(p.Category, 12),
		)
		if i == m.cursor[t] {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString(" ")
		b.WriteString(styles.StatusStyle(statusOf(p)).Render(statusOf(p)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusOf(p market.Product) string {
	if p.Status == "" {
		return market.ProductActive
	}
	return p.Status
}

func (m Model) renderDetail(p market.Product) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.Title))
	b.WriteString("  ")
	b.WriteString(styles.SuccessText.Render(formatPrice(p.Price)))
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.MutedText.Render(padRight(label, 12)))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}
	field("Category", p.Category)
	field("Condition", p.Condition)
	if p.IsVehicle() {
		field("Brand", p.Brand)
		field("Model", p.Model)
		if p.Year > 0 {
			field("Year", fmt.Sprint(p.Year))
		}
		if p.Mileage > 0 {
			field("Mileage", fmt.Sprintf("%d km", p.Mileage))
		}
	}
	if t := p.ParsedCreatedAt(); !t.IsZero() {
		field("Listed", t.Local().Format("02/01/2006"))
	}
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(p.Description))
	}
	return styles.Panel.Width(min(max(m.width-4, 30), 80)).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderAddresses() string {
	styles := m.theme.Styles()
	items := m.snapshot.Addresses.Items
	if len(items) == 0 {
		if m.snapshot.Addresses.Loading() {
			return styles.MutedText.Render(m.spinner.View() + " loading addresses")
		}
		return styles.MutedText.Render("No addresses saved. Press a to add one.")
	}

	var b strings.Builder
	for i, a := range items {
		primary := ternary(a.IsPrimary, "● primary", "")
		line := fmt.Sprintf("%-6s %s, %s%s · %s/%s %s",
			a.Label, a.Street, a.Number,
			ternary(a.Complement != "", " "+a.Complement, ""),
			a.City, a.State, a.Zip,
		)
		if i == m.cursor[TabAddresses] {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		if primary != "" {
			b.WriteString(" ")
			b.WriteString(styles.SuccessText.Render(primary))
		}
		b.WriteString("\n")
	}
	if !state.CanAddAddress(m.snapshot) {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("Address limit reached (%d).", market.MaxAddresses)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderAccount() string {
	styles := m.theme.Styles()
	user, _ := state.CurrentUser(m.snapshot)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(user.Name))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(user.Email))
	b.WriteString("\n")
	if a, ok := state.PrimaryAddress(m.snapshot); ok {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("Ships to %s, %s · %s/%s", a.Street, a.Number, a.City, a.State)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("My listings"))
	b.WriteString("\n")
	b.WriteString(m.renderListings(TabAccount, "You have not listed anything yet."))
	return b.String()
}

// renderFooter shows the last operation outcome or the key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var text string
	switch {
	case m.pending > 0:
		text = m.spinner.View() + " working..."
	case m.flash != "" && m.flashErr:
		text = styles.DangerText.Background(lipgloss.Color(m.theme.SurfaceAlt)).Render(m.flash)
	case m.flash != "":
		text = m.flash
	default:
		text = m.hints()
	}
	return styles.Footer.Width(m.width).Render(text)
}

func (m Model) hints() string {
	common := "tab switch · r refresh · T theme · ? help · q quit"
	if !state.IsLoggedIn(m.snapshot) {
		return "L sign in · " + common
	}
	switch m.tab {
	case TabMarket:
		return "enter details · f favorite · / search · " + common
	case TabFavorites:
		return "enter details · f remove · " + common
	case TabAddresses:
		return "a add · e edit · d delete · p primary · " + common
	case TabAccount:
		return "s sold/active · P password · O sign out · " + common
	}
	return common
}
