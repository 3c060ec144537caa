package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/prefs"
	"github.com/five82/emarket/internal/state"
)

// Tab is one of the top-level screens.
type Tab int

const (
	TabMarket Tab = iota
	TabFavorites
	TabAddresses
	TabAccount
	tabCount
)

var tabNames = [tabCount]string{"Marketplace", "Favorites", "Addresses", "Account"}

// needsLogin reports whether the tab shows per-user data.
func (t Tab) needsLogin() bool { return t != TabMarket }

// Options configures the UI.
type Options struct {
	Context    context.Context
	Dispatcher *state.Dispatcher
	Prefs      prefs.Prefs
	PrefsStore kvstore.Store // theme changes are saved here when set
	PollTick   time.Duration
	Log        zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	dispatcher *state.Dispatcher
	prefsStore kvstore.Store
	prefs      prefs.Prefs
	pollTick   time.Duration
	log        zerolog.Logger
	updates    <-chan struct{}

	// UI state
	theme    Theme
	keys     keyMap
	spinner  spinner.Model
	tab      Tab
	width    int
	height   int
	ready    bool
	showHelp bool
	form     *form

	// Data state
	snapshot state.State
	now      time.Time

	cursor     [tabCount]int
	query      string
	showDetail bool
	pending    int
	flash      string
	flashErr   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 || pollTick > time.Second {
		pollTick = time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		ctx:        ctx,
		dispatcher: opts.Dispatcher,
		prefsStore: opts.PrefsStore,
		prefs:      opts.Prefs,
		pollTick:   pollTick,
		log:        opts.Log,
		theme:      ThemeFor(opts.Prefs.Theme),
		keys:       DefaultKeyMap(),
		spinner:    sp,
		now:        time.Now(),
	}
	if m.dispatcher != nil {
		m.snapshot = m.dispatcher.Store().Snapshot()
	}
	return m
}

func (m Model) store() *state.Store {
	if m.dispatcher == nil {
		return nil
	}
	return m.dispatcher.Store()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if store := m.store(); store != nil {
		cmds = append(cmds, fetchSnapshotCmd(store), waitForChange(m.updates), m.loadCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd(m.pollTick)

	case changedMsg:
		cmds := []tea.Cmd{waitForChange(m.updates)}
		if store := m.store(); store != nil {
			cmds = append(cmds, fetchSnapshotCmd(store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.setSnapshot(state.State(msg))
		return m, nil

	case opResultMsg:
		return m.handleResult(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

// setSnapshot swaps in a new state tree and keeps cursors in range.
func (m *Model) setSnapshot(s state.State) {
	wasLoggedIn := state.IsLoggedIn(m.snapshot)
	m.snapshot = s
	if wasLoggedIn && !state.IsLoggedIn(s) {
		m.showDetail = false
	}
	for t := Tab(0); t < tabCount; t++ {
		n := m.rowCount(t)
		if m.cursor[t] >= n {
			m.cursor[t] = max(n-1, 0)
		}
	}
}

func (m Model) handleResult(msg opResultMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	var cmd tea.Cmd
	if store := m.store(); store != nil {
		cmd = fetchSnapshotCmd(store)
	}

	if msg.err != nil {
		m.log.Debug().Err(msg.err).Str("op", msg.op).Msg("ui operation failed")
		text := describeError(msg.err)
		if m.form != nil && formFor(msg.op) == m.form.kind {
			m.form.err = text
			return m, cmd
		}
		m.flash, m.flashErr = text, true
		return m, cmd
	}

	if m.form != nil && formFor(msg.op) == m.form.kind {
		m.form = nil
	}
	if msg.note != "" || msg.op == opSearch {
		m.flash, m.flashErr = msg.note, false
	}
	if msg.op == opOpen {
		m.showDetail = true
	}
	return m, cmd
}

func formFor(op string) formKind {
	switch op {
	case opLogin:
		return formLogin
	case opSaveAddress:
		return formAddress
	case opSearch:
		return formSearch
	case opPassword:
		return formPassword
	default:
		return -1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	bodyHeight := max(m.height-5, 3)
	if m.form != nil {
		b.WriteString(centered(m.width, bodyHeight, m.form.view(m.theme.Styles(), m.width)))
	} else {
		b.WriteString(m.renderContent(bodyHeight))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// busy increments the in-flight counter for a dispatched command.
func (m *Model) busy(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	m.pending++
	return cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleTheme):
		m.prefs = m.prefs.Toggled()
		m.theme = ThemeFor(m.prefs.Theme)
		cmd := m.busy(m.saveThemeCmd(m.prefs))
		return m, cmd

	case key.Matches(msg, m.keys.Tab):
		m.switchTab((m.tab + 1) % tabCount)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.switchTab((m.tab + tabCount - 1) % tabCount)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		switch {
		case m.showDetail:
			m.showDetail = false
		case m.query != "":
			m.query = ""
			cmd := m.busy(m.searchCmd(""))
			return m, cmd
		}
		m.flash = ""
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.busy(m.loadCmd())
		return m, cmd

	case key.Matches(msg, m.keys.Login):
		if !state.IsLoggedIn(m.snapshot) {
			m.form = newLoginForm()
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if state.IsLoggedIn(m.snapshot) {
			cmd := m.busy(m.logoutCmd())
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor[m.tab] = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursor[m.tab] = max(m.rowCount(m.tab)-1, 0)
		return m, nil
	}

	if m.tab.needsLogin() && !state.IsLoggedIn(m.snapshot) {
		if key.Matches(msg, m.keys.Open) {
			m.form = newLoginForm()
		}
		return m, nil
	}

	switch m.tab {
	case TabMarket, TabFavorites:
		return m.handleListingKey(msg)
	case TabAddresses:
		return m.handleAddressKey(msg)
	case TabAccount:
		return m.handleAccountKey(msg)
	}
	return m, nil
}

func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.showDetail = false
}

func (m *Model) moveCursor(delta int) {
	n := m.rowCount(m.tab)
	if n == 0 {
		m.cursor[m.tab] = 0
		return
	}
	m.cursor[m.tab] = min(max(m.cursor[m.tab]+delta, 0), n-1)
	m.showDetail = false
}

func (m Model) handleListingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		if m.tab == TabMarket {
			m.form = newSearchForm(m.query)
		}
		return m, nil
	}

	p, ok := m.selectedListing()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Open):
		cmd := m.busy(m.openCmd(p.ID))
		return m, cmd
	case key.Matches(msg, m.keys.ToggleFavorite):
		user, ok := state.CurrentUser(m.snapshot)
		if !ok {
			m.flash, m.flashErr = describeError(state.ErrNotLoggedIn), true
			return m, nil
		}
		cmd := m.busy(m.toggleFavoriteCmd(user.ID, p))
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAddressKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	user, _ := state.CurrentUser(m.snapshot)

	if key.Matches(msg, m.keys.NewAddress) {
		if !state.CanAddAddress(m.snapshot) {
			m.flash, m.flashErr = describeError(market.ErrAddressLimit), true
			return m, nil
		}
		m.form = newAddressForm(nil)
		return m, nil
	}

	a, ok := m.selectedAddress()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.EditAddress), key.Matches(msg, m.keys.Open):
		m.form = newAddressForm(&a)
	case key.Matches(msg, m.keys.Delete):
		cmd := m.busy(m.removeAddressCmd(user.ID, a.ID))
		return m, cmd
	case key.Matches(msg, m.keys.SetPrimary):
		if a.IsPrimary {
			return m, nil
		}
		cmd := m.busy(m.setPrimaryCmd(user.ID, a.ID))
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ChangePassword) {
		m.form = newPasswordForm()
		return m, nil
	}
	p, ok := m.selectedListing()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.ToggleSold):
		cmd := m.busy(m.toggleSoldCmd(p.ID))
		return m, cmd
	case key.Matches(msg, m.keys.Open):
		cmd := m.busy(m.openCmd(p.ID))
		return m, cmd
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case key.Matches(msg, m.keys.NextField):
		f.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.move(-1)
		return m, nil
	}
	return m, f.update(msg)
}

// submitForm validates the open form and dispatches it. Invalid input is
// reported inline without any I/O.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	f.err = ""
	switch f.kind {
	case formLogin:
		creds := f.credentials()
		if err := market.Validate(creds); err != nil {
			f.err = err.Error()
			return m, nil
		}
		cmd := m.busy(m.loginCmd(creds))
		return m, cmd

	case formAddress:
		user, ok := state.CurrentUser(m.snapshot)
		if !ok {
			f.err = describeError(state.ErrNotLoggedIn)
			return m, nil
		}
		addr := f.address()
		if err := market.Validate(addr); err != nil {
			f.err = err.Error()
			return m, nil
		}
		if f.editID == "" && !state.CanAddAddress(m.snapshot) {
			f.err = describeError(market.ErrAddressLimit)
			return m, nil
		}
		cmd := m.busy(m.saveAddressCmd(user.ID, f.editID, addr))
		return m, cmd

	case formPassword:
		change := f.passwordChange()
		if err := market.Validate(change); err != nil {
			f.err = err.Error()
			return m, nil
		}
		cmd := m.busy(m.changePasswordCmd(change))
		return m, cmd

	case formSearch:
		m.query = f.value(0)
		m.cursor[TabMarket] = 0
		cmd := m.busy(m.searchCmd(m.query))
		return m, cmd
	}
	return m, nil
}

// Selection helpers

// listings returns the rows of a listing tab. The market feed is also
// filtered locally so a background refresh does not drop an active search.
func (m Model) listings(t Tab) []market.Product {
	switch t {
	case TabMarket:
		if m.query == "" {
			return m.snapshot.Products.Items
		}
		q := strings.ToLower(m.query)
		var out []market.Product
		for _, p := range m.snapshot.Products.Items {
			if strings.Contains(strings.ToLower(p.Title), q) {
				out = append(out, p)
			}
		}
		return out
	case TabFavorites:
		user, ok := state.CurrentUser(m.snapshot)
		if !ok {
			return nil
		}
		return state.FavoriteProducts(m.snapshot, user.ID)
	case TabAccount:
		return m.snapshot.Products.Owned
	}
	return nil
}

func (m Model) rowCount(t Tab) int {
	if t == TabAddresses {
		return len(m.snapshot.Addresses.Items)
	}
	return len(m.listings(t))
}

func (m Model) selectedListing() (market.Product, bool) {
	rows := m.listings(m.tab)
	i := m.cursor[m.tab]
	if i < 0 || i >= len(rows) {
		return market.Product{}, false
	}
	return rows[i], true
}

func (m Model) selectedAddress() (market.Address, bool) {
	rows := m.snapshot.Addresses.Items
	i := m.cursor[TabAddresses]
	if i < 0 || i >= len(rows) {
		return market.Address{}, false
	}
	return rows[i], true
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Dispatcher == nil {
		return errors.New("ui requires a dispatcher")
	}
	m := New(opts)
	updates, cancel := opts.Dispatcher.Store().Subscribe()
	defer cancel()
	m.updates = updates

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
