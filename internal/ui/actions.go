package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/emarket/internal/api"
	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/prefs"
	"github.com/five82/emarket/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.State

type changedMsg struct{}

// opResultMsg reports a finished dispatcher operation. note is shown in
// the footer on success.
type opResultMsg struct {
	op   string
	note string
	err  error
}

// Operation names routed back through opResultMsg.
const (
	opLoad          = "load"
	opLogin         = "login"
	opLogout        = "logout"
	opSearch        = "search"
	opOpen          = "open"
	opFavorite      = "favorite"
	opToggleSold    = "toggle_sold"
	opSaveAddress   = "save_address"
	opRemoveAddress = "remove_address"
	opSetPrimary    = "set_primary"
	opTheme         = "theme"
	opPassword      = "password"
)

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForChange blocks until the store signals a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) perform(op string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		note, err := fn(ctx)
		return opResultMsg{op: op, note: note, err: err}
	}
}

// loadCmd fetches the feed and, when signed in, the user's collections.
func (m Model) loadCmd() tea.Cmd {
	d := m.dispatcher
	return m.perform(opLoad, func(ctx context.Context) (string, error) {
		if _, err := d.FetchProducts(ctx); err != nil {
			return "", err
		}
		if user, ok := state.CurrentUser(d.Store().Snapshot()); ok {
			if err := loadAccount(ctx, d, user.ID); err != nil {
				return "", err
			}
		}
		return "", nil
	})
}

func loadAccount(ctx context.Context, d *state.Dispatcher, userID market.ID) error {
	if _, err := d.FetchFavorites(ctx, userID); err != nil {
		return err
	}
	if _, err := d.FetchAddresses(ctx, userID); err != nil {
		return err
	}
	_, err := d.FetchProductsByOwner(ctx, userID)
	return err
}

func (m Model) loginCmd(creds market.Credentials) tea.Cmd {
	d := m.dispatcher
	return m.perform(opLogin, func(ctx context.Context) (string, error) {
		sess, err := d.Login(ctx, creds)
		if err != nil {
			return "", err
		}
		if err := loadAccount(ctx, d, sess.User.ID); err != nil {
			return "", err
		}
		return "Signed in as " + sess.User.Name, nil
	})
}

func (m Model) logoutCmd() tea.Cmd {
	d := m.dispatcher
	return m.perform(opLogout, func(ctx context.Context) (string, error) {
		return "Signed out", d.Logout(ctx)
	})
}

func (m Model) searchCmd(query string) tea.Cmd {
	d := m.dispatcher
	return m.perform(opSearch, func(ctx context.Context) (string, error) {
		items, err := d.SearchProducts(ctx, query)
		if err != nil {
			return "", err
		}
		if query == "" {
			return "", nil
		}
		return fmt.Sprintf("%d listing(s) match %q", len(items), query), nil
	})
}

func (m Model) openCmd(id market.ID) tea.Cmd {
	d := m.dispatcher
	return m.perform(opOpen, func(ctx context.Context) (string, error) {
		_, err := d.FetchProduct(ctx, id)
		return "", err
	})
}

func (m Model) toggleFavoriteCmd(userID market.ID, p market.Product) tea.Cmd {
	d := m.dispatcher
	return m.perform(opFavorite, func(ctx context.Context) (string, error) {
		on, err := d.ToggleFavorite(ctx, userID, p.ID)
		if err != nil {
			return "", err
		}
		return ternary(on, "Saved ", "Removed ") + p.Title, nil
	})
}

func (m Model) toggleSoldCmd(id market.ID) tea.Cmd {
	d := m.dispatcher
	return m.perform(opToggleSold, func(ctx context.Context) (string, error) {
		p, err := d.ToggleProductStatus(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now %s", p.Title, p.Status), nil
	})
}

func (m Model) saveAddressCmd(userID, editID market.ID, addr market.Address) tea.Cmd {
	d := m.dispatcher
	return m.perform(opSaveAddress, func(ctx context.Context) (string, error) {
		if editID != "" {
			_, err := d.UpdateAddress(ctx, userID, editID, addr)
			return "Address updated", err
		}
		_, err := d.CreateAddress(ctx, userID, addr)
		return "Address added", err
	})
}

func (m Model) removeAddressCmd(userID, id market.ID) tea.Cmd {
	d := m.dispatcher
	return m.perform(opRemoveAddress, func(ctx context.Context) (string, error) {
		_, err := d.RemoveAddress(ctx, userID, id)
		return "Address removed", err
	})
}

func (m Model) setPrimaryCmd(userID, id market.ID) tea.Cmd {
	d := m.dispatcher
	return m.perform(opSetPrimary, func(ctx context.Context) (string, error) {
		_, err := d.SetPrimaryAddress(ctx, userID, id)
		return "Primary address changed", err
	})
}

func (m Model) changePasswordCmd(change market.PasswordChange) tea.Cmd {
	d := m.dispatcher
	return m.perform(opPassword, func(ctx context.Context) (string, error) {
		return "Password changed", d.ChangePassword(ctx, change)
	})
}

func (m Model) saveThemeCmd(p prefs.Prefs) tea.Cmd {
	store := m.prefsStore
	if store == nil {
		return nil
	}
	return m.perform(opTheme, func(ctx context.Context) (string, error) {
		return "", prefs.Save(ctx, store, p)
	})
}

// describeError turns an operation error into a footer message.
func describeError(err error) string {
	var se *api.StatusError
	switch {
	case errors.Is(err, market.ErrAddressLimit):
		return fmt.Sprintf("You can save at most %d addresses", market.MaxAddresses)
	case errors.Is(err, state.ErrNotLoggedIn):
		return "Sign in first (L)"
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer"
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	default:
		return err.Error()
	}
}
