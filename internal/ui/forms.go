package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/emarket/internal/market"
)

type formKind int

const (
	formLogin formKind = iota
	formAddress
	formSearch
	formPassword
)

// form is a modal stack of text inputs. While one is open it receives
// every key except ctrl+c.
type form struct {
	kind   formKind
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
	editID market.ID // address being edited; empty creates
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	return ti
}

func newLoginForm() *form {
	email := newInput("you@example.com", 120)
	password := newInput("at least 6 characters", 64)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	f := &form{
		kind:   formLogin,
		title:  "Sign in",
		labels: []string{"Email", "Password"},
		inputs: []textinput.Model{email, password},
	}
	f.inputs[0].Focus()
	return f
}

var addressLabels = []string{"Label", "Street", "Number", "Complement", "District", "City", "State", "Zip"}

// newAddressForm opens an empty form, or one prefilled from existing when
// editing.
func newAddressForm(existing *market.Address) *form {
	f := &form{
		kind:   formAddress,
		title:  "New address",
		labels: addressLabels,
		inputs: make([]textinput.Model, len(addressLabels)),
	}
	placeholders := []string{"home | work | other", "", "", "optional", "", "", "UF", "00000-000"}
	for i := range f.inputs {
		f.inputs[i] = newInput(placeholders[i], 120)
	}
	f.inputs[0].SetValue(market.LabelHome)

	if existing != nil {
		f.title = "Edit address"
		f.editID = existing.ID
		values := []string{
			existing.Label, existing.Street, existing.Number, existing.Complement,
			existing.District, existing.City, existing.State, existing.Zip,
		}
		for i, v := range values {
			f.inputs[i].SetValue(v)
		}
	}
	f.inputs[0].Focus()
	return f
}

func newSearchForm(query string) *form {
	in := newInput("title contains...", 80)
	in.SetValue(query)
	in.Focus()
	return &form{
		kind:   formSearch,
		title:  "Search listings",
		labels: []string{"Title"},
		inputs: []textinput.Model{in},
	}
}

func newPasswordForm() *form {
	f := &form{
		kind:   formPassword,
		title:  "Change password",
		labels: []string{"New password", "Confirm"},
	}
	for range 2 {
		in := newInput("at least 6 characters", 64)
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
		f.inputs = append(f.inputs, in)
	}
	f.inputs[0].Focus()
	return f
}

func (f *form) passwordChange() market.PasswordChange {
	return market.PasswordChange{Password: f.inputs[0].Value(), Confirm: f.inputs[1].Value()}
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) credentials() market.Credentials {
	return market.Credentials{
		Email:    strings.ToLower(f.value(0)),
		Password: f.inputs[1].Value(),
	}
}

func (f *form) address() market.Address {
	return market.Address{
		Label:      strings.ToLower(f.value(0)),
		Street:     f.value(1),
		Number:     f.value(2),
		Complement: f.value(3),
		District:   f.value(4),
		City:       f.value(5),
		State:      strings.ToUpper(f.value(6)),
		Zip:        f.value(7),
	}
}

func (f *form) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view(styles Styles, width int) string {
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n\n")

	labelWidth := 0
	for _, l := range f.labels {
		labelWidth = max(labelWidth, len(l))
	}
	for i, in := range f.inputs {
		label := padRight(f.labels[i], labelWidth+2)
		if i == f.focus {
			b.WriteString(styles.AccentText.Render(label))
		} else {
			b.WriteString(styles.MutedText.Render(label))
		}
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter submit · tab next field · esc cancel"))

	return styles.FocusPanel.Width(min(max(width-4, 30), 64)).Render(b.String())
}

func centered(width, height int, content string) string {
	if width <= 0 || height <= 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
