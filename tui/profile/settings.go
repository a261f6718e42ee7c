package profile

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

type settingsItem struct {
	label string
	hint  string
	run   func() tea.Cmd
}

// Settings lists account actions.
type Settings struct {
	ctx        screen.Context
	items      []settingsItem
	cursor     int
	confirming bool
	keys       common.KeyMap
}

func NewSettings(ctx screen.Context) Settings {
	return Settings{
		ctx: ctx,
		items: []settingsItem{
			{"Edit profile", "username, display name and bio", func() tea.Cmd { return screen.Navigate(nav.EditProfile, nil) }},
			{"Sign out", "clears the stored session and exits", nil},
		},
		keys: common.DefaultKeyMap(),
	}
}

func (m Settings) Init() tea.Cmd { return nil }

func (m Settings) Title() string { return "Settings" }

func (m Settings) Typing() bool { return m.confirming }

func (m Settings) Close() {}

func (m Settings) Keys() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Open}
}

func (m Settings) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.confirming {
		switch {
		case key.Matches(k, m.keys.Confirm):
			m.confirming = false
			return m, screen.Emit(screen.SignOutMsg{})
		case key.Matches(k, m.keys.Cancel):
			m.confirming = false
		}
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(k, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(k, m.keys.Open):
		if it := m.items[m.cursor]; it.run != nil {
			return m, it.run()
		}
		m.confirming = true
	}
	return m, nil
}

func (m Settings) View() string {
	var b strings.Builder
	b.WriteString(common.MutedStyle.Render("Signed in as "+common.Sanitize(m.ctx.Session.Email, false)) + "\n\n")
	for i, it := range m.items {
		if i == m.cursor {
			b.WriteString(common.CursorStyle.Render("› "+it.label) + "  " + common.MutedStyle.Render(it.hint) + "\n")
		} else {
			b.WriteString("  " + it.label + "\n")
		}
	}
	if m.confirming {
		b.WriteString("\n" + common.ConfirmStyle.Render("Sign out? y/n"))
	}
	return strings.TrimRight(b.String(), "\n")
}
