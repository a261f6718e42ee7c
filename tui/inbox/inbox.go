// Package inbox renders direct messages: the conversation list and a live
// thread.
package inbox

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

type conversationsMsg struct {
	Conversations []domain.ConversationView
	Err           error
}

// Model is the conversation list.
type Model struct {
	ctx     screen.Context
	convs   []domain.ConversationView
	loaded  bool
	err     error
	cursor  int
	keys    common.KeyMap
	spinner spinner.Model
}

func New(ctx screen.Context) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#E1306C"))
	return Model{ctx: ctx, keys: common.DefaultKeyMap(), spinner: s}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	social := m.ctx.Social
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		convs, err := social.Conversations(ctx)
		return conversationsMsg{Conversations: convs, Err: err}
	})
}

func (m Model) Title() string { return "Inbox" }

func (m Model) Typing() bool { return false }

func (m Model) Close() {}

func (m Model) Keys() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Refresh}
}

func (m Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loaded || m.err != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversationsMsg:
		if msg.Err != nil {
			m.err = msg.Err
			glog.Errorf("loading inbox: %v", msg.Err)
			return m, nil
		}
		m.loaded = true
		m.convs = msg.Conversations
		m.cursor = min(m.cursor, max(len(m.convs)-1, 0))
		return m, nil

	case screen.RealtimeMsg:
		// Any new message can reorder the list or change its counts.
		if msg.Event.Kind != app.GlobalSubscription {
			return m, nil
		}
		return m, m.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.convs)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Refresh):
			fresh := New(m.ctx)
			return fresh, fresh.Init()
		case key.Matches(msg, m.keys.Open):
			if m.cursor < len(m.convs) {
				return m, screen.Navigate(nav.Thread, nav.Params{"id": m.convs[m.cursor].ID})
			}
		}
	}
	return m, nil
}
