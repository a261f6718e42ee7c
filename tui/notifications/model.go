// Package notifications renders the activity list.
package notifications

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/feed"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

type loadedMsg struct {
	Items []domain.NotificationView
	Err   error
}

type markedMsg struct {
	Err error
}

type Model struct {
	ctx     screen.Context
	items   []domain.NotificationView
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

// Init loads the list and then marks everything read, so unread rows are
// still highlighted on this visit.
func (m Model) Init() tea.Cmd {
	social := m.ctx.Social
	return tea.Batch(m.spinner.Tick, m.ctx.Run(func(ctx context.Context) tea.Msg {
		items, err := social.Notifications(ctx)
		return loadedMsg{Items: items, Err: err}
	}))
}

func (m Model) Title() string { return "Activity" }

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

	case loadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			glog.Errorf("loading notifications: %v", msg.Err)
			return m, nil
		}
		m.loaded = true
		m.items = msg.Items
		for _, n := range m.items {
			if !n.Read {
				social := m.ctx.Social
				return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
					return markedMsg{Err: social.MarkNotificationsRead(ctx)}
				})
			}
		}
		return m, nil

	case markedMsg:
		if msg.Err != nil {
			glog.Warningf("marking notifications read: %v", msg.Err)
			return m, nil
		}
		return m, screen.Emit(screen.RefreshBadgeMsg{})

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Refresh):
			fresh := New(m.ctx)
			return fresh, fresh.Init()
		case key.Matches(msg, m.keys.Open):
			if m.cursor < len(m.items) {
				return m, m.open(m.items[m.cursor])
			}
		}
	}
	return m, nil
}

// open follows a notification to its post, or to the actor when there is none.
func (m Model) open(n domain.NotificationView) tea.Cmd {
	if n.PostID != nil && *n.PostID != "" {
		return screen.Navigate(nav.Post, nav.Params{"id": *n.PostID})
	}
	return feed.OpenAuthor(m.ctx, n.ActorID)
}

func describe(t domain.NotificationType) string {
	switch t {
	case domain.NotifyLike:
		return "liked your post"
	case domain.NotifyComment:
		return "commented on your post"
	case domain.NotifyFollow:
		return "started following you"
	case domain.NotifyMessage:
		return "sent you a message"
	}
	return string(t)
}

func (m Model) View() string {
	switch {
	case m.err != nil:
		return common.ErrorStyle.Render("Could not load activity: "+screen.ErrorText(m.err)) +
			"\n" + common.MutedStyle.Render("r to retry")
	case !m.loaded:
		return m.spinner.View() + " Loading activity..."
	case len(m.items) == 0:
		return common.Placeholder("No activity yet.", m.ctx.Width)
	}
	now := m.ctx.Clock()
	start, end := common.Window(m.cursor, len(m.items), max(1, m.ctx.Height-6))
	var b strings.Builder
	for i := start; i < end; i++ {
		n := m.items[i]
		name := n.Actor.Username
		if name == "" {
			name = "someone"
		}
		line := common.AuthorStyle.Render(common.Sanitize(name, false)) + " " + describe(n.Type) +
			common.TimestampStyle.Render("  "+common.Ago(n.CreatedAt, now))
		if !n.Read {
			line += " " + common.BadgeStyle.Render("new")
		}
		if i == m.cursor {
			b.WriteString(common.CursorStyle.Render("› ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
