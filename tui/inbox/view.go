package inbox

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

func (m Model) View() string {
	switch {
	case m.err != nil:
		return common.ErrorStyle.Render("Could not load inbox: "+screen.ErrorText(m.err)) +
			"\n" + common.MutedStyle.Render("r to retry")
	case !m.loaded:
		return m.spinner.View() + " Loading conversations..."
	case len(m.convs) == 0:
		return common.Placeholder("No conversations yet. Press m on someone's profile to say hi.", m.ctx.Width)
	}

	width := max(m.ctx.Width-4, 20)
	now := m.ctx.Clock()
	start, end := common.Window(m.cursor, len(m.convs), max(1, (m.ctx.Height-6)/2))
	var b strings.Builder
	for i := start; i < end; i++ {
		c := m.convs[i]
		name := common.AuthorStyle.Render(common.Sanitize(c.Peer.Name(), false)) + " " + common.Handle(c.Peer.Username)
		if c.Unread > 0 {
			name += " " + common.BadgeStyle.Render(fmt.Sprint(c.Unread))
		}
		last := common.MutedStyle.Render("no messages yet")
		if c.LastMessage != nil {
			prefix := ""
			if c.LastMessage.SenderID == m.ctx.Session.UserID {
				prefix = "you: "
			}
			ago := common.Ago(c.LastMessage.CreatedAt, now)
			body := common.Truncate(prefix+common.Sanitize(c.LastMessage.Body, false), max(width-lipgloss.Width(ago)-4, 8))
			last = common.ContentStyle.Render(body) + common.TimestampStyle.Render("  "+ago)
		}
		cursor := "  "
		if i == m.cursor {
			cursor = common.CursorStyle.Render("› ")
		}
		b.WriteString(cursor + name + "\n  " + last + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Thread) View() string {
	width := max(m.ctx.Width-4, 20)
	now := m.ctx.Clock()
	var b strings.Builder

	switch {
	case m.err != nil && len(m.messages) == 0:
		b.WriteString(common.ErrorStyle.Render("Could not load messages: " + screen.ErrorText(m.err)))
	case m.pager.Loading() && len(m.messages) == 0:
		b.WriteString(common.MutedStyle.Render("Loading messages..."))
	case len(m.messages) == 0:
		b.WriteString(common.Placeholder("No messages yet. Say hi!", width))
	default:
		visible := max(1, m.ctx.Height-8)
		start, end := common.Window(m.row, m.rows(), visible)
		off := m.offset()
		for i := start; i < end; i++ {
			if i < off {
				text := "↑ older messages"
				if m.pager.Loading() {
					text = "loading older…"
				}
				if m.row == i {
					b.WriteString(common.CursorStyle.Render("› "+text) + "\n")
				} else {
					b.WriteString(common.MutedStyle.Render("  "+text) + "\n")
				}
				continue
			}
			x := m.messages[i-off]
			bubble := common.BubblePeerStyle
			align := lipgloss.Left
			if x.SenderID == m.ctx.Session.UserID {
				bubble = common.BubbleOwnStyle
				align = lipgloss.Right
			}
			lines := common.Wrap(common.Sanitize(x.Body, true), width*2/3, 0)
			text := bubble.Render(strings.Join(lines, "\n")) + "\n" + common.TimestampStyle.Render(common.Ago(x.CreatedAt, now))
			if i == m.row && !m.follow {
				text = common.CursorStyle.Render("›") + " " + text
			}
			b.WriteString(lipgloss.PlaceHorizontal(width, align, text) + "\n")
		}
		if m.err != nil {
			b.WriteString(common.ErrorStyle.Render("Could not load older messages: "+screen.ErrorText(m.err)) + "\n")
		}
	}

	b.WriteString("\n" + m.input.View())
	switch {
	case m.sendErr != nil:
		b.WriteString("\n" + common.ErrorStyle.Render(m.sendErr.Error()))
	case m.sending:
		b.WriteString("\n" + common.MutedStyle.Render("Sending…"))
	case !m.live && m.ctx.Subs != nil:
		b.WriteString("\n" + common.MutedStyle.Render("connecting…"))
	}
	return b.String()
}
