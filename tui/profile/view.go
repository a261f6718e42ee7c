package profile

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
		return common.ErrorStyle.Render("Could not load profile: "+screen.ErrorText(m.err)) +
			"\n" + common.MutedStyle.Render("r to retry")
	case !m.loaded:
		return m.spinner.View() + " Loading profile..."
	}
	width := max(m.ctx.Width-4, 20)
	now := m.ctx.Clock()

	var b strings.Builder
	b.WriteString(m.headerView(width))
	b.WriteString("\n\n")

	if len(m.posts) == 0 {
		switch {
		case m.pager.Err() != nil:
			b.WriteString(common.ErrorStyle.Render("Could not load posts: " + screen.ErrorText(m.pager.Err())))
		case m.pager.Loading():
			b.WriteString(common.MutedStyle.Render("Loading posts..."))
		case m.own:
			b.WriteString(common.Placeholder("No posts yet. Press 3 to share your first photo.", width))
		default:
			b.WriteString(common.Placeholder("No posts yet.", width))
		}
		return b.String()
	}

	rows := len(m.posts)
	if m.pager.Sentinel() {
		rows++
	}
	start, end := common.Window(m.cursor, rows, max(1, m.ctx.Height-12))
	for i := start; i < end; i++ {
		if i == len(m.posts) {
			b.WriteString(common.Sentinel(m.cursor == i, m.pager.Loading()) + "\n")
			continue
		}
		p := m.posts[i]
		caption := common.Sanitize(p.CaptionText(), false)
		if caption == "" {
			caption = "(no caption)"
		}
		meta := fmt.Sprintf("  %s %d  💬 %d  %s", common.Heart(p.Liked), p.LikesCount, p.CommentsCount, common.Ago(p.CreatedAt, now))
		line := common.Truncate(caption, max(width-lipgloss.Width(meta)-2, 8))
		if i == m.cursor {
			b.WriteString(common.CursorStyle.Render("› ") + common.Caption(line) + common.MutedStyle.Render(meta) + "\n")
		} else {
			b.WriteString("  " + common.Caption(line) + common.MutedStyle.Render(meta) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) headerView(width int) string {
	p := m.profile
	var b strings.Builder
	b.WriteString(common.AuthorStyle.Render(common.Sanitize(p.Name(), false)) + " " + common.Handle(p.Username))
	if !m.own && m.following {
		b.WriteString(common.OwnBadgeStyle.Render("following"))
	}
	b.WriteByte('\n')
	stat := func(n int, label string) string {
		return common.AuthorStyle.Render(fmt.Sprint(n)) + " " + common.MutedStyle.Render(label)
	}
	b.WriteString(strings.Join([]string{
		stat(m.stats.Posts, "posts"),
		stat(m.stats.Followers, "followers"),
		stat(m.stats.Following, "following"),
	}, "   "))
	if p.Bio != nil && strings.TrimSpace(*p.Bio) != "" {
		b.WriteByte('\n')
		for _, line := range common.Wrap(common.Sanitize(*p.Bio, true), width, 4) {
			b.WriteString("\n" + common.ContentStyle.Render(line))
		}
	}
	if m.busy {
		b.WriteString("\n" + common.MutedStyle.Render("…"))
	}
	return b.String()
}
