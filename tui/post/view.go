package post

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

func (m Model) View() string {
	switch {
	case m.err != nil:
		return common.ErrorStyle.Render("Could not load post: "+screen.ErrorText(m.err)) +
			"\n" + common.MutedStyle.Render("r to retry, esc to go back")
	case !m.loaded:
		return m.spinner.View() + " Loading post..."
	}

	p := m.post
	width := max(m.ctx.Width-4, 20)
	now := m.ctx.Clock()

	var b strings.Builder
	b.WriteString(common.AuthorStyle.Render(p.Author.Name()) + " " + common.Handle(p.Author.Username))
	if p.IsOwn {
		b.WriteString(common.OwnBadgeStyle.Render("you"))
	}
	b.WriteString(common.TimestampStyle.Render("  " + common.Ago(p.CreatedAt, now)))
	b.WriteByte('\n')
	if p.Location != nil && *p.Location != "" {
		b.WriteString(common.MutedStyle.Render("📍 "+common.Sanitize(*p.Location, false)) + "\n")
	}
	b.WriteByte('\n')
	if m.thumb != "" {
		b.WriteString(m.thumb + "\n")
	} else {
		b.WriteString(common.MutedStyle.Render("[ image ]") + "\n")
	}
	b.WriteByte('\n')
	if caption := common.Sanitize(p.CaptionText(), true); caption != "" {
		for _, line := range common.Wrap(caption, width, 0) {
			b.WriteString(common.Caption(line) + "\n")
		}
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		common.Heart(p.Liked),
		common.MutedStyle.Render(common.Count(p.LikesCount, "like", "likes")),
		common.MutedStyle.Render(common.Count(p.CommentsCount, "comment", "comments"))))

	if len(m.preview) > 0 {
		b.WriteByte('\n')
		for _, c := range m.preview {
			b.WriteString(commentLine(c, width) + "\n")
		}
		if p.CommentsCount > len(m.preview) {
			b.WriteString(common.MutedStyle.Render(fmt.Sprintf("View all %d comments (c)", p.CommentsCount)) + "\n")
		}
	}

	switch {
	case m.confirming:
		b.WriteString("\n" + common.ConfirmStyle.Render("Delete this post? y/n"))
	case m.deleting:
		b.WriteString("\n" + common.MutedStyle.Render("Deleting…"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func commentLine(c domain.CommentView, width int) string {
	head := common.AuthorStyle.Render(c.Author.Username) + " "
	body := common.Truncate(common.Sanitize(c.Body, false), max(width-len(c.Author.Username)-1, 8))
	return head + common.ContentStyle.Render(body)
}

func (m Comments) View() string {
	switch {
	case m.loadErr != nil:
		return common.ErrorStyle.Render("Could not load comments: "+screen.ErrorText(m.loadErr)) +
			"\n" + common.MutedStyle.Render("esc to go back")
	case !m.loaded:
		return common.MutedStyle.Render("Loading comments...")
	}

	width := max(m.ctx.Width-4, 20)
	now := m.ctx.Clock()
	var b strings.Builder
	if caption := common.Sanitize(m.post.CaptionText(), false); caption != "" {
		b.WriteString(common.AuthorStyle.Render(m.post.Author.Username) + " " +
			common.Caption(common.Truncate(caption, width-len(m.post.Author.Username)-1)) + "\n\n")
	}

	if len(m.comments) == 0 {
		b.WriteString(common.Placeholder("No comments yet. Be the first.", width) + "\n")
	} else {
		visible := max(1, (m.ctx.Height-8)/2)
		start, end := common.Window(m.cursor, len(m.comments), visible)
		for i := start; i < end; i++ {
			c := m.comments[i]
			head := common.AuthorStyle.Render(c.Author.Username) +
				common.TimestampStyle.Render("  "+common.Ago(c.CreatedAt, now))
			if i == m.cursor {
				head = common.CursorStyle.Render("› ") + head
			} else {
				head = "  " + head
			}
			b.WriteString(head + "\n")
			for _, line := range common.Wrap(common.Sanitize(c.Body, true), width-2, 0) {
				b.WriteString("  " + common.ContentStyle.Render(line) + "\n")
			}
		}
	}

	b.WriteString("\n" + m.input.View())
	switch {
	case m.err != nil:
		b.WriteString("\n" + common.ErrorStyle.Render(m.err.Error()))
	case m.sending:
		b.WriteString("\n" + common.MutedStyle.Render("Posting…"))
	}
	return b.String()
}
