package feed

import (
	"strings"

	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const cardHeight = thumbH + 6

// View renders the list, or a loading/empty/error placeholder.
func (m Model) View() string {
	width := m.ctx.Width
	if len(m.posts) == 0 {
		switch {
		case m.pager.Err() != nil:
			return common.ErrorStyle.Render("Could not load posts: "+screen.ErrorText(m.pager.Err())) +
				"\n" + common.MutedStyle.Render("r to retry")
		case m.pager.Loading() || m.pager.Loaded() == 0:
			return m.spinner.View() + " Loading posts..."
		case m.source == sourceHashtag:
			return common.Placeholder("No posts tagged #"+m.tag+" yet.", width)
		default:
			return common.Placeholder("Nothing here yet. Follow people from Explore or share your first photo.", width)
		}
	}

	rows := len(m.posts)
	if m.pager.Sentinel() {
		rows++
	}
	visible := max(1, m.ctx.Height/cardHeight)
	start, end := common.Window(m.cursor, rows, visible)
	now := m.ctx.Clock()

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == len(m.posts) {
			b.WriteString(common.Sentinel(m.cursor == i, m.pager.Loading()))
			b.WriteByte('\n')
			continue
		}
		p := m.posts[i]
		b.WriteString(common.PostCard(p, m.thumbs[p.ID], i == m.cursor, width, now))
		b.WriteByte('\n')
	}
	if err := m.pager.Err(); err != nil {
		b.WriteString(common.ErrorStyle.Render("Could not load more: " + screen.ErrorText(err)))
	}
	return strings.TrimRight(b.String(), "\n")
}
