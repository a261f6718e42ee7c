package explore

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

func (m Model) View() string {
	if m.searching {
		return m.searchView()
	}
	return m.gridView()
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(m.input.View() + "\n\n")
	switch {
	case m.pending:
		b.WriteString(m.spinner.View() + " searching…")
	case m.searchErr != nil:
		b.WriteString(common.ErrorStyle.Render("Search failed: " + screen.ErrorText(m.searchErr)))
	case m.hashtag() != "":
		b.WriteString(common.CursorStyle.Render("› ") + common.HashtagStyle.Render("#"+m.hashtag()) +
			common.MutedStyle.Render("  browse posts"))
	case m.query != "" && len(m.results) == 0:
		b.WriteString(common.MutedStyle.Render("No people match “" + common.Sanitize(m.query, false) + "”."))
	default:
		for i, p := range m.results {
			prefix := "  "
			if i == m.resultCur {
				prefix = common.CursorStyle.Render("› ")
			}
			line := prefix + common.Handle(p.Username)
			if name := p.Name(); name != p.Username {
				line += "  " + common.ContentStyle.Render(common.Sanitize(name, false))
			}
			b.WriteString(common.Truncate(line, m.ctx.Width) + "\n")
		}
	}
	b.WriteString("\n" + common.MutedStyle.Render("enter: open • esc: close search"))
	return b.String()
}

func (m Model) gridView() string {
	if len(m.posts) == 0 {
		switch {
		case m.pager.Err() != nil:
			return common.ErrorStyle.Render("Could not load posts: " + screen.ErrorText(m.pager.Err()))
		case m.pager.Loading():
			return m.spinner.View() + " Loading..."
		default:
			return common.Placeholder("No posts yet. Press / to find people.", m.ctx.Width)
		}
	}
	cols := m.columns()
	rows := (len(m.posts) + cols - 1) / cols
	visible := max(1, m.ctx.Height/(tileH+2))
	start, end := common.Window(m.cursor/cols, rows, visible)

	var out []string
	for r := start; r < end; r++ {
		tiles := make([]string, 0, cols)
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(m.posts) {
				break
			}
			tiles = append(tiles, m.tile(i))
		}
		out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	if m.pager.Loading() {
		out = append(out, m.spinner.View()+" loading more…")
	}
	return strings.Join(out, "\n")
}

func (m Model) tile(i int) string {
	p := m.posts[i]
	art := m.thumbs[p.ID]
	if art == "" {
		art = lipgloss.Place(tileW, tileH, lipgloss.Center, lipgloss.Center, common.MutedStyle.Render("…"))
	}
	border := common.MutedStyle
	if i == m.cursor {
		border = common.CursorStyle
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(border.GetForeground()).
		Render(art)
}
