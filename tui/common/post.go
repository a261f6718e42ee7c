package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

// ThumbMsg carries a rendered thumbnail for Key.
type ThumbMsg struct {
	Key string
	Art string
	Err error
}

// ThumbCmd renders url off the event loop.
func ThumbCmd(c screen.Context, key, url string, w, h int) tea.Cmd {
	if url == "" {
		return nil
	}
	return c.Run(func(ctx context.Context) tea.Msg {
		art, err := Thumbnail(ctx, url, w, h)
		return ThumbMsg{Key: key, Art: art, Err: err}
	})
}

// Heart renders the like marker.
func Heart(liked bool) string {
	if liked {
		return LikedStyle.Render("♥")
	}
	return MutedStyle.Render("♡")
}

// PostCard renders a post for lists. thumb may be empty while loading.
func PostCard(p domain.FeedPost, thumb string, selected bool, width int, now time.Time) string {
	inner := max(width-4, 20)
	var b strings.Builder
	b.WriteString(Handle(p.Author.Username))
	if p.IsOwn {
		b.WriteString(OwnBadgeStyle.Render("you"))
	}
	b.WriteString(TimestampStyle.Render("  " + Ago(p.CreatedAt, now)))
	if p.Location != nil && *p.Location != "" {
		b.WriteString(MutedStyle.Render("  📍 " + Truncate(Sanitize(*p.Location, false), 24)))
	}
	b.WriteByte('\n')
	if thumb != "" {
		b.WriteString(thumb + "\n")
	} else {
		b.WriteString(MutedStyle.Render("[ image ]") + "\n")
	}
	if caption := Sanitize(p.CaptionText(), false); caption != "" {
		for _, line := range Wrap(caption, inner, 2) {
			b.WriteString(Caption(line) + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("%s %s  %s",
		Heart(p.Liked),
		MutedStyle.Render(Count(p.LikesCount, "like", "likes")),
		MutedStyle.Render(Count(p.CommentsCount, "comment", "comments"))))

	style := UnselectedStyle
	if selected {
		style = SelectedStyle
	}
	return style.Width(inner).Render(b.String())
}

// Sentinel renders the "more" row after the last loaded post.
func Sentinel(selected, loading bool) string {
	text := "· more ·"
	if loading {
		text = "loading more…"
	}
	if selected {
		return CursorStyle.Render("› " + text)
	}
	return MutedStyle.Render("  " + text)
}
