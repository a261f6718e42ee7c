package common

import (
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// Sanitize strips escape sequences and control characters from remote text
// so it cannot repaint the terminal. Newlines survive when keepNewlines.
func Sanitize(s string, keepNewlines bool) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' && keepNewlines:
			return r
		case r == '\n' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// Truncate cuts s to width display cells, ending with "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// Wrap wraps s to width cells and keeps at most maxLines lines.
func Wrap(s string, width, maxLines int) []string {
	if width < 8 {
		width = 8
	}
	lines := strings.Split(ansi.Wrap(s, width, ""), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = Truncate(lines[maxLines-1]+" …", width)
	}
	return lines
}

// Ago renders a past time relative to now ("3 minutes ago").
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Count renders a counter with a singular or plural noun ("1 like", "1,204 likes").
func Count(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return humanize.Comma(int64(n)) + " " + plural
}

// Caption renders text with #tags highlighted.
func Caption(text string) string {
	var b strings.Builder
	for i, word := range strings.Split(text, " ") {
		if i > 0 {
			b.WriteByte(' ')
		}
		if len(word) > 1 && word[0] == '#' {
			b.WriteString(HashtagStyle.Render(word))
			continue
		}
		b.WriteString(ContentStyle.Render(word))
	}
	return b.String()
}

// Handle renders "@username".
func Handle(username string) string {
	return AuthorStyle.Render("@" + Sanitize(username, false))
}

// Window returns the [start, end) range of n rows to show around cursor
// when only height rows fit.
func Window(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}

// Placeholder renders centred muted text for empty and loading states.
func Placeholder(text string, width int) string {
	if width <= 0 {
		width = 60
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, MutedStyle.Render(text))
}
