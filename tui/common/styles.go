package common

import "github.com/charmbracelet/lipgloss"

var (
	// AppTitleStyle styles the application title in the header.
	AppTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E1306C")).
			Padding(0, 1)

	// ViewTitleStyle styles the current view's name next to the title.
	ViewTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5")).
			Bold(true)

	// TaglineStyle styles secondary header text.
	TaglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Italic(true).
			MarginLeft(1)

	// AuthorStyle styles usernames.
	AuthorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DC4E4"))

	// TimestampStyle styles timestamps.
	TimestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// ContentStyle styles captions, comments and messages.
	ContentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5"))

	// HashtagStyle styles #tags inside captions.
	HashtagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true)

	// LikedStyle styles the heart of a liked post.
	LikedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// MutedStyle styles counters and hints.
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// SelectedStyle highlights the row under the cursor.
	SelectedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#E1306C")).
			Padding(0, 1)

	// UnselectedStyle gives other rows a subtle border.
	UnselectedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)

	// CursorStyle marks the selected line in compact lists.
	CursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E1306C")).
			Bold(true)

	// OwnBadgeStyle marks the user's own posts and messages.
	OwnBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true).
			MarginLeft(1)

	// StatusBarStyle styles the toast line.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D")).
			Padding(0, 1)

	// TabActiveStyle styles the current tab in the bottom navigation.
	TabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E1306C")).
			Bold(true).
			Padding(0, 1)

	// TabInactiveStyle styles other tabs.
	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6E738D")).
				Padding(0, 1)

	// BadgeStyle styles unread counters.
	BadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#ED8796")).
			Bold(true).
			Padding(0, 1)

	// ConfirmStyle styles confirmation prompts.
	ConfirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true).
			Padding(0, 1)

	// ErrorStyle styles error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// SuccessStyle styles success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true)

	// BubbleOwnStyle and BubblePeerStyle style chat messages.
	BubbleOwnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#7DC4E4")).
			Padding(0, 1)
	BubblePeerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5")).
			Background(lipgloss.Color("#363A4F")).
			Padding(0, 1)

	// HelpBoxStyle frames the help overlay.
	HelpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#E1306C")).
			Padding(1, 2)
)
