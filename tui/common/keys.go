package common

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines shared key bindings across all views.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Back      key.Binding
	Tab1      key.Binding // feed
	Tab2      key.Binding // explore
	Tab3      key.Binding // camera
	Tab4      key.Binding // notifications
	Tab5      key.Binding // profile
	Inbox     key.Binding
	Refresh   key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Like      key.Binding // l, press twice quickly to like
	Comments  key.Binding
	Author    key.Binding
	Delete    key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Search    key.Binding
	Follow    key.Binding
	Message   key.Binding
	Edit      key.Binding // $EDITOR
	Settings  key.Binding
	Capture   key.Binding
	Flip      key.Binding
	Torch     key.Binding
	LoadFile  key.Binding
	Locate    key.Binding
	Submit    key.Binding
	NextField key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Tab1:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "feed")),
		Tab2:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "explore")),
		Tab3:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "camera")),
		Tab4:  key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "activity")),
		Tab5:  key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "profile")),
		Inbox: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inbox")),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like (ll: double-tap)"),
		),
		Comments: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comments"),
		),
		Author: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "author"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow/unfollow"),
		),
		Message: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "message"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "$EDITOR"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		Capture: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "capture"),
		),
		Flip: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "flip camera"),
		),
		Torch: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "torch"),
		),
		LoadFile: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "load image file"),
		),
		Locate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "add location"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
	}
}
