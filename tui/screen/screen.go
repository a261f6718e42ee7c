// Package screen defines what the root model expects from a view renderer
// and the messages renderers use to talk back to it.
package screen

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/config"
	"github.com/CrestNiraj12/realinsta/infra/editor"
	"github.com/CrestNiraj12/realinsta/tui/nav"
)

const defaultTimeout = 15 * time.Second

// Screen is one view renderer. A screen owns only transient state and is
// discarded on every view change.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View() string
	// Title is shown in the header.
	Title() string
	// Typing reports whether a text field has focus; the host then leaves
	// every key to the screen.
	Typing() bool
	// Keys lists the screen's bindings for the help overlay.
	Keys() []key.Binding
	// Close releases anything exclusive the screen holds.
	Close()
}

// Deps are the collaborators every screen may use. Plain struct, not a DI container.
type Deps struct {
	Social  *app.Social
	Session app.Session
	Subs    *app.Subscriptions
	Camera  app.Camera
	Locator app.Locator
	Editor  *editor.EnvEditor
	UIState config.UIState
	Timeout time.Duration
}

// Context is what a screen is built with: the dependencies, the render
// generation it belongs to and the terminal size.
type Context struct {
	Deps
	Gen    int
	Width  int
	Height int
	Now    func() time.Time
}

// Clock returns the context's time source.
func (c Context) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Run executes fn off the event loop with a request timeout and tags its
// result with the screen's generation.
func (c Context) Run(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	gen := c.Gen
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ResultMsg{Gen: gen, Msg: fn(ctx)}
	}
}

// ResultMsg carries an async result. The host drops it unless Gen is the
// current render generation.
type ResultMsg struct {
	Gen int
	Msg tea.Msg
}

// NavigateMsg asks the host to show View.
type NavigateMsg struct {
	View   nav.View
	Params nav.Params
	Push   bool
}

// SwitchTabMsg asks the host to show a tab with no history.
type SwitchTabMsg struct {
	Tab nav.View
}

// BackMsg asks the host to pop the back-stack.
type BackMsg struct{}

// ToastMsg is a transient status line.
type ToastMsg struct {
	Text string
	Err  error
}

// RefreshBadgeMsg asks the host to recount unread messages.
type RefreshBadgeMsg struct{}

// SignOutMsg asks the host to end the session.
type SignOutMsg struct{}

// RealtimeMsg is a message delivered on the open thread subscription. The
// host forwards it to the current screen.
type RealtimeMsg struct {
	Event app.MessageEvent
}

// UIStateMsg asks the host to persist preferences.
type UIStateMsg struct {
	State config.UIState
}

// Navigate pushes view with params.
func Navigate(view nav.View, params nav.Params) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{View: view, Params: params, Push: true} }
}

// SwitchTab shows tab with no history.
func SwitchTab(tab nav.View) tea.Cmd {
	return func() tea.Msg { return SwitchTabMsg{Tab: tab} }
}

// Back pops the back-stack.
func Back() tea.Cmd {
	return func() tea.Msg { return BackMsg{} }
}

// Toast shows text.
func Toast(text string) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Text: text} }
}

// Fail shows err prefixed with what was being done.
func Fail(doing string, err error) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Text: doing, Err: err} }
}

// Emit wraps msg as a command.
func Emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// ErrorText renders err for the user.
func ErrorText(err error) string {
	var re *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "session expired, run `realinsta login`"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.As(err, &re) && re.Message != "":
		return re.Message
	}
	return err.Error()
}
