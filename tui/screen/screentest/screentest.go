// Package screentest runs screens against the in-memory backend.
package screentest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/memory"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const (
	Me    = "user-me"
	Alice = "user-alice"
	Bob   = "user-bob"
)

// Env is a signed-in screen context over a seeded memory backend.
type Env struct {
	Store   *memory.Store
	Storage *memory.Storage
	Ctx     screen.Context
}

// New seeds profiles me, alice and bob and signs in as me.
func New(t testing.TB) *Env {
	t.Helper()
	store := memory.NewStore()
	storage := memory.NewStorage()
	for _, p := range []struct{ id, username string }{{Me, "me"}, {Alice, "alice"}, {Bob, "bob"}} {
		if err := store.Insert(context.Background(), app.Profiles, map[string]any{"id": p.id, "username": p.username}, nil); err != nil {
			t.Fatalf("seed profile: %v", err)
		}
	}
	return &Env{
		Store:   store,
		Storage: storage,
		Ctx: screen.Context{
			Deps: screen.Deps{
				Social:  app.NewSocial(store, storage, Me),
				Session: app.Session{UserID: Me, Email: "me@example.com", DisplayName: "Me"},
				Subs:    app.NewSubscriptions(store.Hub()),
				Timeout: 2 * time.Second,
			},
			Gen:    1,
			Width:  80,
			Height: 40,
		},
	}
}

// Post inserts a post by userID and returns its id.
func (e *Env) Post(t testing.TB, userID, caption string) string {
	t.Helper()
	var p domain.Post
	rec := map[string]any{"user_id": userID, "image_url": "", "caption": caption}
	if err := e.Store.Insert(context.Background(), app.Posts, rec, &p); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	return p.ID
}

// Follow makes follower follow following.
func (e *Env) Follow(t testing.TB, follower, following string) {
	t.Helper()
	if err := e.Store.Insert(context.Background(), app.Follows, domain.Follow{FollowerID: follower, FollowingID: following}, nil); err != nil {
		t.Fatalf("insert follow: %v", err)
	}
}

// Count returns the number of rows in collection.
func (e *Env) Count(collection string) int {
	return len(e.Store.Rows(collection))
}

// Init builds nothing; it drains s.Init().
func (e *Env) Init(t testing.TB, s screen.Screen) (screen.Screen, []tea.Msg) {
	t.Helper()
	return e.Drain(t, s, s.Init())
}

// Press sends each key to s and drains the resulting commands. It returns
// the messages meant for the host.
func (e *Env) Press(t testing.TB, s screen.Screen, keys ...string) (screen.Screen, []tea.Msg) {
	t.Helper()
	var out []tea.Msg
	for _, k := range keys {
		next, cmd := s.Update(Key(k))
		var msgs []tea.Msg
		s, msgs = e.Drain(t, next, cmd)
		out = append(out, msgs...)
	}
	return s, out
}

// Type sends text as rune keys.
func (e *Env) Type(t testing.TB, s screen.Screen, text string) screen.Screen {
	t.Helper()
	next, cmd := s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	s, _ = e.Drain(t, next, cmd)
	return s
}

// Drain runs cmd and everything it leads to, feeding screen messages back
// into s. Host messages are returned; results from other generations are
// dropped like the host drops them.
func (e *Env) Drain(t testing.TB, s screen.Screen, cmd tea.Cmd) (screen.Screen, []tea.Msg) {
	t.Helper()
	var host []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatalf("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if res, ok := msg.(screen.ResultMsg); ok {
			if res.Gen != e.Ctx.Gen {
				continue
			}
			msg = res.Msg
		}
		switch m := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, m...)
		case spinner.TickMsg:
		case screen.NavigateMsg, screen.SwitchTabMsg, screen.BackMsg, screen.ToastMsg, screen.RefreshBadgeMsg,
			screen.SignOutMsg, screen.UIStateMsg, tea.QuitMsg:
			host = append(host, m)
		default:
			if strings.HasPrefix(fmt.Sprintf("%T", m), "cursor.") {
				continue
			}
			next, c := s.Update(m)
			s = next
			queue = append(queue, c)
		}
	}
	return s, host
}

// Key builds a key message from its string form ("enter", "ctrl+s", "l").
func Key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ", "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// Toasts returns the text of every toast among msgs.
func Toasts(msgs []tea.Msg) []string {
	var out []string
	for _, m := range msgs {
		if t, ok := m.(screen.ToastMsg); ok {
			text := t.Text
			if t.Err != nil {
				text += ": " + screen.ErrorText(t.Err)
			}
			out = append(out, text)
		}
	}
	return out
}

// Navigation returns the first navigation request among msgs.
func Navigation(msgs []tea.Msg) (screen.NavigateMsg, bool) {
	for _, m := range msgs {
		if n, ok := m.(screen.NavigateMsg); ok {
			return n, true
		}
	}
	return screen.NavigateMsg{}, false
}
