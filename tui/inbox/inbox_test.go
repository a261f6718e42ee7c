package inbox

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
	"github.com/CrestNiraj12/realinsta/tui/screen/screentest"
)

// chat opens a conversation between me and alice and returns alice's side.
func chat(t *testing.T, env *screentest.Env) (string, *app.Social) {
	t.Helper()
	id, err := env.Ctx.Social.ConversationWith(context.Background(), screentest.Alice)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	return id, app.NewSocial(env.Store, env.Storage, screentest.Alice)
}

func send(t *testing.T, s *app.Social, convID, peer, body string) {
	t.Helper()
	if _, err := s.SendMessage(context.Background(), convID, peer, body); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func nextEvent(t *testing.T, subs *app.Subscriptions) app.MessageEvent {
	t.Helper()
	select {
	case ev := <-subs.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no realtime event")
	}
	return app.MessageEvent{}
}

func deliver(t *testing.T, env *screentest.Env, s screen.Screen, ev app.MessageEvent) screen.Screen {
	t.Helper()
	s, _ = env.Drain(t, s, screen.Emit(screen.RealtimeMsg{Event: ev}))
	return s
}

func TestInbox_ListsConversationsWithUnread(t *testing.T) {
	env := screentest.New(t)
	id, alice := chat(t, env)
	send(t, alice, id, screentest.Me, "hi!")
	send(t, alice, id, screentest.Me, "you there?")

	s, _ := env.Init(t, New(env.Ctx))
	m := s.(Model)
	if len(m.convs) != 1 || m.convs[0].Unread != 2 || m.convs[0].Peer.Username != "alice" {
		t.Fatalf("unexpected inbox %+v", m.convs)
	}
	if view := m.View(); !strings.Contains(view, "alice") || !strings.Contains(view, "you there?") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	_, msgs := env.Press(t, s, "enter")
	if n, ok := screentest.Navigation(msgs); !ok || n.View != nav.Thread || n.Params.Get("id") != id {
		t.Fatalf("unexpected navigation %+v", n)
	}
}

func TestInbox_Empty(t *testing.T) {
	env := screentest.New(t)
	s, _ := env.Init(t, New(env.Ctx))
	if !strings.Contains(s.View(), "No conversations yet") {
		t.Fatalf("unexpected view %q", s.View())
	}
}

func TestThread_OpenMarksReadAndSubscribes(t *testing.T) {
	env := screentest.New(t)
	id, alice := chat(t, env)
	send(t, alice, id, screentest.Me, "hello")

	s, msgs := env.Init(t, NewThread(env.Ctx, id))
	m := s.(Thread)
	if len(m.messages) != 1 || m.peer.Username != "alice" || !m.live {
		t.Fatalf("unexpected thread state: %d messages, peer %q, live %v", len(m.messages), m.peer.Username, m.live)
	}
	if thread, _ := env.Ctx.Subs.Active(); thread != 1 || env.Ctx.Subs.ThreadConversation() != id {
		t.Fatalf("expected one thread subscription for %s", id)
	}
	var refreshed bool
	for _, x := range msgs {
		if _, ok := x.(screen.RefreshBadgeMsg); ok {
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatalf("opening a thread refreshes the badge")
	}
	if n, _ := env.Ctx.Social.UnreadMessages(context.Background()); n != 0 {
		t.Fatalf("expected thread read, %d unread", n)
	}
}

func TestThread_LoadsOlderAtTop(t *testing.T) {
	env := screentest.New(t)
	id, alice := chat(t, env)
	for i := range 45 {
		send(t, alice, id, screentest.Me, fmt.Sprintf("msg %d", i))
	}
	s, _ := env.Init(t, NewThread(env.Ctx, id))
	m := s.(Thread)
	if len(m.messages) != app.ThreadPageSize || m.messages[0].Body != "msg 15" || m.messages[29].Body != "msg 44" {
		t.Fatalf("expected the latest %d messages in order", app.ThreadPageSize)
	}
	if !m.pager.Sentinel() || m.row != app.ThreadPageSize {
		t.Fatalf("expected the older sentinel and the cursor at the newest message, row %d", m.row)
	}

	for range app.ThreadPageSize {
		s, _ = env.Press(t, s, "up")
	}
	m = s.(Thread)
	if len(m.messages) != 45 || m.messages[0].Body != "msg 0" || m.pager.Sentinel() {
		t.Fatalf("expected full history, got %d", len(m.messages))
	}
}

func TestThread_RealtimeAppendsWithoutDuplicates(t *testing.T) {
	env := screentest.New(t)
	id, alice := chat(t, env)
	s, _ := env.Init(t, NewThread(env.Ctx, id))

	send(t, alice, id, screentest.Me, "live!")
	ev := nextEvent(t, env.Ctx.Subs)
	if ev.Kind != app.ThreadSubscription || ev.Message.Body != "live!" {
		t.Fatalf("unexpected event %+v", ev)
	}
	s = deliver(t, env, s, ev)
	s = deliver(t, env, s, ev)
	if got := len(s.(Thread).messages); got != 1 {
		t.Fatalf("expected one message, got %d", got)
	}

	other := ev
	other.Message.ID = "elsewhere"
	other.Message.ConversationID = "another"
	s = deliver(t, env, s, other)
	if got := len(s.(Thread).messages); got != 1 {
		t.Fatalf("events for other conversations are ignored")
	}
}

func TestThread_SendAndEcho(t *testing.T) {
	env := screentest.New(t)
	id, _ := chat(t, env)
	s, _ := env.Init(t, NewThread(env.Ctx, id))

	s = env.Type(t, s, "hey alice")
	s, msgs := env.Press(t, s, "enter")
	m := s.(Thread)
	if env.Count(app.Messages) != 1 || len(m.messages) != 1 || m.input.Value() != "" {
		t.Fatalf("message should be sent and shown once")
	}
	if len(msgs) == 0 {
		t.Fatalf("sending refreshes the badge")
	}
	s = deliver(t, env, s, nextEvent(t, env.Ctx.Subs))
	if len(s.(Thread).messages) != 1 {
		t.Fatalf("the realtime echo of our own message must not duplicate it")
	}
	if env.Count(app.Notifications) != 1 {
		t.Fatalf("messaging notifies the peer")
	}
}

func TestThread_EmptyMessageRejected(t *testing.T) {
	env := screentest.New(t)
	id, _ := chat(t, env)
	s, _ := env.Init(t, NewThread(env.Ctx, id))
	calls := env.Store.Calls
	s = env.Type(t, s, "   ")
	s, _ = env.Press(t, s, "enter")
	if env.Store.Calls != calls || env.Count(app.Messages) != 0 {
		t.Fatalf("empty messages never reach the store")
	}
	if !strings.Contains(s.View(), "message cannot be empty") {
		t.Fatalf("expected inline error, got %q", s.View())
	}
}

func TestThread_ClosedBeforeSubscribing(t *testing.T) {
	env := screentest.New(t)
	id, _ := chat(t, env)
	s := NewThread(env.Ctx, id)
	cmd := s.Init()
	s.Close()
	env.Drain(t, s, cmd)
	if thread, _ := env.Ctx.Subs.Active(); thread != 0 {
		t.Fatalf("a closed thread must not leave a subscription behind")
	}
}

func TestThread_EscGoesBack(t *testing.T) {
	env := screentest.New(t)
	id, _ := chat(t, env)
	s, _ := env.Init(t, NewThread(env.Ctx, id))
	_, msgs := env.Press(t, s, "esc")
	if len(msgs) != 1 {
		t.Fatalf("expected back, got %v", msgs)
	}
	if _, ok := msgs[0].(screen.BackMsg); !ok {
		t.Fatalf("expected back, got %T", msgs[0])
	}
}
