package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/infra/auth"
)

type fakeRealtimeServer struct {
	srv    *httptest.Server
	frames chan phxMessage
	push   chan phxMessage
}

func newFakeRealtimeServer(t *testing.T, rejectJoin bool) *fakeRealtimeServer {
	t.Helper()
	f := &fakeRealtimeServer{frames: make(chan phxMessage, 32), push: make(chan phxMessage, 8)}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realtime/v1/websocket" || r.URL.Query().Get("apikey") != "anon" {
			http.Error(w, "bad path", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		go func() {
			for m := range f.push {
				data, _ := json.Marshal(m)
				if conn.WriteMessage(websocket.TextMessage, data) != nil {
					return
				}
			}
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m phxMessage
			if json.Unmarshal(data, &m) != nil {
				continue
			}
			f.frames <- m
			if m.Event == "phx_join" {
				status := "ok"
				if rejectJoin {
					status = "error"
				}
				payload, _ := json.Marshal(phxReply{Status: status, Response: json.RawMessage(`{}`)})
				f.push <- phxMessage{Topic: m.Topic, Event: "phx_reply", Payload: payload, Ref: m.Ref}
			}
		}
	}))
	t.Cleanup(func() {
		f.srv.Close()
	})
	return f
}

func (f *fakeRealtimeServer) next(t *testing.T, event string) phxMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-f.frames:
			if m.Event == event {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", event)
		}
	}
}

func TestWebsocketURL(t *testing.T) {
	got := websocketURL("https://abc.supabase.co/", "k")
	if got != "wss://abc.supabase.co/realtime/v1/websocket?apikey=k&vsn=1.0.0" {
		t.Fatalf("unexpected url: %s", got)
	}
	if !strings.HasPrefix(websocketURL("http://localhost:54321", "k"), "ws://localhost:54321/") {
		t.Fatalf("expected ws scheme for http")
	}
}

func TestRealtime_JoinDeliverLeave(t *testing.T) {
	f := newFakeRealtimeServer(t, false)
	rt := NewRealtime(f.srv.URL, "anon", auth.StaticToken("user-jwt"))
	defer rt.Close()

	events := make(chan app.ChangeEvent, 1)
	sub, err := rt.Subscribe(context.Background(), "thread:c1", app.EventFilter{
		Event:  app.ChangeInsert,
		Table:  "messages",
		Filter: "conversation_id=eq.c1",
	}, func(ev app.ChangeEvent) { events <- ev })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	join := f.next(t, "phx_join")
	if join.Topic != "realtime:thread:c1" {
		t.Fatalf("unexpected topic %q", join.Topic)
	}
	var cfg joinConfig
	if err := json.Unmarshal(join.Payload, &cfg); err != nil {
		t.Fatalf("join payload: %v", err)
	}
	if cfg.AccessToken != "user-jwt" || len(cfg.Config.PostgresChanges) != 1 {
		t.Fatalf("unexpected join config: %+v", cfg)
	}
	pc := cfg.Config.PostgresChanges[0]
	if pc.Event != "INSERT" || pc.Schema != "public" || pc.Table != "messages" || pc.Filter != "conversation_id=eq.c1" {
		t.Fatalf("unexpected change filter: %+v", pc)
	}

	f.push <- phxMessage{
		Topic:   "realtime:thread:c1",
		Event:   "postgres_changes",
		Payload: json.RawMessage(`{"ids":[1],"data":{"schema":"public","table":"messages","type":"INSERT","record":{"id":"m1","body":"hi"}}}`),
	}
	select {
	case ev := <-events:
		if ev.Channel != "thread:c1" || ev.Type != app.ChangeInsert || !strings.Contains(string(ev.Record), `"m1"`) {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	leave := f.next(t, "phx_leave")
	if leave.Topic != "realtime:thread:c1" {
		t.Fatalf("unexpected leave topic %q", leave.Topic)
	}
}

func TestRealtime_JoinRejected(t *testing.T) {
	f := newFakeRealtimeServer(t, true)
	rt := NewRealtime(f.srv.URL, "anon", nil)
	defer rt.Close()
	_, err := rt.Subscribe(context.Background(), "inbox:u1", app.EventFilter{Event: app.ChangeInsert, Table: "messages"}, func(app.ChangeEvent) {})
	if err == nil || !strings.Contains(err.Error(), "join rejected") {
		t.Fatalf("expected rejected join, got %v", err)
	}
}

func TestRealtime_Heartbeat(t *testing.T) {
	f := newFakeRealtimeServer(t, false)
	rt := NewRealtime(f.srv.URL, "anon", nil)
	rt.heartbeat = 20 * time.Millisecond
	defer rt.Close()
	if _, err := rt.Subscribe(context.Background(), "inbox:u1", app.EventFilter{Table: "messages"}, func(app.ChangeEvent) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	hb := f.next(t, "heartbeat")
	if hb.Topic != "phoenix" {
		t.Fatalf("heartbeat must target the phoenix topic, got %q", hb.Topic)
	}
}

func TestRealtime_RequiresTable(t *testing.T) {
	rt := NewRealtime("http://127.0.0.1:1", "anon", nil)
	if _, err := rt.Subscribe(context.Background(), "x", app.EventFilter{}, func(app.ChangeEvent) {}); err == nil {
		t.Fatalf("expected error without table")
	}
}
