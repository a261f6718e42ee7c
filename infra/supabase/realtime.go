package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/infra/auth"
)

const (
	defaultHeartbeat   = 25 * time.Second
	defaultJoinTimeout = 10 * time.Second
	writeTimeout       = 10 * time.Second
	maxReconnectDelay  = 30 * time.Second
)

// Realtime implements app.Realtime over one Phoenix websocket shared by
// every channel.
type Realtime struct {
	url         string
	anonKey     string
	tokens      auth.TokenProvider
	dialer      *websocket.Dialer
	heartbeat   time.Duration
	joinTimeout time.Duration

	writeMu sync.Mutex

	mu       sync.Mutex
	conn     *websocket.Conn
	ref      int
	channels map[string]*channel
	pending  map[string]chan phxReply
	closed   bool
}

type channel struct {
	key     string
	topic   string
	filter  app.EventFilter
	onEvent func(app.ChangeEvent)
}

type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

type phxReply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Schema string          `json:"schema"`
		Table  string          `json:"table"`
		Type   app.ChangeType  `json:"type"`
		Record json.RawMessage `json:"record"`
	} `json:"data"`
}

type joinConfig struct {
	Config struct {
		Broadcast       map[string]bool   `json:"broadcast"`
		Presence        map[string]string `json:"presence"`
		PostgresChanges []changeFilter    `json:"postgres_changes"`
	} `json:"config"`
	AccessToken string `json:"access_token,omitempty"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

// NewRealtime creates a realtime client for the project at baseURL.
func NewRealtime(baseURL, anonKey string, tp auth.TokenProvider) *Realtime {
	return &Realtime{
		url:         websocketURL(baseURL, anonKey),
		anonKey:     anonKey,
		tokens:      tp,
		dialer:      websocket.DefaultDialer,
		heartbeat:   defaultHeartbeat,
		joinTimeout: defaultJoinTimeout,
		channels:    make(map[string]*channel),
		pending:     make(map[string]chan phxReply),
	}
}

var _ app.Realtime = (*Realtime)(nil)

func websocketURL(baseURL, anonKey string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	q := url.Values{"apikey": {anonKey}, "vsn": {"1.0.0"}}
	return u + "/realtime/v1/websocket?" + q.Encode()
}

// Subscribe joins a channel delivering row changes matching filter. The
// returned subscription leaves the channel once.
func (r *Realtime) Subscribe(ctx context.Context, channelKey string, filter app.EventFilter, onEvent func(app.ChangeEvent)) (app.Subscription, error) {
	if filter.Table == "" {
		return nil, fmt.Errorf("subscribe %s: table is required", channelKey)
	}
	ch := &channel{key: channelKey, topic: "realtime:" + channelKey, filter: filter, onEvent: onEvent}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("realtime client closed")
	}
	r.channels[ch.topic] = ch
	r.mu.Unlock()

	if err := r.join(ctx, ch, true); err != nil {
		r.mu.Lock()
		if r.channels[ch.topic] == ch {
			delete(r.channels, ch.topic)
		}
		r.mu.Unlock()
		return nil, fmt.Errorf("joining %s: %w", ch.topic, err)
	}
	glog.V(1).Infof("realtime: joined %s", ch.topic)
	return &realtimeSubscription{rt: r, ch: ch}, nil
}

// Close leaves every channel and drops the connection.
func (r *Realtime) Close() {
	r.mu.Lock()
	r.closed = true
	conn := r.conn
	r.conn = nil
	r.channels = make(map[string]*channel)
	r.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (r *Realtime) nextRef() string {
	r.ref++
	return strconv.Itoa(r.ref)
}

func (r *Realtime) accessToken(ctx context.Context) string {
	if r.tokens == nil {
		return r.anonKey
	}
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		glog.Warningf("realtime: access token unavailable: %v", err)
		return r.anonKey
	}
	return token
}

func (r *Realtime) join(ctx context.Context, ch *channel, wait bool) error {
	conn, err := r.connect(ctx)
	if err != nil {
		return err
	}

	var payload joinConfig
	payload.Config.Broadcast = map[string]bool{"self": false}
	payload.Config.Presence = map[string]string{"key": ""}
	schema := ch.filter.Schema
	if schema == "" {
		schema = "public"
	}
	event := string(ch.filter.Event)
	if event == "" {
		event = string(app.ChangeAll)
	}
	payload.Config.PostgresChanges = []changeFilter{{Event: event, Schema: schema, Table: ch.filter.Table, Filter: ch.filter.Filter}}
	payload.AccessToken = r.accessToken(ctx)

	r.mu.Lock()
	ref := r.nextRef()
	replies := make(chan phxReply, 1)
	if wait {
		r.pending[ref] = replies
	}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, ref)
		r.mu.Unlock()
	}()

	if err := r.send(conn, ch.topic, "phx_join", payload, ref, &ref); err != nil {
		return err
	}
	if !wait {
		return nil
	}

	timer := time.NewTimer(r.joinTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("join timed out")
	case reply := <-replies:
		if reply.Status != "ok" {
			return fmt.Errorf("join rejected: %s %s", reply.Status, strings.TrimSpace(string(reply.Response)))
		}
		return nil
	}
}

func (r *Realtime) leave(ch *channel) {
	r.mu.Lock()
	if r.channels[ch.topic] != ch {
		r.mu.Unlock()
		return
	}
	delete(r.channels, ch.topic)
	conn := r.conn
	ref := r.nextRef()
	idle := len(r.channels) == 0
	if idle {
		r.conn = nil
	}
	r.mu.Unlock()

	if conn == nil {
		return
	}
	if err := r.send(conn, ch.topic, "phx_leave", struct{}{}, ref, nil); err != nil {
		glog.V(1).Infof("realtime: leaving %s: %v", ch.topic, err)
	}
	glog.V(1).Infof("realtime: left %s", ch.topic)
	if idle {
		_ = conn.Close()
	}
}

// connect returns the live connection, dialing when there is none.
func (r *Realtime) connect(ctx context.Context) (*websocket.Conn, error) {
	r.mu.Lock()
	if r.conn != nil {
		conn := r.conn
		r.mu.Unlock()
		return conn, nil
	}
	r.mu.Unlock()

	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing realtime: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = conn.Close()
		return nil, errors.New("realtime client closed")
	}
	if r.conn != nil {
		// Lost a dial race; use the winner.
		winner := r.conn
		r.mu.Unlock()
		_ = conn.Close()
		return winner, nil
	}
	r.conn = conn
	r.mu.Unlock()

	done := make(chan struct{})
	go r.readLoop(conn, done)
	go r.heartbeatLoop(conn, done)
	return conn, nil
}

func (r *Realtime) send(conn *websocket.Conn, topic, event string, payload any, ref string, joinRef *string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", event, err)
	}
	msg, err := json.Marshal(phxMessage{Topic: topic, Event: event, Payload: data, Ref: &ref, JoinRef: joinRef})
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("writing %s: %w", event, err)
	}
	return nil
}

func (r *Realtime) heartbeatLoop(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(r.heartbeat)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			r.mu.Lock()
			ref := r.nextRef()
			r.mu.Unlock()
			if err := r.send(conn, "phoenix", "heartbeat", struct{}{}, ref, nil); err != nil {
				glog.V(1).Infof("realtime: heartbeat: %v", err)
				return
			}
		}
	}
}

func (r *Realtime) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			r.dropped(conn, err)
			return
		}
		var msg phxMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			glog.Warningf("realtime: decoding frame: %v", err)
			continue
		}
		r.dispatch(msg)
	}
}

func (r *Realtime) dispatch(msg phxMessage) {
	switch msg.Event {
	case "phx_reply":
		if msg.Ref == nil {
			return
		}
		var reply phxReply
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			glog.Warningf("realtime: decoding reply: %v", err)
			return
		}
		r.mu.Lock()
		waiter := r.pending[*msg.Ref]
		r.mu.Unlock()
		if waiter != nil {
			select {
			case waiter <- reply:
			default:
			}
		}
	case "postgres_changes":
		r.mu.Lock()
		ch := r.channels[msg.Topic]
		r.mu.Unlock()
		if ch == nil {
			return
		}
		var p changePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			glog.Warningf("realtime: decoding change on %s: %v", msg.Topic, err)
			return
		}
		ch.onEvent(app.ChangeEvent{Channel: ch.key, Type: p.Data.Type, Table: p.Data.Table, Record: p.Data.Record})
	case "phx_error", "phx_close":
		glog.Warningf("realtime: %s on %s: %s", msg.Event, msg.Topic, string(msg.Payload))
	default:
		glog.V(2).Infof("realtime: %s on %s", msg.Event, msg.Topic)
	}
}

// dropped handles a dead connection. Connections closed on purpose are
// already detached, so only unexpected drops reconnect.
func (r *Realtime) dropped(conn *websocket.Conn, err error) {
	r.mu.Lock()
	unexpected := r.conn == conn && !r.closed
	if r.conn == conn {
		r.conn = nil
	}
	live := len(r.channels)
	r.mu.Unlock()
	_ = conn.Close()
	if !unexpected {
		return
	}
	glog.Warningf("realtime: connection lost: %v", err)
	if live > 0 {
		go r.reconnect()
	}
}

func (r *Realtime) reconnect() {
	delay := time.Second
	for {
		time.Sleep(delay)
		r.mu.Lock()
		if r.closed || len(r.channels) == 0 {
			r.mu.Unlock()
			return
		}
		chans := make([]*channel, 0, len(r.channels))
		for _, ch := range r.channels {
			chans = append(chans, ch)
		}
		r.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), r.joinTimeout)
		var err error
		for _, ch := range chans {
			if err = r.join(ctx, ch, false); err != nil {
				break
			}
		}
		cancel()
		if err == nil {
			glog.Infof("realtime: reconnected %d channel(s)", len(chans))
			return
		}
		glog.Warningf("realtime: reconnect failed: %v", err)
		delay = min(delay*2, maxReconnectDelay)
	}
}

type realtimeSubscription struct {
	rt   *Realtime
	ch   *channel
	once sync.Once
}

func (s *realtimeSubscription) Unsubscribe() {
	s.once.Do(func() { s.rt.leave(s.ch) })
}
