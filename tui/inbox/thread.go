package inbox

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

type peerMsg struct {
	Peer domain.Profile
	Err  error
}

type historyMsg struct {
	Page     int
	Messages []domain.Message
	Err      error
}

type subscribedMsg struct {
	Err error
}

type sentMsg struct {
	Message domain.Message
	Err     error
}

type readMsg struct {
	Err error
}

// lifetime lets a subscription that finishes opening after the screen is
// gone be torn down again.
type lifetime struct {
	mu     sync.Mutex
	closed bool
}

func (l *lifetime) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *lifetime) done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Thread is one conversation, oldest message at the top.
type Thread struct {
	ctx  screen.Context
	id   string
	peer domain.Profile
	life *lifetime

	messages []domain.Message
	seen     map[string]bool
	pager    screen.Pager
	row      int // 0 is the "older" sentinel while one is shown
	follow   bool
	err      error
	live     bool

	input   textinput.Model
	sending bool
	sendErr error
	keys    common.KeyMap
}

func NewThread(ctx screen.Context, conversationID string) Thread {
	ti := textinput.New()
	ti.Placeholder = "Message…"
	ti.Prompt = "› "
	ti.CharLimit = 1000
	ti.Width = max(ctx.Width-6, 20)
	ti.Focus()
	t := Thread{
		ctx:    ctx,
		id:     conversationID,
		life:   &lifetime{},
		seen:   map[string]bool{},
		pager:  screen.NewPager(app.ThreadPageSize),
		follow: true,
		input:  ti,
		keys:   common.DefaultKeyMap(),
	}
	t.pager.Begin()
	return t
}

func (m Thread) Init() tea.Cmd {
	social, subs, id, life := m.ctx.Social, m.ctx.Subs, m.id, m.life
	cmds := []tea.Cmd{
		textinput.Blink,
		m.ctx.Run(func(ctx context.Context) tea.Msg {
			p, err := social.Peer(ctx, id)
			return peerMsg{Peer: p, Err: err}
		}),
		m.fetch(0),
		m.markRead(),
	}
	if subs != nil {
		cmds = append(cmds, m.ctx.Run(func(ctx context.Context) tea.Msg {
			if life.done() {
				return nil
			}
			err := subs.OpenThread(ctx, id)
			if err == nil && life.done() && subs.ThreadConversation() == id {
				subs.CloseThread()
			}
			return subscribedMsg{Err: err}
		}))
	}
	return tea.Batch(cmds...)
}

func (m Thread) Title() string {
	if m.peer.ID != "" {
		return "@" + m.peer.Username
	}
	return "Thread"
}

// Typing is always true: keys go to the send box.
func (m Thread) Typing() bool { return true }

// Close marks the screen gone. The host closes the subscription itself.
func (m Thread) Close() { m.life.close() }

func (m Thread) Keys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll, top loads older")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (m Thread) fetch(page int) tea.Cmd {
	social, id := m.ctx.Social, m.id
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		msgs, err := social.MessagesPage(ctx, id, page)
		return historyMsg{Page: page, Messages: msgs, Err: err}
	})
}

func (m Thread) markRead() tea.Cmd {
	social, id := m.ctx.Social, m.id
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		return readMsg{Err: social.MarkRead(ctx, id)}
	})
}

func (m Thread) rows() int {
	if m.pager.Sentinel() {
		return len(m.messages) + 1
	}
	return len(m.messages)
}

func (m Thread) offset() int {
	if m.pager.Sentinel() {
		return 1
	}
	return 0
}

func (m Thread) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case peerMsg:
		if msg.Err != nil {
			glog.Warningf("thread %s: peer: %v", m.id, msg.Err)
			return m, nil
		}
		m.peer = msg.Peer
		return m, nil

	case historyMsg:
		m.pager.Finish(len(msg.Messages), msg.Err)
		if msg.Err != nil {
			m.err = msg.Err
			glog.Errorf("thread %s page %d: %v", m.id, msg.Page, msg.Err)
			return m, nil
		}
		m.err = nil
		older := make([]domain.Message, 0, len(msg.Messages))
		for _, x := range msg.Messages {
			if !m.seen[x.ID] {
				m.seen[x.ID] = true
				older = append(older, x)
			}
		}
		m.messages = append(older, m.messages...)
		if m.follow {
			m.row = max(m.rows()-1, 0)
		} else {
			m.row = min(m.row+len(older), max(m.rows()-1, 0))
		}
		return m, nil

	case subscribedMsg:
		if msg.Err != nil {
			glog.Warningf("thread %s: live updates unavailable: %v", m.id, msg.Err)
			return m, screen.Fail("live updates unavailable", msg.Err)
		}
		m.live = true
		return m, nil

	case screen.RealtimeMsg:
		ev := msg.Event
		if ev.Kind != app.ThreadSubscription || ev.Message.ConversationID != m.id {
			return m, nil
		}
		if !m.add(ev.Message) {
			return m, nil
		}
		if ev.Message.SenderID != m.ctx.Session.UserID {
			return m, m.markRead()
		}
		return m, nil

	case sentMsg:
		m.sending = false
		if msg.Err != nil && msg.Message.ID == "" {
			glog.Errorf("sending to %s: %v", m.id, msg.Err)
			return m, screen.Fail("message not sent", msg.Err)
		}
		m.add(msg.Message)
		m.input.Reset()
		if msg.Err != nil {
			glog.Warningf("thread %s after send: %v", m.id, msg.Err)
		}
		return m, screen.Emit(screen.RefreshBadgeMsg{})

	case readMsg:
		if msg.Err != nil {
			glog.Warningf("thread %s: %v", m.id, msg.Err)
			return m, nil
		}
		return m, screen.Emit(screen.RefreshBadgeMsg{})

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, screen.Back()
		case tea.KeyUp:
			if m.row > 0 {
				m.row--
			}
			m.follow = false
			if m.pager.Sentinel() && m.row == 0 {
				if page, ok := m.pager.Begin(); ok {
					return m, m.fetch(page)
				}
			}
			return m, nil
		case tea.KeyDown:
			if m.row < m.rows()-1 {
				m.row++
			}
			m.follow = m.row == m.rows()-1
			return m, nil
		case tea.KeyEnter:
			return m.send()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// add appends a message unless it is already shown.
func (m *Thread) add(x domain.Message) bool {
	if x.ID == "" || m.seen[x.ID] {
		return false
	}
	m.seen[x.ID] = true
	m.messages = append(m.messages, x)
	if m.follow {
		m.row = max(m.rows()-1, 0)
	}
	return true
}

func (m Thread) send() (screen.Screen, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	body, err := domain.ValidateMessage(m.input.Value())
	if err != nil {
		m.sendErr = err
		return m, nil
	}
	m.sendErr = nil
	m.sending = true
	m.follow = true
	social, id, peer := m.ctx.Social, m.id, m.peer.ID
	return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
		x, err := social.SendMessage(ctx, id, peer, body)
		return sentMsg{Message: x, Err: err}
	})
}
