package post

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

type commentsLoadedMsg struct {
	Post     domain.FeedPost
	Comments []domain.CommentView
	Err      error
}

type commentAddedMsg struct {
	Comment domain.CommentView
	Err     error
}

// Comments lists every comment on a post, oldest first, above an input.
type Comments struct {
	ctx      screen.Context
	id       string
	post     domain.FeedPost
	comments []domain.CommentView
	loaded   bool
	loadErr  error
	cursor   int
	input    textinput.Model
	sending  bool
	err      error // inline validation
	keys     common.KeyMap
}

func NewComments(ctx screen.Context, id string) Comments {
	ti := textinput.New()
	ti.Placeholder = "Add a comment…"
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Width = max(ctx.Width-6, 20)
	ti.Focus()
	return Comments{
		ctx:   ctx,
		id:    id,
		input: ti,
		keys:  common.DefaultKeyMap(),
	}
}

func (m Comments) Init() tea.Cmd {
	social, id := m.ctx.Social, m.id
	return tea.Batch(textinput.Blink, m.ctx.Run(func(ctx context.Context) tea.Msg {
		p, err := social.Post(ctx, id)
		if err != nil {
			return commentsLoadedMsg{Err: err}
		}
		comments, err := social.Comments(ctx, id, 0)
		return commentsLoadedMsg{Post: p, Comments: comments, Err: err}
	}))
}

func (m Comments) Title() string { return "Comments" }

// Typing is always true: keys go to the input, esc leaves.
func (m Comments) Typing() bool { return true }

func (m Comments) Close() {}

func (m Comments) Keys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (m Comments) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case commentsLoadedMsg:
		if msg.Err != nil {
			m.loadErr = msg.Err
			glog.Errorf("loading comments for %s: %v", m.id, msg.Err)
			return m, nil
		}
		m.loaded = true
		m.loadErr = nil
		m.post = msg.Post
		m.comments = msg.Comments
		m.cursor = max(len(m.comments)-1, 0)
		return m, nil

	case commentAddedMsg:
		m.sending = false
		if msg.Err != nil {
			glog.Errorf("commenting on %s: %v", m.id, msg.Err)
			return m, screen.Fail("could not post comment", msg.Err)
		}
		m.comments = append(m.comments, msg.Comment)
		m.cursor = len(m.comments) - 1
		m.input.Reset()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, screen.Back()
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown:
			if m.cursor < len(m.comments)-1 {
				m.cursor++
			}
			return m, nil
		case tea.KeyEnter:
			return m.send()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Comments) send() (screen.Screen, tea.Cmd) {
	if m.sending || !m.loaded {
		return m, nil
	}
	body, err := domain.ValidateComment(m.input.Value())
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.sending = true
	social, postID, ownerID := m.ctx.Social, m.post.ID, m.post.UserID
	return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
		c, err := social.AddComment(ctx, postID, ownerID, body)
		return commentAddedMsg{Comment: c, Err: err}
	})
}
