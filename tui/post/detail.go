// Package post renders a single post and its comment thread.
package post

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/feed"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const (
	imageW = 40
	imageH = 16
)

type loadedMsg struct {
	Post     domain.FeedPost
	Comments []domain.CommentView
	Err      error
}

type deletedMsg struct {
	Err error
}

// Model is the post detail screen.
type Model struct {
	ctx     screen.Context
	id      string
	post    domain.FeedPost
	loaded  bool
	err     error
	preview []domain.CommentView
	thumb   string

	likes      *common.LikeGate
	confirming bool
	deleting   bool

	keys    common.KeyMap
	spinner spinner.Model
}

// New shows the post with the given id.
func New(ctx screen.Context, id string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#E1306C"))
	return Model{
		ctx:     ctx,
		id:      id,
		likes:   common.NewLikeGate(),
		keys:    common.DefaultKeyMap(),
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m Model) Title() string { return "Post" }

// Typing holds global keys back while a delete waits for y/n.
func (m Model) Typing() bool { return m.confirming }

func (m Model) Close() {}

func (m Model) Keys() []key.Binding {
	k := m.keys
	b := []key.Binding{k.Like, k.Comments, k.Author, k.Refresh}
	if m.post.IsOwn {
		b = append(b, k.Delete)
	}
	return b
}

func (m Model) load() tea.Cmd {
	social, id := m.ctx.Social, m.id
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		p, err := social.Post(ctx, id)
		if err != nil {
			return loadedMsg{Err: err}
		}
		comments, err := social.Comments(ctx, id, app.PreviewComments)
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Post: p, Comments: comments}
	})
}

func (m Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loaded || m.err != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			glog.Errorf("loading post %s: %v", m.id, msg.Err)
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.post = msg.Post
		m.preview = msg.Comments
		return m, common.ThumbCmd(m.ctx, m.post.ID, m.post.ImageURL, min(imageW, max(m.ctx.Width-4, 8)), imageH)

	case common.ThumbMsg:
		if msg.Err == nil && msg.Key == m.post.ID {
			m.thumb = msg.Art
		}
		return m, nil

	case common.LikeResultMsg:
		return m, common.SettleLike(m.likes, &m.post, msg)

	case deletedMsg:
		m.deleting = false
		if msg.Err != nil {
			glog.Errorf("deleting post %s: %v", m.id, msg.Err)
			return m, screen.Fail("could not delete post", msg.Err)
		}
		glog.Infof("post %s deleted", m.id)
		return m, tea.Batch(screen.Toast("Post deleted"), screen.Back())

	case tea.KeyMsg:
		if m.confirming {
			return m.handleConfirm(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		fresh := New(m.ctx, m.id)
		return fresh, fresh.Init()
	}
	if !m.loaded {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Like):
		return m, common.ToggleLike(m.ctx, m.likes, &m.post)
	case key.Matches(msg, m.keys.Comments), key.Matches(msg, m.keys.Open):
		return m, screen.Navigate(nav.Comments, nav.Params{"id": m.post.ID})
	case key.Matches(msg, m.keys.Author):
		return m, feed.OpenAuthor(m.ctx, m.post.UserID)
	case key.Matches(msg, m.keys.Delete):
		if m.post.IsOwn && !m.deleting {
			m.confirming = true
		}
	}
	return m, nil
}

func (m Model) handleConfirm(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirming = false
		m.deleting = true
		social, id := m.ctx.Social, m.post.ID
		return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
			return deletedMsg{Err: social.DeletePost(ctx, id)}
		})
	case key.Matches(msg, m.keys.Cancel):
		m.confirming = false
	}
	return m, nil
}
