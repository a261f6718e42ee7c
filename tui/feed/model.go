// Package feed renders paged post lists: the home feed and hashtag pages.
package feed

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
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const (
	thumbW = 24
	thumbH = 8
)

type source int

const (
	sourceFeed source = iota
	sourceHashtag
)

// --- Messages ---

type pageLoadedMsg struct {
	Load    int
	Page    int
	Posts   []domain.FeedPost
	Scanned int // rows the page consumed; hashtag pages may keep fewer
	Err     error
}

// --- Model ---

// Model holds the state for a post list.
type Model struct {
	ctx     screen.Context
	source  source
	tag     string
	load    int // bumped on refresh; older pages are dropped
	posts   []domain.FeedPost
	cursor  int // len(posts) while on the sentinel
	pager   screen.Pager
	likes   *common.LikeGate
	thumbs  map[string]string
	keys    common.KeyMap
	spinner spinner.Model
}

// New creates the home feed.
func New(ctx screen.Context) Model {
	return newModel(ctx, sourceFeed, "")
}

// NewHashtag lists posts carrying #tag.
func NewHashtag(ctx screen.Context, tag string) Model {
	return newModel(ctx, sourceHashtag, domain.NormalizeHashtag(tag))
}

func newModel(ctx screen.Context, src source, tag string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#E1306C"))
	m := Model{
		ctx:     ctx,
		source:  src,
		tag:     tag,
		pager:   screen.NewPager(app.FeedPageSize),
		likes:   common.NewLikeGate(),
		thumbs:  map[string]string{},
		keys:    common.DefaultKeyMap(),
		spinner: s,
	}
	m.pager.Begin() // first page is fetched by Init
	return m
}

// Init starts the first page fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(0), m.spinner.Tick)
}

func (m Model) Title() string {
	if m.source == sourceHashtag {
		return "#" + m.tag
	}
	return "Feed"
}

func (m Model) Typing() bool { return false }

func (m Model) Close() {}

func (m Model) Keys() []key.Binding {
	k := m.keys
	return []key.Binding{k.Up, k.Down, k.Open, k.Like, k.Comments, k.Author, k.Refresh}
}

func (m *Model) loadNext() tea.Cmd {
	page, ok := m.pager.Begin()
	if !ok {
		return nil
	}
	return m.fetch(page)
}

func (m Model) fetch(page int) tea.Cmd {
	social, src, tag, load := m.ctx.Social, m.source, m.tag, m.load
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		var (
			posts   []domain.FeedPost
			scanned int
			err     error
		)
		switch src {
		case sourceHashtag:
			posts, scanned, err = social.HashtagPage(ctx, tag, page)
		default:
			posts, err = social.FeedPage(ctx, page)
			scanned = len(posts)
		}
		return pageLoadedMsg{Load: load, Page: page, Posts: posts, Scanned: scanned, Err: err}
	})
}

// Update handles messages for the list.
func (m Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pageLoadedMsg:
		if msg.Load != m.load || msg.Page != m.pager.Loaded() || !m.pager.Loading() {
			glog.V(2).Infof("dropping stale %s page %d", m.Title(), msg.Page)
			return m, nil
		}
		n := len(msg.Posts)
		m.pager.Finish(msg.Scanned, msg.Err)
		if msg.Err != nil {
			glog.Errorf("loading %s page %d: %v", m.Title(), msg.Page, msg.Err)
			return m, nil
		}
		m.posts = append(m.posts, msg.Posts...)
		cmds := make([]tea.Cmd, 0, n)
		for _, p := range msg.Posts {
			cmds = append(cmds, common.ThumbCmd(m.ctx, p.ID, p.ImageURL, thumbW, thumbH))
		}
		return m, tea.Batch(cmds...)

	case common.ThumbMsg:
		if msg.Err == nil {
			m.thumbs[msg.Key] = msg.Art
		}
		return m, nil

	case common.LikeResultMsg:
		return m, common.SettleLike(m.likes, m.find(msg.PostID), msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		limit := len(m.posts) - 1
		if m.pager.Sentinel() {
			limit = len(m.posts)
		}
		if m.cursor < limit {
			m.cursor++
		}
		if m.onSentinel() {
			return m, m.loadNext()
		}
	case key.Matches(msg, m.keys.Refresh):
		fresh := newModel(m.ctx, m.source, m.tag)
		fresh.load = m.load + 1
		return fresh, fresh.Init()
	}

	p := m.selected()
	if p == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Open):
		return m, screen.Navigate(nav.Post, nav.Params{"id": p.ID})
	case key.Matches(msg, m.keys.Comments):
		return m, screen.Navigate(nav.Comments, nav.Params{"id": p.ID})
	case key.Matches(msg, m.keys.Author):
		return m, OpenAuthor(m.ctx, p.UserID)
	case key.Matches(msg, m.keys.Like):
		return m, common.ToggleLike(m.ctx, m.likes, p)
	}
	return m, nil
}

// OpenAuthor shows the user's own profile or another user's page.
func OpenAuthor(c screen.Context, userID string) tea.Cmd {
	if userID == c.Session.UserID {
		return screen.Navigate(nav.Profile, nil)
	}
	return screen.Navigate(nav.User, nav.Params{"id": userID})
}

func (m Model) onSentinel() bool {
	return m.pager.Sentinel() && m.cursor == len(m.posts)
}

func (m *Model) selected() *domain.FeedPost {
	if m.cursor < 0 || m.cursor >= len(m.posts) {
		return nil
	}
	return &m.posts[m.cursor]
}

func (m *Model) find(id string) *domain.FeedPost {
	for i := range m.posts {
		if m.posts[i].ID == id {
			return &m.posts[i]
		}
	}
	return nil
}
