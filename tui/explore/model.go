// Package explore renders the discovery grid and the people/hashtag search.
package explore

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
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

// SearchDebounce is how long typing must pause before a search runs.
const SearchDebounce = 300 * time.Millisecond

const (
	tileW = 14
	tileH = 6
)

// --- Messages ---

type gridLoadedMsg struct {
	Load  int
	Page  int
	Posts []domain.FeedPost
	Err   error
}

type debounceMsg struct {
	Seq int
}

type searchResultMsg struct {
	Seq      int
	Query    string
	Profiles []domain.Profile
	Err      error
}

// --- Model ---

type Model struct {
	ctx     screen.Context
	load    int // bumped on refresh
	posts   []domain.FeedPost
	cursor  int
	pager   screen.Pager
	thumbs  map[string]string
	keys    common.KeyMap
	spinner spinner.Model

	searching bool
	input     textinput.Model
	seq       int
	query     string // query the results belong to
	results   []domain.Profile
	resultCur int
	searchErr error
	pending   bool
}

func New(ctx screen.Context) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#E1306C"))

	ti := textinput.New()
	ti.Placeholder = "search people or #tags"
	ti.CharLimit = 64
	ti.Prompt = "🔍 "

	m := Model{
		ctx:     ctx,
		pager:   screen.NewPager(app.FeedPageSize),
		thumbs:  map[string]string{},
		keys:    common.DefaultKeyMap(),
		spinner: s,
		input:   ti,
	}
	m.pager.Begin()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(0), m.spinner.Tick)
}

func (m Model) Title() string { return "Explore" }

func (m Model) Typing() bool { return m.searching }

func (m Model) Close() {}

func (m Model) Keys() []key.Binding {
	k := m.keys
	return []key.Binding{k.Search, k.Up, k.Down, k.Open, k.Refresh, k.Back}
}

func (m Model) fetch(page int) tea.Cmd {
	social, load := m.ctx.Social, m.load
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		posts, err := social.ExplorePage(ctx, page)
		return gridLoadedMsg{Load: load, Page: page, Posts: posts, Err: err}
	})
}

func (m *Model) loadMore() tea.Cmd {
	page, ok := m.pager.Begin()
	if !ok {
		return nil
	}
	return m.fetch(page)
}

func (m Model) columns() int {
	return max(1, m.ctx.Width/(tileW+2))
}

func (m Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case gridLoadedMsg:
		if msg.Load != m.load || msg.Page != m.pager.Loaded() || !m.pager.Loading() {
			return m, nil
		}
		m.pager.Finish(len(msg.Posts), msg.Err)
		if msg.Err != nil {
			glog.Errorf("loading explore: %v", msg.Err)
			return m, nil
		}
		m.posts = append(m.posts, msg.Posts...)
		cmds := make([]tea.Cmd, 0, len(msg.Posts))
		for _, p := range msg.Posts {
			cmds = append(cmds, common.ThumbCmd(m.ctx, p.ID, p.ImageURL, tileW, tileH))
		}
		return m, tea.Batch(cmds...)

	case common.ThumbMsg:
		if msg.Err == nil {
			m.thumbs[msg.Key] = msg.Art
		}
		return m, nil

	case debounceMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		return m, m.search()

	case searchResultMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.pending = false
		m.query = msg.Query
		m.results = msg.Profiles
		m.searchErr = msg.Err
		m.resultCur = 0
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleGridKey(msg)
	}
	return m, nil
}

func (m Model) handleGridKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	cols := m.columns()
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		fresh := New(m.ctx)
		fresh.load = m.load + 1
		return fresh, fresh.Init()
	case msg.String() == "left" || msg.String() == "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case msg.String() == "right" || msg.String() == "l":
		if m.cursor < len(m.posts)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor-cols >= 0 {
			m.cursor -= cols
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor+cols < len(m.posts) {
			m.cursor += cols
		} else if len(m.posts) > 0 {
			m.cursor = len(m.posts) - 1
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.posts) {
			return m, screen.Navigate(nav.Post, nav.Params{"id": m.posts[m.cursor].ID})
		}
		return m, nil
	default:
		return m, nil
	}
	// The last row is the sentinel for the grid.
	if len(m.posts) > 0 && m.cursor/cols == (len(m.posts)-1)/cols {
		return m, m.loadMore()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.input.Blur()
		return m, nil
	case "up":
		if m.resultCur > 0 {
			m.resultCur--
		}
		return m, nil
	case "down":
		if m.resultCur < m.resultCount()-1 {
			m.resultCur++
		}
		return m, nil
	case "enter":
		return m, m.openResult()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m.seq++
	seq := m.seq
	if strings.TrimSpace(m.input.Value()) == "" {
		m.results, m.query, m.pending = nil, "", false
		return m, cmd
	}
	m.pending = true
	return m, tea.Batch(cmd, tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{Seq: seq}
	}))
}

func (m Model) search() tea.Cmd {
	value := strings.TrimSpace(m.input.Value())
	seq := m.seq
	if strings.HasPrefix(value, "#") {
		return screen.Emit(searchResultMsg{Seq: seq, Query: value})
	}
	social := m.ctx.Social
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		profiles, err := social.SearchProfiles(ctx, value)
		return searchResultMsg{Seq: seq, Query: value, Profiles: profiles, Err: err}
	})
}

// hashtag returns the tag the current results offer, if any.
func (m Model) hashtag() string {
	if !strings.HasPrefix(m.query, "#") {
		return ""
	}
	return domain.NormalizeHashtag(m.query)
}

func (m Model) resultCount() int {
	if m.hashtag() != "" {
		return 1
	}
	return len(m.results)
}

func (m Model) openResult() tea.Cmd {
	if tag := m.hashtag(); tag != "" {
		return screen.Navigate(nav.Hashtag, nav.Params{"tag": tag})
	}
	if m.resultCur < len(m.results) {
		return feed.OpenAuthor(m.ctx, m.results[m.resultCur].ID)
	}
	return nil
}
