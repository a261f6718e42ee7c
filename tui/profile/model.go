// Package profile renders profiles and the account screens: the signed-in
// user's profile, other users' pages, settings and profile editing.
package profile

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

type headerMsg struct {
	Profile   domain.Profile
	Stats     app.ProfileStats
	Following bool
	Err       error
}

type postsMsg struct {
	Page  int
	Posts []domain.FeedPost
	Err   error
}

type followMsg struct {
	Following bool
	Err       error
}

type conversationMsg struct {
	ID  string
	Err error
}

// Model shows a profile header and the user's posts.
type Model struct {
	ctx    screen.Context
	userID string
	own    bool

	profile   domain.Profile
	stats     app.ProfileStats
	following bool
	loaded    bool
	err       error
	busy      bool // follow or message in flight

	posts  []domain.FeedPost
	cursor int
	pager  screen.Pager

	keys    common.KeyMap
	spinner spinner.Model
}

// New shows userID's profile; the signed-in user gets the own-profile
// actions.
func New(ctx screen.Context, userID string) Model {
	if userID == "" {
		userID = ctx.Session.UserID
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#E1306C"))
	m := Model{
		ctx:     ctx,
		userID:  userID,
		own:     userID == ctx.Session.UserID,
		pager:   screen.NewPager(app.FeedPageSize),
		keys:    common.DefaultKeyMap(),
		spinner: s,
	}
	m.pager.Begin()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.header(), m.fetch(0), m.spinner.Tick)
}

func (m Model) Title() string {
	if m.own {
		return "Profile"
	}
	if m.loaded {
		return "@" + m.profile.Username
	}
	return "User"
}

func (m Model) Typing() bool { return false }

func (m Model) Close() {}

func (m Model) Keys() []key.Binding {
	k := m.keys
	b := []key.Binding{k.Up, k.Down, k.Open, k.Refresh}
	if m.own {
		return append(b, k.Edit, k.Settings)
	}
	return append(b, k.Follow, k.Message)
}

func (m Model) header() tea.Cmd {
	social, id, own := m.ctx.Social, m.userID, m.own
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		p, err := social.Profile(ctx, id)
		if err != nil {
			return headerMsg{Err: err}
		}
		st, err := social.Stats(ctx, id)
		if err != nil {
			return headerMsg{Err: err}
		}
		following := false
		if !own {
			if following, err = social.IsFollowing(ctx, id); err != nil {
				return headerMsg{Err: err}
			}
		}
		return headerMsg{Profile: p, Stats: st, Following: following}
	})
}

func (m Model) fetch(page int) tea.Cmd {
	social, id := m.ctx.Social, m.userID
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		posts, err := social.UserPostsPage(ctx, id, page)
		return postsMsg{Page: page, Posts: posts, Err: err}
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

	case headerMsg:
		if msg.Err != nil {
			m.err = msg.Err
			glog.Errorf("loading profile %s: %v", m.userID, msg.Err)
			return m, nil
		}
		m.loaded = true
		m.profile, m.stats, m.following = msg.Profile, msg.Stats, msg.Following
		return m, nil

	case postsMsg:
		m.pager.Finish(len(msg.Posts), msg.Err)
		if msg.Err != nil {
			glog.Errorf("loading posts of %s page %d: %v", m.userID, msg.Page, msg.Err)
			return m, nil
		}
		m.posts = append(m.posts, msg.Posts...)
		return m, nil

	case followMsg:
		m.busy = false
		if msg.Err != nil {
			return m, screen.Fail("follow failed", msg.Err)
		}
		if msg.Following != m.following {
			m.following = msg.Following
			if msg.Following {
				m.stats.Followers++
			} else if m.stats.Followers > 0 {
				m.stats.Followers--
			}
		}
		return m, nil

	case conversationMsg:
		m.busy = false
		if msg.Err != nil {
			return m, screen.Fail("could not open conversation", msg.Err)
		}
		return m, screen.Navigate(nav.Thread, nav.Params{"id": msg.ID})

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		fresh := New(m.ctx, m.userID)
		return fresh, fresh.Init()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		limit := len(m.posts) - 1
		if m.pager.Sentinel() {
			limit = len(m.posts)
		}
		if m.cursor < limit {
			m.cursor++
		}
		if m.pager.Sentinel() && m.cursor == len(m.posts) {
			if page, ok := m.pager.Begin(); ok {
				return m, m.fetch(page)
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.posts) {
			return m, screen.Navigate(nav.Post, nav.Params{"id": m.posts[m.cursor].ID})
		}
		return m, nil
	}

	if m.own {
		switch {
		case key.Matches(msg, m.keys.Settings):
			return m, screen.Navigate(nav.Settings, nil)
		case key.Matches(msg, m.keys.Edit):
			return m, screen.Navigate(nav.EditProfile, nil)
		}
		return m, nil
	}
	if !m.loaded || m.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Follow):
		m.busy = true
		social, id, follow := m.ctx.Social, m.userID, !m.following
		return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
			var err error
			if follow {
				err = social.Follow(ctx, id)
			} else {
				err = social.Unfollow(ctx, id)
			}
			return followMsg{Following: follow, Err: err}
		})
	case key.Matches(msg, m.keys.Message):
		m.busy = true
		social, id := m.ctx.Social, m.userID
		return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
			conv, err := social.ConversationWith(ctx, id)
			return conversationMsg{ID: conv, Err: err}
		})
	}
	return m, nil
}
