package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/config"
	"github.com/CrestNiraj12/realinsta/tui/camera"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/explore"
	"github.com/CrestNiraj12/realinsta/tui/feed"
	"github.com/CrestNiraj12/realinsta/tui/inbox"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/notifications"
	"github.com/CrestNiraj12/realinsta/tui/post"
	"github.com/CrestNiraj12/realinsta/tui/profile"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const (
	toastTTL     = 4 * time.Second
	badgeTimeout = 10 * time.Second
	chromeHeight = 4 // header, spacer, toast, bottom nav
)

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	screen.Deps
	Auth        app.AuthService
	UIStatePath string
}

// Factory builds the screen for a view.
type Factory func(ctx screen.Context, params nav.Params) screen.Screen

// Registry maps every view to its screen.
func Registry() map[nav.View]Factory {
	return map[nav.View]Factory{
		nav.Feed:          func(c screen.Context, _ nav.Params) screen.Screen { return feed.New(c) },
		nav.Explore:       func(c screen.Context, _ nav.Params) screen.Screen { return explore.New(c) },
		nav.Camera:        func(c screen.Context, _ nav.Params) screen.Screen { return camera.New(c) },
		nav.Notifications: func(c screen.Context, _ nav.Params) screen.Screen { return notifications.New(c) },
		nav.Profile:       func(c screen.Context, _ nav.Params) screen.Screen { return profile.New(c, "") },
		nav.User:          func(c screen.Context, p nav.Params) screen.Screen { return profile.New(c, p.Get("id")) },
		nav.Post:          func(c screen.Context, p nav.Params) screen.Screen { return post.New(c, p.Get("id")) },
		nav.Comments:      func(c screen.Context, p nav.Params) screen.Screen { return post.NewComments(c, p.Get("id")) },
		nav.Settings:      func(c screen.Context, _ nav.Params) screen.Screen { return profile.NewSettings(c) },
		nav.EditProfile:   func(c screen.Context, _ nav.Params) screen.Screen { return profile.NewEdit(c) },
		nav.Hashtag:       func(c screen.Context, p nav.Params) screen.Screen { return feed.NewHashtag(c, p.Get("tag")) },
		nav.Inbox:         func(c screen.Context, _ nav.Params) screen.Screen { return inbox.New(c) },
		nav.Thread:        func(c screen.Context, p nav.Params) screen.Screen { return inbox.NewThread(c, p.Get("id")) },
	}
}

// --- Messages ---

type realtimeMsg struct {
	Event app.MessageEvent
}

type badgeMsg struct {
	Messages      int
	Notifications int
	Err           error
}

type toastExpiredMsg struct {
	Seq int
}

type signedOutMsg struct {
	Err error
}

// App is the root Bubble Tea model. It owns navigation and routes messages
// to the one live screen.
type App struct {
	deps     Deps
	registry map[nav.View]Factory
	nav      *nav.Controller
	current  screen.Screen
	gen      int
	initCmd  tea.Cmd

	width, height int

	unread       int
	unreadNotifs int

	toast    string
	toastErr bool
	toastSeq int

	help      bool
	signedOut bool
	keys      common.KeyMap
}

// NewApp creates the root model showing the feed.
func NewApp(deps Deps) App {
	return newApp(deps, Registry())
}

func newApp(deps Deps, registry map[nav.View]Factory) App {
	a := App{
		deps:     deps,
		registry: registry,
		nav:      nav.New(),
		width:    80,
		height:   24,
		keys:     common.DefaultKeyMap(),
	}
	a.initCmd = a.render(nav.Transition{To: a.nav.Current()})
	return a
}

// SignedOut reports whether the program ended by signing out.
func (a App) SignedOut() bool { return a.signedOut }

func (a App) Init() tea.Cmd {
	return tea.Batch(a.initCmd, a.waitForEvent(), a.refreshBadge())
}

// render swaps in the screen for tr.To. It tears down the outgoing screen
// first, so exclusive resources are free before the next one starts.
func (a *App) render(tr nav.Transition) tea.Cmd {
	if tr.Leaving(nav.Thread) && a.deps.Subs != nil {
		a.deps.Subs.CloseThread()
	}
	if a.current != nil {
		a.current.Close()
	}
	build, ok := a.registry[tr.To.View]
	if !ok {
		panic(fmt.Sprintf("tui: no screen registered for %s", tr.To.View))
	}
	a.gen++
	glog.V(1).Infof("render %s -> %s (gen %d, depth %d)", tr.From.View, tr.To.View, a.gen, a.nav.Depth())
	a.current = build(a.screenContext(), tr.To.Params)
	return a.current.Init()
}

func (a App) screenContext() screen.Context {
	return screen.Context{
		Deps:   a.deps.Deps,
		Gen:    a.gen,
		Width:  a.width,
		Height: max(a.height-chromeHeight, 5),
	}
}

func (a App) waitForEvent() tea.Cmd {
	if a.deps.Subs == nil {
		return nil
	}
	events := a.deps.Subs.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return realtimeMsg{Event: ev}
	}
}

func (a App) refreshBadge() tea.Cmd {
	social := a.deps.Social
	if social == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), badgeTimeout)
		defer cancel()
		msgs, err := social.UnreadMessages(ctx)
		if err != nil {
			return badgeMsg{Err: err}
		}
		notifs, err := social.UnreadNotifications(ctx)
		return badgeMsg{Messages: msgs, Notifications: notifs, Err: err}
	}
}

// Update handles host messages and routes the rest to the current screen.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.ResultMsg:
		if msg.Gen != a.gen {
			glog.V(2).Infof("dropping %T from generation %d (current %d)", msg.Msg, msg.Gen, a.gen)
			return a, nil
		}
		if msg.Msg == nil {
			return a, nil
		}
		return a.Update(msg.Msg)

	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a.forward(msg)

	case screen.NavigateMsg:
		return a, a.render(a.nav.Navigate(msg.View, msg.Params, msg.Push))

	case screen.SwitchTabMsg:
		return a, a.render(a.nav.SwitchTab(msg.Tab))

	case screen.BackMsg:
		return a, a.render(a.nav.Back())

	case screen.ToastMsg:
		a.toastSeq++
		a.toast, a.toastErr = msg.Text, msg.Err != nil
		if msg.Err != nil {
			a.toast += ": " + screen.ErrorText(msg.Err)
		}
		seq := a.toastSeq
		return a, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{Seq: seq} })

	case toastExpiredMsg:
		if msg.Seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case screen.UIStateMsg:
		a.deps.UIState = msg.State
		path, st := a.deps.UIStatePath, msg.State
		if path == "" {
			return a, nil
		}
		return a, func() tea.Msg {
			if err := config.SaveUIState(path, st); err != nil {
				glog.Warningf("saving ui state: %v", err)
			}
			return nil
		}

	case screen.RefreshBadgeMsg:
		return a, a.refreshBadge()

	case badgeMsg:
		if msg.Err != nil {
			glog.Warningf("refreshing badges: %v", msg.Err)
			return a, nil
		}
		a.unread, a.unreadNotifs = msg.Messages, msg.Notifications
		return a, nil

	case realtimeMsg:
		ev := msg.Event
		if ev.Kind == app.GlobalSubscription && ev.Message.SenderID != a.deps.Session.UserID &&
			(a.deps.Subs == nil || ev.Message.ConversationID != a.deps.Subs.ThreadConversation()) {
			a.unread++
		}
		next, cmd := a.forward(screen.RealtimeMsg{Event: ev})
		return next, tea.Batch(cmd, a.waitForEvent())

	case screen.SignOutMsg:
		if a.deps.Subs != nil {
			a.deps.Subs.Close()
		}
		if a.current != nil {
			a.current.Close()
		}
		auth := a.deps.Auth
		return a, func() tea.Msg {
			if auth == nil {
				return signedOutMsg{}
			}
			ctx, cancel := context.WithTimeout(context.Background(), badgeTimeout)
			defer cancel()
			return signedOutMsg{Err: auth.SignOut(ctx)}
		}

	case signedOutMsg:
		if msg.Err != nil {
			glog.Errorf("sign out: %v", msg.Err)
		}
		glog.Infof("signed out")
		a.signedOut = true
		return a, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a.quit()
		}
		if a.help {
			a.help = false
			return a, nil
		}
		if !a.current.Typing() {
			if next, cmd, ok := a.globalKey(msg); ok {
				return next, cmd
			}
		}
	}
	return a.forward(msg)
}

func (a App) globalKey(msg tea.KeyMsg) (App, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		next, cmd := a.quit()
		return next.(App), cmd, true
	case key.Matches(msg, a.keys.Help):
		a.help = true
		return a, nil, true
	case key.Matches(msg, a.keys.Back):
		return a, a.render(a.nav.Back()), true
	case key.Matches(msg, a.keys.Inbox):
		return a, a.render(a.nav.Navigate(nav.Inbox, nil, true)), true
	}
	for i, b := range []key.Binding{a.keys.Tab1, a.keys.Tab2, a.keys.Tab3, a.keys.Tab4, a.keys.Tab5} {
		if key.Matches(msg, b) {
			return a, a.render(a.nav.SwitchTab(nav.Tabs[i])), true
		}
	}
	return a, nil, false
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.current != nil {
		a.current.Close()
	}
	if a.deps.Subs != nil {
		a.deps.Subs.Close()
	}
	return a, tea.Quit
}

func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.current.Update(msg)
	a.current = next
	return a, cmd
}

// --- View ---

func (a App) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render(domain.AppTitle))
	b.WriteString(common.ViewTitleStyle.Render(a.current.Title()))
	b.WriteString("\n\n")

	body := a.current.View()
	if a.help {
		body = a.helpView()
	}
	b.WriteString(lipgloss.NewStyle().Height(max(a.height-chromeHeight, 1)).MaxHeight(max(a.height-chromeHeight, 1)).Render(body))
	b.WriteByte('\n')

	switch {
	case a.toast != "" && a.toastErr:
		b.WriteString(common.ErrorStyle.Render(a.toast))
	case a.toast != "":
		b.WriteString(common.StatusBarStyle.Render(a.toast))
	}
	b.WriteByte('\n')
	b.WriteString(a.tabBar())
	return b.String()
}

var tabLabels = map[nav.View]string{
	nav.Feed:          "1 Feed",
	nav.Explore:       "2 Explore",
	nav.Camera:        "3 Post",
	nav.Notifications: "4 Activity",
	nav.Profile:       "5 Profile",
}

func (a App) tabBar() string {
	active := a.activeTab()
	parts := make([]string, 0, len(nav.Tabs)+1)
	for _, t := range nav.Tabs {
		label := tabLabels[t]
		if t == nav.Notifications && a.unreadNotifs > 0 {
			label += " " + common.BadgeStyle.Render(fmt.Sprint(a.unreadNotifs))
		}
		if t == active {
			parts = append(parts, common.TabActiveStyle.Render(label))
		} else {
			parts = append(parts, common.TabInactiveStyle.Render(label))
		}
	}
	inboxLabel := "i Inbox"
	if a.unread > 0 {
		inboxLabel += " " + common.BadgeStyle.Render(fmt.Sprint(a.unread))
	}
	if v := a.nav.Current().View; v == nav.Inbox || v == nav.Thread {
		parts = append(parts, common.TabActiveStyle.Render(inboxLabel))
	} else {
		parts = append(parts, common.TabInactiveStyle.Render(inboxLabel))
	}
	return strings.Join(parts, " ") + common.MutedStyle.Render("  ? help")
}

// activeTab is the current view when it is a tab.
func (a App) activeTab() nav.View {
	if v := a.nav.Current().View; nav.IsTab(v) {
		return v
	}
	return -1
}

func (a App) helpView() string {
	global := []key.Binding{a.keys.Tab1, a.keys.Tab2, a.keys.Tab3, a.keys.Tab4, a.keys.Tab5,
		a.keys.Inbox, a.keys.Back, a.keys.Help, a.keys.Quit, a.keys.ForceQuit}
	var b strings.Builder
	b.WriteString(common.AuthorStyle.Render(a.current.Title()) + "\n")
	for _, k := range a.current.Keys() {
		b.WriteString(helpLine(k))
	}
	b.WriteString("\n" + common.AuthorStyle.Render("Everywhere") + "\n")
	for _, k := range global {
		b.WriteString(helpLine(k))
	}
	b.WriteString("\n" + common.MutedStyle.Render("press any key to close"))
	return common.HelpBoxStyle.Render(b.String())
}

func helpLine(k key.Binding) string {
	h := k.Help()
	return fmt.Sprintf("  %-10s %s\n", h.Key, common.MutedStyle.Render(h.Desc))
}
