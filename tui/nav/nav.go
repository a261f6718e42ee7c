// Package nav is the client's view-state machine: the active view, its
// parameters and the back-stack of ancestors.
package nav

import (
	"maps"
	"strconv"

	"github.com/golang/glog"
)

// View names a renderable screen.
type View int

const (
	Feed View = iota
	Explore
	Camera
	Notifications
	Profile
	User
	Post
	Comments
	Settings
	EditProfile
	Hashtag
	Inbox
	Thread
)

var viewNames = [...]string{
	Feed:          "feed",
	Explore:       "explore",
	Camera:        "camera",
	Notifications: "notifications",
	Profile:       "profile",
	User:          "user",
	Post:          "post",
	Comments:      "comments",
	Settings:      "settings",
	EditProfile:   "editProfile",
	Hashtag:       "hashtag",
	Inbox:         "inbox",
	Thread:        "thread",
}

func (v View) String() string {
	if v >= 0 && int(v) < len(viewNames) {
		return viewNames[v]
	}
	return "view(" + strconv.Itoa(int(v)) + ")"
}

// Tabs are the bottom navigation targets, in display order.
var Tabs = []View{Feed, Explore, Camera, Notifications, Profile}

// IsTab reports whether v is a bottom navigation target.
func IsTab(v View) bool {
	for _, t := range Tabs {
		if t == v {
			return true
		}
	}
	return false
}

// Params are opaque to the controller; screens read keys such as "id".
type Params map[string]string

// Get returns p[key] or "" for a nil map.
func (p Params) Get(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

// Entry is one view with its parameters.
type Entry struct {
	View   View
	Params Params
}

// Transition describes a state change; the host re-renders on every one.
type Transition struct {
	From Entry
	To   Entry
}

// Leaving reports whether the transition moves away from v.
func (t Transition) Leaving(v View) bool {
	return t.From.View == v && (t.To.View != v || t.To.Params.Get("id") != t.From.Params.Get("id"))
}

// Controller holds the current entry and its ancestors. The stack never
// contains the current entry.
type Controller struct {
	current Entry
	stack   []Entry
}

// New starts on the feed with no history.
func New() *Controller {
	return &Controller{current: Entry{View: Feed, Params: Params{}}}
}

// Current returns the active entry.
func (c *Controller) Current() Entry {
	return Entry{View: c.current.View, Params: maps.Clone(c.current.Params)}
}

// Depth is the number of ancestors on the stack.
func (c *Controller) Depth() int {
	return len(c.stack)
}

// Navigate makes view current. With push, the outgoing entry is saved for
// Back unless view is already current.
func (c *Controller) Navigate(view View, params Params, push bool) Transition {
	if params == nil {
		params = Params{}
	}
	from := c.current
	if push && view != c.current.View {
		c.stack = append(c.stack, c.current)
	}
	c.current = Entry{View: view, Params: maps.Clone(params)}
	glog.V(1).Infof("nav: %s -> %s (depth %d)", from.View, view, len(c.stack))
	return Transition{From: from, To: c.current}
}

// Back restores the most recent ancestor, or the feed when there is none.
func (c *Controller) Back() Transition {
	if n := len(c.stack); n > 0 {
		from := c.current
		c.current = c.stack[n-1]
		c.stack = c.stack[:n-1]
		glog.V(1).Infof("nav: back %s -> %s (depth %d)", from.View, c.current.View, len(c.stack))
		return Transition{From: from, To: c.current}
	}
	return c.Navigate(Feed, Params{}, false)
}

// SwitchTab clears the history and shows tab with no parameters.
func (c *Controller) SwitchTab(tab View) Transition {
	c.stack = c.stack[:0]
	return c.Navigate(tab, Params{}, false)
}
