package common

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

// DoubleTapWindow is how close two like presses must be to count as a
// double tap.
const DoubleTapWindow = 350 * time.Millisecond

// LikeGate turns like key presses into at most one in-flight mutation per
// post. A second press inside DoubleTapWindow means "like"; it never unlikes.
type LikeGate struct {
	inflight map[string]bool
	lastTap  map[string]time.Time
	now      func() time.Time
}

func NewLikeGate() *LikeGate {
	return &LikeGate{
		inflight: map[string]bool{},
		lastTap:  map[string]time.Time{},
		now:      time.Now,
	}
}

// SetClock replaces the time source; tests only.
func (g *LikeGate) SetClock(now func() time.Time) { g.now = now }

// Press records a press on postID, which is currently liked or not. It
// returns the desired state and whether a mutation should be sent.
func (g *LikeGate) Press(postID string, liked bool) (want bool, send bool) {
	now := g.now()
	last, seen := g.lastTap[postID]
	g.lastTap[postID] = now
	if g.inflight[postID] {
		return liked, false
	}
	if seen && now.Sub(last) <= DoubleTapWindow {
		if liked {
			return true, false
		}
		want = true
	} else {
		want = !liked
	}
	g.inflight[postID] = true
	return want, true
}

// Done releases postID after its mutation finished.
func (g *LikeGate) Done(postID string) {
	delete(g.inflight, postID)
}

// InFlight reports whether a mutation for postID is pending.
func (g *LikeGate) InFlight(postID string) bool {
	return g.inflight[postID]
}

// LikeResultMsg reports a finished like or unlike.
type LikeResultMsg struct {
	PostID string
	Liked  bool
	Err    error
}

// ToggleLike runs a press through the gate. When a mutation is due it
// applies it optimistically to p and returns the command that persists it.
func ToggleLike(c screen.Context, g *LikeGate, p *domain.FeedPost) tea.Cmd {
	want, send := g.Press(p.ID, p.Liked)
	if !send {
		return nil
	}
	if want == p.Liked {
		g.Done(p.ID)
		return nil
	}
	ApplyLike(p, want)
	social := c.Social
	postID, ownerID := p.ID, p.UserID
	return c.Run(func(ctx context.Context) tea.Msg {
		var err error
		if want {
			err = social.Like(ctx, postID, ownerID)
		} else {
			err = social.Unlike(ctx, postID)
		}
		return LikeResultMsg{PostID: postID, Liked: want, Err: err}
	})
}

// SettleLike releases the gate and rolls p back when the mutation failed.
func SettleLike(g *LikeGate, p *domain.FeedPost, msg LikeResultMsg) tea.Cmd {
	g.Done(msg.PostID)
	if msg.Err == nil {
		return nil
	}
	if p != nil && p.ID == msg.PostID {
		ApplyLike(p, !msg.Liked)
	}
	glog.Errorf("like %s: %v", msg.PostID, msg.Err)
	return screen.Fail("like failed", msg.Err)
}

// ApplyLike sets p's liked state and adjusts its counter.
func ApplyLike(p *domain.FeedPost, liked bool) {
	if p.Liked == liked {
		return
	}
	p.Liked = liked
	if liked {
		p.LikesCount++
	} else if p.LikesCount > 0 {
		p.LikesCount--
	}
}
