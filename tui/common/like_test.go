package common

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLikeGate(t *testing.T) {
	type press struct {
		after time.Duration
		liked bool
		done  bool // release the previous mutation first
		want  bool
		send  bool
	}
	tests := []struct {
		name    string
		presses []press
	}{
		{"single press likes", []press{{liked: false, want: true, send: true}}},
		{"single press unlikes", []press{{liked: true, want: false, send: true}}},
		{"second press while in flight is ignored", []press{
			{liked: false, want: true, send: true},
			{after: 100 * time.Millisecond, liked: true, want: true, send: false},
		}},
		{"double tap on liked post never unlikes", []press{
			{liked: false, want: true, send: true},
			{after: 100 * time.Millisecond, liked: true, done: true, want: true, send: false},
		}},
		{"slow second press toggles back", []press{
			{liked: false, want: true, send: true},
			{after: time.Second, liked: true, done: true, want: false, send: true},
		}},
		{"double tap on unliked post likes", []press{
			{liked: true, want: false, send: true},
			{after: 200 * time.Millisecond, liked: false, done: true, want: true, send: true},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			g := NewLikeGate()
			g.SetClock(clock.now)
			for i, p := range tc.presses {
				clock.advance(p.after)
				if p.done {
					g.Done("p1")
				}
				want, send := g.Press("p1", p.liked)
				if want != p.want || send != p.send {
					t.Fatalf("press %d: got (%v,%v) want (%v,%v)", i, want, send, p.want, p.send)
				}
			}
		})
	}
}

func TestLikeGate_PerPost(t *testing.T) {
	g := NewLikeGate()
	if _, send := g.Press("a", false); !send {
		t.Fatalf("first press on a must send")
	}
	if _, send := g.Press("b", false); !send {
		t.Fatalf("posts are gated independently")
	}
	if !g.InFlight("a") {
		t.Fatalf("a should be in flight")
	}
	g.Done("a")
	if g.InFlight("a") {
		t.Fatalf("a should be released")
	}
}
