package nav

import "testing"

func TestNew_StartsOnFeed(t *testing.T) {
	c := New()
	if cur := c.Current(); cur.View != Feed || len(cur.Params) != 0 || c.Depth() != 0 {
		t.Fatalf("unexpected initial state %+v depth=%d", cur, c.Depth())
	}
}

func TestBack_RestoresLastPushed(t *testing.T) {
	c := New()
	c.Navigate(Post, Params{"id": "p1"}, true)
	c.Navigate(User, Params{"id": "u1"}, true)
	if c.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", c.Depth())
	}

	tr := c.Back()
	if tr.From.View != User || tr.To.View != Post || tr.To.Params.Get("id") != "p1" {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if c.Depth() != 1 {
		t.Fatalf("back must shrink the stack by one, depth=%d", c.Depth())
	}
}

func TestBack_EmptyStackLandsOnFeed(t *testing.T) {
	c := New()
	c.Navigate(Settings, Params{"x": "y"}, false)
	for range 3 {
		c.Back()
	}
	if cur := c.Current(); cur.View != Feed || len(cur.Params) != 0 || c.Depth() != 0 {
		t.Fatalf("expected feed with empty params, got %+v depth=%d", cur, c.Depth())
	}
}

func TestNavigate_SameViewDoesNotPush(t *testing.T) {
	c := New()
	c.Navigate(Post, Params{"id": "a"}, true)
	c.Navigate(Post, Params{"id": "b"}, true)
	if c.Depth() != 1 || c.Current().Params.Get("id") != "b" {
		t.Fatalf("same view must replace params without pushing, depth=%d", c.Depth())
	}
}

func TestSwitchTab_ClearsStackAndParams(t *testing.T) {
	c := New()
	c.Navigate(Post, Params{"id": "p1"}, true)
	c.Navigate(Comments, Params{"id": "p1"}, true)
	c.SwitchTab(Explore)
	if cur := c.Current(); cur.View != Explore || len(cur.Params) != 0 || c.Depth() != 0 {
		t.Fatalf("unexpected state after switch %+v depth=%d", cur, c.Depth())
	}
	if tr := c.Back(); tr.To.View != Feed {
		t.Fatalf("back must not cross a tab boundary, got %v", tr.To.View)
	}
}

func TestFeedPostCommentsBackBack(t *testing.T) {
	c := New()
	c.Navigate(Post, Params{"id": "p1"}, true)
	c.Navigate(Comments, Params{"id": "p1"}, true)
	c.Back()
	if cur := c.Current(); cur.View != Post || cur.Params.Get("id") != "p1" {
		t.Fatalf("expected post p1, got %+v", cur)
	}
	c.Back()
	if cur := c.Current(); cur.View != Feed || c.Depth() != 0 {
		t.Fatalf("expected feed, got %+v depth=%d", cur, c.Depth())
	}
}

func TestCurrent_ParamsAreCopies(t *testing.T) {
	c := New()
	p := Params{"id": "p1"}
	c.Navigate(Post, p, true)
	p["id"] = "changed"
	cur := c.Current()
	cur.Params["id"] = "also changed"
	if c.Current().Params.Get("id") != "p1" {
		t.Fatalf("controller state must not alias caller maps")
	}
}

func TestIsTabAndLeaving(t *testing.T) {
	for _, v := range Tabs {
		if !IsTab(v) {
			t.Fatalf("%v should be a tab", v)
		}
	}
	if IsTab(Thread) || IsTab(Post) {
		t.Fatalf("detail views are not tabs")
	}
	tr := Transition{From: Entry{View: Thread, Params: Params{"id": "c1"}}, To: Entry{View: Thread, Params: Params{"id": "c2"}}}
	if !tr.Leaving(Thread) {
		t.Fatalf("switching conversations leaves the old thread")
	}
	if (Transition{From: Entry{View: Feed}, To: Entry{View: Thread}}).Leaving(Thread) {
		t.Fatalf("entering a thread is not leaving it")
	}
	if Thread.String() != "thread" || EditProfile.String() != "editProfile" || View(99).String() != "view(99)" {
		t.Fatalf("unexpected view names")
	}
}
