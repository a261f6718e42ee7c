package post

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
	"github.com/CrestNiraj12/realinsta/tui/screen/screentest"
)

func tickingClock() func() time.Time {
	t := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func comment(t *testing.T, env *screentest.Env, postID, userID, body string) {
	t.Helper()
	rec := map[string]any{"post_id": postID, "user_id": userID, "body": body}
	if err := env.Store.Insert(context.Background(), app.Comments, rec, nil); err != nil {
		t.Fatalf("insert comment: %v", err)
	}
}

func TestDetail_ShowsPostAndFirstComments(t *testing.T) {
	env := screentest.New(t)
	env.Store.SetClock(tickingClock())
	id := env.Post(t, screentest.Alice, "ramen night #ramen")
	for i := range 5 {
		comment(t, env, id, screentest.Bob, fmt.Sprintf("comment %d", i))
	}
	s, _ := env.Init(t, New(env.Ctx, id))
	m := s.(Model)
	if len(m.preview) != app.PreviewComments || m.preview[0].Body != "comment 0" {
		t.Fatalf("expected the first %d comments oldest first, got %+v", app.PreviewComments, m.preview)
	}
	view := m.View()
	for _, want := range []string{"ramen night", "View all 5 comments", "comment 2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "comment 3") {
		t.Fatalf("only the first comments are previewed")
	}
}

func TestDetail_MissingPost(t *testing.T) {
	env := screentest.New(t)
	s, _ := env.Init(t, New(env.Ctx, "nope"))
	if !strings.Contains(s.View(), "Could not load post") {
		t.Fatalf("unexpected view %q", s.View())
	}
	if _, msgs := env.Press(t, s, "l", "d"); len(msgs) != 0 {
		t.Fatalf("no actions on a missing post, got %v", msgs)
	}
}

func TestDetail_DoubleTapLikesOnce(t *testing.T) {
	env := screentest.New(t)
	id := env.Post(t, screentest.Alice, "sunset")
	s, _ := env.Init(t, New(env.Ctx, id))
	s, _ = env.Press(t, s, "l", "l")
	if env.Count(app.Likes) != 1 || !s.(Model).post.Liked {
		t.Fatalf("expected one like, got %d", env.Count(app.Likes))
	}
	if env.Count(app.Notifications) != 1 {
		t.Fatalf("liking notifies the owner")
	}
}

func TestDetail_Navigation(t *testing.T) {
	env := screentest.New(t)
	id := env.Post(t, screentest.Alice, "hers")
	s, _ := env.Init(t, New(env.Ctx, id))

	tests := []struct {
		key  string
		view nav.View
		id   string
	}{
		{"c", nav.Comments, id},
		{"enter", nav.Comments, id},
		{"a", nav.User, screentest.Alice},
	}
	for _, tc := range tests {
		_, msgs := env.Press(t, s, tc.key)
		n, ok := screentest.Navigation(msgs)
		if !ok || n.View != tc.view || n.Params.Get("id") != tc.id {
			t.Fatalf("%s: unexpected navigation %+v", tc.key, n)
		}
	}

	s, _ = env.Press(t, s, "d")
	if s.Typing() {
		t.Fatalf("other people's posts cannot be deleted")
	}
}

func TestDetail_DeleteOwnPostAfterConfirm(t *testing.T) {
	env := screentest.New(t)
	id := env.Post(t, screentest.Me, "mine")
	s, _ := env.Init(t, New(env.Ctx, id))

	s, _ = env.Press(t, s, "d")
	if !s.Typing() || !strings.Contains(s.View(), "Delete this post? y/n") {
		t.Fatalf("expected a confirmation prompt")
	}
	s, _ = env.Press(t, s, "n")
	if s.Typing() || env.Count(app.Posts) != 1 {
		t.Fatalf("cancel must keep the post")
	}

	_, msgs := env.Press(t, s, "d", "y")
	if env.Count(app.Posts) != 0 {
		t.Fatalf("post should be deleted")
	}
	var back bool
	for _, m := range msgs {
		if _, ok := m.(screen.BackMsg); ok {
			back = true
		}
	}
	if !back || len(screentest.Toasts(msgs)) != 1 {
		t.Fatalf("expected a toast and back navigation, got %v", msgs)
	}
}

func TestComments_OldestFirstAndAdd(t *testing.T) {
	env := screentest.New(t)
	env.Store.SetClock(tickingClock())
	id := env.Post(t, screentest.Alice, "hers")
	comment(t, env, id, screentest.Bob, "first!")
	comment(t, env, id, screentest.Alice, "thanks")

	s, _ := env.Init(t, NewComments(env.Ctx, id))
	m := s.(Comments)
	if len(m.comments) != 2 || m.comments[0].Body != "first!" || m.comments[0].Author.Username != "bob" {
		t.Fatalf("unexpected comments %+v", m.comments)
	}

	s = env.Type(t, s, "  lovely  ")
	s, _ = env.Press(t, s, "enter")
	m = s.(Comments)
	if env.Count(app.Comments) != 3 || len(m.comments) != 3 || m.comments[2].Body != "lovely" {
		t.Fatalf("comment should be added and trimmed: %+v", m.comments)
	}
	if m.input.Value() != "" || !strings.Contains(m.View(), "lovely") {
		t.Fatalf("input should be cleared and the comment shown")
	}
	if env.Count(app.Notifications) != 1 {
		t.Fatalf("commenting notifies the owner")
	}
}

func TestComments_EmptyIsRejectedWithoutRemoteCall(t *testing.T) {
	env := screentest.New(t)
	id := env.Post(t, screentest.Alice, "hers")
	s, _ := env.Init(t, NewComments(env.Ctx, id))

	for _, text := range []string{"", "   "} {
		calls := env.Store.Calls
		if text != "" {
			s = env.Type(t, s, text)
		}
		s, _ = env.Press(t, s, "enter")
		if env.Store.Calls != calls {
			t.Fatalf("%q: empty comment must not reach the store", text)
		}
		if !strings.Contains(s.View(), domain.ErrEmptyComment.Error()) {
			t.Fatalf("%q: expected inline error, got %q", text, s.View())
		}
	}
	if !strings.Contains(s.View(), "No comments yet") {
		t.Fatalf("expected the empty placeholder")
	}
}

func TestComments_EscGoesBack(t *testing.T) {
	env := screentest.New(t)
	id := env.Post(t, screentest.Alice, "hers")
	s, _ := env.Init(t, NewComments(env.Ctx, id))
	if !s.Typing() {
		t.Fatalf("comments keep the input focused")
	}
	_, msgs := env.Press(t, s, "esc")
	if len(msgs) != 1 {
		t.Fatalf("expected back, got %v", msgs)
	}
	if _, ok := msgs[0].(screen.BackMsg); !ok {
		t.Fatalf("expected back, got %T", msgs[0])
	}
}
