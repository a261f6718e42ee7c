package screen

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/realinsta/domain"
)

func TestRun_TagsGenerationAndTimesOut(t *testing.T) {
	c := Context{Gen: 7, Deps: Deps{Timeout: 10 * time.Millisecond}}
	msg := c.Run(func(ctx context.Context) tea.Msg {
		<-ctx.Done()
		return ctx.Err()
	})()
	res, ok := msg.(ResultMsg)
	if !ok || res.Gen != 7 {
		t.Fatalf("expected ResultMsg gen 7, got %#v", msg)
	}
	if !errors.Is(res.Msg.(error), context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", res.Msg)
	}
}

func TestPager(t *testing.T) {
	p := NewPager(10)
	if p.Sentinel() {
		t.Fatalf("no sentinel before the first page")
	}
	page, ok := p.Begin()
	if !ok || page != 0 {
		t.Fatalf("unexpected begin %d %v", page, ok)
	}
	if _, ok := p.Begin(); ok {
		t.Fatalf("a page is already loading")
	}
	p.Finish(10, nil)
	if !p.Sentinel() || p.Exhausted() {
		t.Fatalf("full page keeps the sentinel")
	}
	page, _ = p.Begin()
	p.Finish(0, errors.New("boom"))
	if p.Err() == nil || p.Loaded() != 1 {
		t.Fatalf("failed page must not advance")
	}
	if again, ok := p.Begin(); !ok || again != page {
		t.Fatalf("failed page is retried, got %d %v", again, ok)
	}
	p.Finish(3, nil)
	if p.Sentinel() || !p.Exhausted() {
		t.Fatalf("short page exhausts the list")
	}
	if _, ok := p.Begin(); ok {
		t.Fatalf("exhausted pager must not begin")
	}
}

func TestPager_EmptyFirstPage(t *testing.T) {
	p := NewPager(10)
	p.Begin()
	p.Finish(0, nil)
	if p.Sentinel() || !p.Exhausted() {
		t.Fatalf("zero rows: placeholder without sentinel")
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", domain.ErrUnauthorized), "session expired, run `realinsta login`"},
		{fmt.Errorf("x: %w", &domain.RemoteError{Status: 500, Message: "db down"}), "db down"},
		{context.DeadlineExceeded, "request timed out"},
		{errors.New("plain"), "plain"},
	}
	for _, tc := range tests {
		if got := ErrorText(tc.err); got != tc.want {
			t.Fatalf("ErrorText(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
