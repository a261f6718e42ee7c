package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CrestNiraj12/realinsta/domain"
)

func TestStaticToken(t *testing.T) {
	got, err := StaticToken("  abc123 \n").AccessToken(context.Background())
	if err != nil || got != "abc123" {
		t.Fatalf("unexpected token %q: %v", got, err)
	}
	if _, err := StaticToken(" \t").AccessToken(context.Background()); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty-token error, got: %v", err)
	}
}

func TestParseClaims_DisplayNameFallback(t *testing.T) {
	tests := []struct {
		name string
		meta any
		want string
	}{
		{"full name", map[string]any{"full_name": "Neko Chan", "name": "neko"}, "Neko Chan"},
		{"name", map[string]any{"name": "neko"}, "neko"},
		{"blank name", map[string]any{"full_name": "  "}, "n@example.com"},
		{"no metadata", nil, "n@example.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims := jwt.MapClaims{"sub": "u1", "email": "n@example.com", "exp": time.Now().Add(time.Hour).Unix()}
			if tc.meta != nil {
				claims["user_metadata"] = tc.meta
			}
			c, err := ParseClaims(signedToken(t, claims))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if c.Subject != "u1" || c.DisplayName != tc.want || c.ExpiresAt.IsZero() {
				t.Fatalf("unexpected claims: %+v", c)
			}
		})
	}
	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileSessionStore_RoundTripEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "session")
	store := NewFileSessionStore(path)

	if _, err := store.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing session should be not-exist, got %v", err)
	}

	want := Session{AccessToken: "secret-access", RefreshToken: "r", UserID: "u1", Email: "a@b.c", ExpiresAt: time.Unix(1700000000, 0).UTC()}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "secret-access") {
		t.Fatalf("session must not be stored in clear text")
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected permissions %v", info.Mode().Perm())
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) || got.AccessToken != want.AccessToken || got.UserID != want.UserID {
		t.Fatalf("round trip mismatch got=%+v want=%+v", got, want)
	}

	other := &FileSessionStore{path: path, key: make([]byte, 32)}
	if _, err := other.Load(); err == nil {
		t.Fatalf("expected failure with a different key")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

type memSessionStore struct {
	s       *Session
	cleared int
}

func (m *memSessionStore) Load() (Session, error) {
	if m.s == nil {
		return Session{}, os.ErrNotExist
	}
	return *m.s, nil
}
func (m *memSessionStore) Save(s Session) error { m.s = &s; return nil }
func (m *memSessionStore) Clear() error         { m.s = nil; m.cleared++; return nil }

func TestGate_NoSessionIsUnauthorized(t *testing.T) {
	g := NewGate(NewGoTrue("http://example.test", "anon", time.Second), &memSessionStore{})
	if _, err := g.Session(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGate_RefreshesNearExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(time.Hour).Unix()})
	var refreshed int
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("grant_type") != "refresh_token" {
			t.Fatalf("unexpected request %s", r.URL)
		}
		refreshed++
		return response(r, http.StatusOK, `{"access_token":"`+fresh+`","refresh_token":"r2","expires_in":3600,"user":{"id":"u1","email":"a@b.c"}}`), nil
	}))

	store := &memSessionStore{s: &Session{AccessToken: "old", RefreshToken: "r1", UserID: "u1", DisplayName: "Neko", ExpiresAt: now.Add(30 * time.Second)}}
	gt := NewGoTrue("http://example.test", "anon", time.Second)
	gt.now = func() time.Time { return now }
	g := NewGate(gt, store)
	g.now = func() time.Time { return now }

	tok, err := g.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if tok != fresh || refreshed != 1 {
		t.Fatalf("expected refreshed token, got %q after %d refreshes", tok, refreshed)
	}
	if store.s.RefreshToken != "r2" {
		t.Fatalf("refreshed session must be saved")
	}
	if _, err := g.AccessToken(context.Background()); err != nil || refreshed != 1 {
		t.Fatalf("fresh token must not refresh again")
	}
	sess, _ := g.Session(context.Background())
	if sess.DisplayName == "" {
		t.Fatalf("expected a display name after refresh")
	}
}

func TestGate_SignOutClearsEvenWhenRemoteRejects(t *testing.T) {
	var logoutAuth string
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		logoutAuth = r.Header.Get("Authorization")
		return response(r, http.StatusUnauthorized, `{"msg":"invalid JWT"}`), nil
	}))
	store := &memSessionStore{s: &Session{AccessToken: "tok", UserID: "u1"}}
	g := NewGate(NewGoTrue("http://example.test", "anon", time.Second), store)

	if err := g.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out with an already dead token should succeed: %v", err)
	}
	if logoutAuth != "Bearer tok" || store.s != nil || store.cleared != 1 {
		t.Fatalf("expected remote logout and local clear (auth=%q)", logoutAuth)
	}
	if _, err := g.Session(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after sign out, got %v", err)
	}
}
