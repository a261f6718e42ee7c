package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

// refreshSkew refreshes tokens this long before they expire.
const refreshSkew = time.Minute

// Gate is the session gate: it loads the stored session, refreshes it when
// close to expiry, and signs out. It serves as both the app's AuthService and
// the API clients' TokenProvider.
type Gate struct {
	gt    *GoTrue
	store SessionStore
	now   func() time.Time

	mu   sync.Mutex
	sess *Session
}

// NewGate creates a gate over a GoTrue client and a session store.
func NewGate(gt *GoTrue, store SessionStore) *Gate {
	return &Gate{gt: gt, store: store, now: time.Now}
}

var (
	_ app.AuthService = (*Gate)(nil)
	_ TokenProvider   = (*Gate)(nil)
)

// Current returns a live session, refreshing it if needed. With no stored
// session it returns domain.ErrUnauthorized.
func (g *Gate) Current(ctx context.Context) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sess == nil {
		s, err := g.store.Load()
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, domain.ErrUnauthorized
		}
		if err != nil {
			glog.Warningf("discarding unreadable session: %v", err)
			return Session{}, domain.ErrUnauthorized
		}
		g.sess = &s
	}
	if !g.sess.ExpiresWithin(g.now(), refreshSkew) {
		return *g.sess, nil
	}
	if g.sess.RefreshToken == "" {
		g.sess = nil
		return Session{}, domain.ErrUnauthorized
	}

	glog.V(1).Infof("refreshing session for %s", g.sess.UserID)
	next, err := g.gt.Refresh(ctx, g.sess.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			g.sess = nil
			_ = g.store.Clear()
		}
		return Session{}, fmt.Errorf("refreshing session: %w", err)
	}
	if next.DisplayName == "" {
		next.DisplayName = g.sess.DisplayName
	}
	if err := g.store.Save(next); err != nil {
		glog.Warningf("saving refreshed session: %v", err)
	}
	g.sess = &next
	return next, nil
}

// Establish stores a freshly issued session.
func (g *Gate) Establish(s Session) error {
	if err := g.store.Save(s); err != nil {
		return err
	}
	g.mu.Lock()
	g.sess = &s
	g.mu.Unlock()
	glog.Infof("signed in as %s", s.UserID)
	return nil
}

// AccessToken implements TokenProvider.
func (g *Gate) AccessToken(ctx context.Context) (string, error) {
	s, err := g.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

// Session implements app.AuthService.
func (g *Gate) Session(ctx context.Context) (app.Session, error) {
	s, err := g.Current(ctx)
	if err != nil {
		return app.Session{}, err
	}
	return s.App(), nil
}

// SignOut revokes the session remotely when possible and always forgets it
// locally.
func (g *Gate) SignOut(ctx context.Context) error {
	g.mu.Lock()
	s := g.sess
	g.sess = nil
	g.mu.Unlock()

	if s == nil {
		if loaded, err := g.store.Load(); err == nil {
			s = &loaded
		}
	}
	var remoteErr error
	if s != nil && s.AccessToken != "" {
		if err := g.gt.Logout(ctx, s.AccessToken); err != nil {
			glog.Warningf("remote sign out: %v", err)
			remoteErr = err
		}
	}
	if err := g.store.Clear(); err != nil {
		return err
	}
	if remoteErr != nil && !errors.Is(remoteErr, domain.ErrUnauthorized) {
		return fmt.Errorf("signed out locally; server sign out failed: %w", remoteErr)
	}
	return nil
}

// LoginPassword signs in with email and password and stores the session.
func (g *Gate) LoginPassword(ctx context.Context, email, password string) (Session, error) {
	s, err := g.gt.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return Session{}, err
	}
	return s, g.Establish(s)
}

// Prompt reads the email (when empty) and the password from the terminal,
// echoing nothing for the password.
func Prompt(in *os.File, out io.Writer, email string) (string, string, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return "", "", errors.New("password login needs an interactive terminal")
	}
	if strings.TrimSpace(email) == "" {
		fmt.Fprint(out, "Email: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	fmt.Fprint(out, "Password: ")
	pw, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	if email == "" || len(pw) == 0 {
		return "", "", errors.New("email and password are required")
	}
	return email, string(pw), nil
}
