package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
)

// BrowserOpener opens a URL for the user.
type BrowserOpener func(url string) error

// OpenBrowser launches the platform's URL handler.
func OpenBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u).Start()
	default:
		return exec.Command("xdg-open", u).Start()
	}
}

// LoginOAuth runs a PKCE login against provider through a loopback callback
// on callbackPort and returns the new session.
func LoginOAuth(ctx context.Context, gt *GoTrue, provider string, callbackPort int, open BrowserOpener) (Session, error) {
	state, err := randomState()
	if err != nil {
		return Session{}, fmt.Errorf("generating oauth state: %w", err)
	}
	codeVerifier, err := randomCodeVerifier()
	if err != nil {
		return Session{}, fmt.Errorf("generating oauth code verifier: %w", err)
	}
	codeChallenge := codeChallengeS256(codeVerifier)
	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback?%s", callbackPort, url.Values{"state": {state}}.Encode())

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", callbackPort)}
	srv.Handler = callbackHandler(state, codeCh, errCh)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("oauth callback server: %w", err):
			default:
			}
		}
	}()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	authURL := gt.AuthorizeURL(provider, redirectURI, codeChallenge)
	fmt.Printf("Opening browser for %s login...\nIf it does not open, visit:\n%s\n\n", provider, authURL)
	if open != nil {
		if err := open(authURL); err != nil {
			glog.Warningf("opening browser: %v", err)
		}
	}

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var code string
	select {
	case <-ctx.Done():
		return Session{}, ctx.Err()
	case err := <-errCh:
		return Session{}, err
	case code = <-codeCh:
	case <-timeout.C:
		return Session{}, errors.New("oauth login timed out")
	}

	return gt.ExchangeCode(ctx, code, codeVerifier)
}

func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	fail := func(w http.ResponseWriter, msg string, err error) {
		http.Error(w, msg, http.StatusBadRequest)
		select {
		case errCh <- err:
		default:
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("state") != state {
			fail(w, "invalid oauth state", errors.New("oauth state mismatch"))
			return
		}
		if e := q.Get("error"); e != "" {
			fail(w, "authorization denied", fmt.Errorf("oauth authorization error: %s %s", e, q.Get("error_description")))
			return
		}
		code := q.Get("code")
		if code == "" {
			fail(w, "missing oauth code", errors.New("oauth callback missing code"))
			return
		}
		_, _ = io.WriteString(w, domain.AppTitle+" login complete. You can return to the terminal.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func randomState() (string, error) {
	return randomToken(24)
}

func randomCodeVerifier() (string, error) {
	// 32 random bytes -> 43 chars with RawURLEncoding, valid PKCE verifier length.
	return randomToken(32)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func codeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
