package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CrestNiraj12/realinsta/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func withMockDefaultTransport(t *testing.T, rt roundTripFunc) {
	t.Helper()
	prev := http.DefaultTransport
	http.DefaultTransport = rt
	t.Cleanup(func() { http.DefaultTransport = prev })
}

func response(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestAuthorizeURL_CarriesPKCEChallenge(t *testing.T) {
	gt := NewGoTrue("https://proj.supabase.co/", "anon", 0)
	raw := gt.AuthorizeURL("github", "http://127.0.0.1:45145/callback?state=s1", "chal")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if u.Path != "/auth/v1/authorize" || q.Get("provider") != "github" || q.Get("code_challenge") != "chal" || q.Get("code_challenge_method") != "s256" {
		t.Fatalf("unexpected authorize url: %s", raw)
	}
	if q.Get("redirect_to") != "http://127.0.0.1:45145/callback?state=s1" {
		t.Fatalf("redirect must round-trip: %q", q.Get("redirect_to"))
	}
}

func TestGoTrue_TokenGrants(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, jwt.MapClaims{
		"sub":           "user-1",
		"email":         "neko@example.com",
		"exp":           exp.Unix(),
		"user_metadata": map[string]any{"name": "Neko"},
	})

	tests := []struct {
		name      string
		call      func(*GoTrue) (Session, error)
		wantGrant string
		wantField string
	}{
		{"pkce", func(g *GoTrue) (Session, error) { return g.ExchangeCode(context.Background(), "code1", "ver1") }, "pkce", "auth_code"},
		{"password", func(g *GoTrue) (Session, error) {
			return g.SignInWithPassword(context.Background(), "neko@example.com", "pw")
		}, "password", "password"},
		{"refresh", func(g *GoTrue) (Session, error) { return g.Refresh(context.Background(), "r1") }, "refresh_token", "refresh_token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body map[string]string
			withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != tc.wantGrant {
					t.Fatalf("unexpected request: %s", r.URL)
				}
				if r.Header.Get("apikey") != "anon" {
					t.Fatalf("missing apikey header")
				}
				_ = json.NewDecoder(r.Body).Decode(&body)
				return response(r, http.StatusOK, `{"access_token":"`+access+`","refresh_token":"r2","expires_in":3600}`), nil
			}))

			s, err := tc.call(NewGoTrue("http://example.test", "anon", time.Second))
			if err != nil {
				t.Fatalf("grant failed: %v", err)
			}
			if body[tc.wantField] == "" {
				t.Fatalf("expected %s in body: %v", tc.wantField, body)
			}
			if s.UserID != "user-1" || s.Email != "neko@example.com" || s.DisplayName != "Neko" || s.RefreshToken != "r2" {
				t.Fatalf("unexpected session: %+v", s)
			}
			if s.ExpiresAt.IsZero() {
				t.Fatalf("expected expiry")
			}
		})
	}
}

func TestGoTrue_InvalidGrantIsUnauthorized(t *testing.T) {
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return response(r, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`), nil
	}))
	_, err := NewGoTrue("http://example.test", "anon", time.Second).Refresh(context.Background(), "old")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGoTrue_ServerErrorKeepsStatus(t *testing.T) {
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return response(r, http.StatusInternalServerError, "boom"), nil
	}))
	_, err := NewGoTrue("http://example.test", "anon", time.Second).SignInWithPassword(context.Background(), "a@b.c", "x")
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.Status != http.StatusInternalServerError || !strings.Contains(re.Message, "boom") {
		t.Fatalf("unexpected error: %#v", err)
	}
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  string
		status   int
	}{
		{name: "ok", query: "state=s1&code=abc", wantCode: "abc", status: http.StatusOK},
		{name: "state mismatch", query: "state=zzz&code=abc", wantErr: "state mismatch", status: http.StatusBadRequest},
		{name: "denied", query: "state=s1&error=access_denied", wantErr: "access_denied", status: http.StatusBadRequest},
		{name: "missing code", query: "state=s1", wantErr: "missing code", status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codeCh := make(chan string, 1)
			errCh := make(chan error, 1)
			h := callbackHandler("s1", codeCh, errCh)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tc.query, nil))
			if rec.Code != tc.status {
				t.Fatalf("status got=%d want=%d", rec.Code, tc.status)
			}
			select {
			case code := <-codeCh:
				if code != tc.wantCode {
					t.Fatalf("code got=%q want=%q", code, tc.wantCode)
				}
			case err := <-errCh:
				if tc.wantErr == "" || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("unexpected error: %v", err)
				}
			default:
				t.Fatalf("handler produced neither code nor error")
			}
		})
	}
}

func TestPKCEHelpers(t *testing.T) {
	verifier, err := randomCodeVerifier()
	if err != nil {
		t.Fatalf("randomCodeVerifier failed: %v", err)
	}
	if len(verifier) < 43 || len(verifier) > 128 {
		t.Fatalf("invalid code verifier length: %d", len(verifier))
	}
	if _, err := base64.RawURLEncoding.DecodeString(verifier); err != nil {
		t.Fatalf("verifier is not base64url: %v", err)
	}

	state, err := randomState()
	if err != nil || len(state) < 20 || strings.ContainsAny(state, " \n\t") {
		t.Fatalf("unexpected state %q: %v", state, err)
	}

	// RFC 7636 Appendix B example.
	challenge := codeChallengeS256("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if challenge != want {
		t.Fatalf("unexpected code challenge: got %q want %q", challenge, want)
	}
}
