package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CrestNiraj12/realinsta/domain"
)

// GoTrue calls the Supabase auth endpoints.
type GoTrue struct {
	baseURL string
	anonKey string
	timeout time.Duration
	now     func() time.Time
}

// NewGoTrue creates an auth client for the project at baseURL.
func NewGoTrue(baseURL, anonKey string, timeout time.Duration) *GoTrue {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoTrue{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		timeout: timeout,
		now:     time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
	} `json:"user"`
}

// AuthorizeURL is the browser URL that starts an OAuth PKCE login.
func (g *GoTrue) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	return g.baseURL + "/auth/v1/authorize?" + url.Values{
		"provider":              {provider},
		"redirect_to":           {redirectTo},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"s256"},
	}.Encode()
}

// ExchangeCode trades an OAuth authorization code for a session.
func (g *GoTrue) ExchangeCode(ctx context.Context, code, verifier string) (Session, error) {
	return g.token(ctx, "pkce", map[string]string{"auth_code": code, "code_verifier": verifier})
}

// SignInWithPassword signs in with email and password.
func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	return g.token(ctx, "password", map[string]string{"email": email, "password": password})
}

// Refresh trades a refresh token for a new session.
func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	return g.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// Logout revokes the session server side.
func (g *GoTrue) Logout(ctx context.Context, accessToken string) error {
	_, err := g.post(ctx, "/auth/v1/logout", accessToken, nil)
	return err
}

func (g *GoTrue) token(ctx context.Context, grant string, body map[string]string) (Session, error) {
	data, err := g.post(ctx, "/auth/v1/token?grant_type="+grant, "", body)
	if err != nil {
		return Session{}, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return Session{}, fmt.Errorf("parsing token response: %w", err)
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return Session{}, errors.New("token response missing access token")
	}
	return g.sessionFrom(tr), nil
}

func (g *GoTrue) sessionFrom(tr tokenResponse) Session {
	s := Session{
		AccessToken:  strings.TrimSpace(tr.AccessToken),
		RefreshToken: tr.RefreshToken,
		UserID:       tr.User.ID,
		Email:        tr.User.Email,
	}
	switch {
	case tr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		s.ExpiresAt = g.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if tr.User.UserMetadata != nil {
		s.DisplayName = displayName(tr.User.UserMetadata, s.Email)
	}

	// Fill gaps from the token itself.
	if c, err := ParseClaims(s.AccessToken); err == nil {
		if s.UserID == "" {
			s.UserID = c.Subject
		}
		if s.Email == "" {
			s.Email = c.Email
		}
		if s.DisplayName == "" {
			s.DisplayName = c.DisplayName
		}
		if s.ExpiresAt.IsZero() {
			s.ExpiresAt = c.ExpiresAt
		}
	}
	if s.DisplayName == "" {
		s.DisplayName = s.Email
	}
	return s
}

func (g *GoTrue) post(ctx context.Context, path, bearer string, body any) ([]byte, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding auth request: %w", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("creating auth request: %w", err)
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := (&http.Client{Timeout: g.timeout}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, authError(resp.StatusCode, data)
	}
	return data, nil
}

func authError(status int, data []byte) error {
	var body struct {
		Code             any    `json:"code"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	re := &domain.RemoteError{Status: status}
	if err := json.Unmarshal(data, &body); err == nil {
		re.Code = body.Error
		for _, m := range []string{body.ErrorDescription, body.Msg, body.Message} {
			if m != "" {
				re.Message = m
				break
			}
		}
	}
	if re.Message == "" {
		re.Message = fmt.Sprintf("auth request failed: %d %s", status, strings.TrimSpace(string(data)))
	}
	if status == http.StatusBadRequest && re.Code == "invalid_grant" {
		// Expired or revoked refresh tokens land here.
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, re.Message)
	}
	return re
}
