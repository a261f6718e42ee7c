// Package supabase talks to a Supabase project: PostgREST for rows, Storage
// for images and Realtime for live message delivery.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/auth"
)

// Client is a thin HTTP wrapper for a Supabase project.
// It handles base URL construction, the apikey header and bearer token injection.
type Client struct {
	baseURL       string
	anonKey       string
	tokenProvider auth.TokenProvider
	http          *http.Client
}

// NewClient creates a client. A nil token provider sends the anon key as the
// bearer token.
func NewClient(baseURL, anonKey string, tp auth.TokenProvider, timeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		anonKey:       anonKey,
		tokenProvider: tp,
		http:          &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the project URL.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   io.Reader
}

type response struct {
	status int
	header http.Header
	data   []byte
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokenProvider == nil {
		return c.anonKey, nil
	}
	token, err := c.tokenProvider.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, r request) (response, error) {
	token, err := c.token(ctx)
	if err != nil {
		return response{}, err
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return response{}, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if r.body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("request to %s: %w", r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response{}, decodeError(r.method, r.path, resp.StatusCode, data)
	}
	return response{status: resp.StatusCode, header: resp.Header, data: data}, nil
}

// apiError covers PostgREST, Storage and GoTrue error bodies.
type apiError struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
}

func decodeError(method, path string, status int, data []byte) error {
	re := &domain.RemoteError{Status: status}
	var body apiError
	if err := json.Unmarshal(data, &body); err == nil {
		re.Code = rawCode(body.Code)
		re.Details = strings.TrimSpace(body.Details + " " + body.Hint)
		for _, m := range []string{body.Message, body.ErrorDescription, body.Msg, body.Error} {
			if m != "" {
				re.Message = m
				break
			}
		}
		if re.Code == "" {
			re.Code = body.Error
		}
	}
	if re.Message == "" {
		re.Message = fmt.Sprintf("API %s %s returned %d: %s", method, path, status, strings.TrimSpace(string(data)))
	}
	return re
}

// rawCode accepts both "23505" and 401 style codes.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
