package auth

import (
	"context"
	"errors"
	"strings"
)

// TokenProvider supplies an access token for API authentication.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token, e.g. a service key for scripts.
type StaticToken string

// AccessToken returns the token, trimming whitespace.
func (s StaticToken) AccessToken(context.Context) (string, error) {
	token := strings.TrimSpace(string(s))
	if token == "" {
		return "", errors.New("static token is empty")
	}
	return token, nil
}
