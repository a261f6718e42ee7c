package memory

import (
	"context"
	"sync"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

// Auth is a fixed session that can be signed out.
type Auth struct {
	mu        sync.Mutex
	session   app.Session
	signedOut bool
}

// NewAuth returns an Auth holding sess.
func NewAuth(sess app.Session) *Auth {
	return &Auth{session: sess}
}

func (a *Auth) Session(context.Context) (app.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.signedOut {
		return app.Session{}, domain.ErrUnauthorized
	}
	return a.session, nil
}

func (a *Auth) SignOut(context.Context) error {
	a.mu.Lock()
	a.signedOut = true
	a.mu.Unlock()
	return nil
}
