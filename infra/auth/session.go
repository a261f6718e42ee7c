package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/CrestNiraj12/realinsta/app"
)

// Session is a stored GoTrue session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
}

// ExpiresWithin reports whether the access token is gone by now+d.
func (s Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(d).Before(s.ExpiresAt)
}

// App converts to the application's session view.
func (s Session) App() app.Session {
	return app.Session{
		UserID:      s.UserID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		AccessToken: s.AccessToken,
		ExpiresAt:   s.ExpiresAt,
	}
}

// Claims are the fields read from a GoTrue access token.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

// ParseClaims reads an access token without verifying its signature; the
// server verifies every request, this only labels the session.
func ParseClaims(accessToken string) (Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing access token: %w", err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("unexpected access token claims")
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	c.Email, _ = mc["email"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if meta, ok := mc["user_metadata"].(map[string]any); ok {
		c.DisplayName = displayName(meta, c.Email)
	} else {
		c.DisplayName = c.Email
	}
	return c, nil
}

// displayName picks full_name, then name, then the email.
func displayName(meta map[string]any, email string) string {
	for _, k := range []string{"full_name", "name"} {
		if v, ok := meta[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return email
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileSessionStore keeps the session in one file sealed with
// ChaCha20-Poly1305 under a key derived from the machine id.
type FileSessionStore struct {
	path string
	key  []byte
}

// NewFileSessionStore creates a store at path keyed to this machine.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path, key: machineKey()}
}

func machineKey() []byte {
	var id string
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(p); err == nil {
			id = strings.TrimSpace(string(data))
			break
		}
	}
	if id == "" {
		id, _ = os.Hostname()
	}
	sum := sha256.Sum256([]byte("realinsta:" + id))
	return sum[:]
}

// Load returns the stored session. A missing file wraps os.ErrNotExist.
func (f *FileSessionStore) Load() (Session, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return Session{}, err
	}
	plain, err := f.open(strings.TrimSpace(string(raw)))
	if err != nil {
		return Session{}, fmt.Errorf("decrypting session %s: %w", f.path, err)
	}
	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return Session{}, fmt.Errorf("parsing session: %w", err)
	}
	return s, nil
}

// Save writes the session with 0600 permissions.
func (f *FileSessionStore) Save(s Session) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}
	sealed, err := f.seal(plain)
	if err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	return os.WriteFile(f.path, []byte(sealed), 0o600)
}

// Clear removes the session file. A missing file is not an error.
func (f *FileSessionStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

func (f *FileSessionStore) seal(plain []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, plain, nil)), nil
}

func (f *FileSessionStore) open(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
