package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates a missing, expired or revoked session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyComment indicates the user submitted a blank comment.
	ErrEmptyComment = errors.New("comment cannot be empty")

	// ErrEmptyMessage indicates the user submitted a blank direct message.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrEmptyUsername indicates a profile edit without a username.
	ErrEmptyUsername = errors.New("username cannot be empty")

	// ErrInvalidUsername indicates a username outside the allowed handle format.
	ErrInvalidUsername = errors.New("username may only use a-z, 0-9, '.' and '_' (3-30 chars)")

	// ErrUsernameTaken indicates another profile already uses the username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrNotFound indicates a record that does not exist or is not visible.
	ErrNotFound = errors.New("not found")

	// ErrCaptionTooLong indicates the caption exceeds MaxCaptionLength.
	ErrCaptionTooLong = errors.New("caption exceeds character limit")

	// ErrNoImage indicates a post was submitted without a captured image.
	ErrNoImage = errors.New("capture or load an image first")

	// ErrUnsupported indicates a device capability that is not available.
	ErrUnsupported = errors.New("not supported on this device")

	// ErrPermissionDenied indicates a device capability the user or OS refused.
	ErrPermissionDenied = errors.New("permission denied")
)

// Backend error codes worth recognising.
const (
	CodeUniqueViolation = "23505"
	CodeJWTExpired      = "PGRST301"
)

// RemoteError is a failure reported by the backend. Message is meant for
// humans; Code is the backend's machine code (SQLSTATE or PostgREST code).
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "remote request failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	return msg
}

// Unwrap maps auth failures onto ErrUnauthorized so callers can use errors.Is.
func (e *RemoteError) Unwrap() error {
	if e.Status == 401 || e.Code == CodeJWTExpired {
		return ErrUnauthorized
	}
	return nil
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code == CodeUniqueViolation || re.Status == 409
	}
	return false
}
