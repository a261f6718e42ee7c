package app

import (
	"context"
	"time"

	"github.com/CrestNiraj12/realinsta/domain"
)

// Session is the authenticated identity.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService exposes the current session.
type AuthService interface {
	// Session returns the current session or domain.ErrUnauthorized.
	Session(ctx context.Context) (Session, error)

	// SignOut revokes the session remotely and forgets it locally.
	SignOut(ctx context.Context) error
}

// ObjectStorage stores blobs addressable by public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
}

// ChangeType is a realtime change kind.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
	ChangeAll    ChangeType = "*"
)

// EventFilter selects which row changes a subscription delivers.
type EventFilter struct {
	Event  ChangeType
	Schema string // default "public"
	Table  string
	Filter string // PostgREST style, e.g. "conversation_id=eq.42"
}

// ChangeEvent is one delivered row change. Record holds the raw new row.
type ChangeEvent struct {
	Channel string
	Type    ChangeType
	Table   string
	Record  []byte
}

// Subscription is a live realtime channel. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Realtime delivers row changes. onEvent runs on a transport goroutine.
type Realtime interface {
	Subscribe(ctx context.Context, channelKey string, filter EventFilter, onEvent func(ChangeEvent)) (Subscription, error)
}

// Facing selects a camera.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// CaptureOptions are hints; devices may ignore them.
type CaptureOptions struct {
	Facing Facing
	Width  int
	Height int
}

// Frame is one captured image.
type Frame struct {
	Data        []byte
	ContentType string
}

// CameraStream is an acquired capture device. Stop is idempotent.
type CameraStream interface {
	Capture(ctx context.Context) (Frame, error)
	// SetTorch returns domain.ErrUnsupported when there is no torch.
	SetTorch(on bool) error
	TorchSupported() bool
	Stop()
}

// Camera acquires capture streams.
type Camera interface {
	Open(ctx context.Context, opts CaptureOptions) (CameraStream, error)
}

// Locator performs a one-shot position lookup.
type Locator interface {
	Locate(ctx context.Context) (domain.Location, error)
}
