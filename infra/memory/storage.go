package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/CrestNiraj12/realinsta/app"
)

// Storage implements app.ObjectStorage. Public URLs are data: URLs so the
// image loader can render them without a server.
type Storage struct {
	mu      sync.Mutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
}

// NewStorage creates an empty object store.
func NewStorage() *Storage {
	return &Storage{objects: make(map[string]object)}
}

var _ app.ObjectStorage = (*Storage)(nil)

func (s *Storage) Upload(_ context.Context, bucket, path string, data []byte, contentType string) error {
	if len(data) == 0 {
		return fmt.Errorf("upload %s/%s: empty object", bucket, path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+path] = object{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (s *Storage) PublicURL(bucket, path string) string {
	s.mu.Lock()
	obj, ok := s.objects[bucket+"/"+path]
	s.mu.Unlock()
	if !ok {
		return ""
	}
	return "data:" + obj.contentType + ";base64," + base64.StdEncoding.EncodeToString(obj.data)
}

// Len counts stored objects.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
