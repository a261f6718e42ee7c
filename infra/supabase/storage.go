package supabase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/CrestNiraj12/realinsta/app"
)

// Storage implements app.ObjectStorage over Supabase Storage.
type Storage struct {
	client *Client
}

// NewStorage creates a Storage client.
func NewStorage(client *Client) *Storage {
	return &Storage{client: client}
}

var _ app.ObjectStorage = (*Storage)(nil)

func objectPath(bucket, path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segs, "/")
}

func (s *Storage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	header := http.Header{
		"Content-Type":  {contentType},
		"Cache-Control": {"max-age=3600"},
		"X-Upsert":      {"false"},
	}
	_, err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/" + objectPath(bucket, path),
		header: header,
		body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("uploading %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *Storage) PublicURL(bucket, path string) string {
	return s.client.baseURL + "/storage/v1/object/public/" + objectPath(bucket, path)
}
