package common

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestRenderThumbnail_Size(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	out := RenderThumbnail(img, 6, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if ansi.StringWidth(l) != 6 {
			t.Fatalf("expected 6 cells, got %d", ansi.StringWidth(l))
		}
	}
	if !strings.Contains(out, "38;2;255;0;0") {
		t.Fatalf("expected the red pixel in the first cell")
	}
}

func TestThumbnail_DataURL(t *testing.T) {
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, color.RGBA{G: 200, A: 255}))
	out, err := Thumbnail(context.Background(), raw, 4, 2)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if !strings.Contains(out, "38;2;0;200;0") {
		t.Fatalf("unexpected colours: %q", out)
	}
}

func TestThumbnail_HTTPAndCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(pngBytes(t, color.RGBA{B: 255, A: 255}))
	}))
	defer srv.Close()

	for range 2 {
		if _, err := Thumbnail(context.Background(), srv.URL+"/a.png", 5, 2); err != nil {
			t.Fatalf("thumbnail: %v", err)
		}
	}
	if hits != 1 {
		t.Fatalf("expected one fetch, got %d", hits)
	}
}

func TestThumbnail_Rejects(t *testing.T) {
	for _, raw := range []string{"file:///etc/passwd", "data:image/png;base64,!!!", "data:nocomma"} {
		if _, err := Thumbnail(context.Background(), raw, 4, 2); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
