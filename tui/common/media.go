package common

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

const maxImageBytes = 8 << 20

var (
	thumbMu    sync.Mutex
	thumbCache = map[string]string{}
)

// Thumbnail renders the image at rawURL (http, https or data:) as w×h
// terminal cells. Results are cached per URL and size.
func Thumbnail(ctx context.Context, rawURL string, w, h int) (string, error) {
	cacheKey := strconv.Itoa(w) + "x" + strconv.Itoa(h) + "|" + rawURL
	thumbMu.Lock()
	if s, ok := thumbCache[cacheKey]; ok {
		thumbMu.Unlock()
		return s, nil
	}
	thumbMu.Unlock()

	data, err := fetchImage(ctx, rawURL)
	if err != nil {
		return "", err
	}
	img, err := DecodeImage(data)
	if err != nil {
		return "", err
	}
	out := RenderThumbnail(img, w, h)

	thumbMu.Lock()
	if len(thumbCache) > 256 {
		clear(thumbCache)
	}
	thumbCache[cacheKey] = out
	thumbMu.Unlock()
	return out, nil
}

// DecodeImage decodes png, jpeg or gif data.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func fetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("unsupported image url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		s, err := url.PathUnescape(payload)
		return []byte(s), err
	}
	return base64.StdEncoding.DecodeString(payload)
}

// RenderThumbnail samples img into w×h cells. Each cell is an upper half
// block carrying two vertically stacked pixels.
func RenderThumbnail(img image.Image, w, h int) string {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}
	w = max(w, 4)
	h = max(h, 2)
	at := func(x, y int) color.NRGBA {
		sx := b.Min.X + x*b.Dx()/w
		sy := b.Min.Y + y*b.Dy()/(h*2)
		return color.NRGBAModel.Convert(img.At(sx, sy)).(color.NRGBA)
	}
	var out strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			top, bottom := at(x, 2*y), at(x, 2*y+1)
			fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		out.WriteString("\x1b[0m")
		if y < h-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}
