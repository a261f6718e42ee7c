// Package device adapts local capture tools and network lookups to the
// camera and locator interfaces.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

// CommandCamera captures stills by running an external tool. The capture
// template must contain {out}; it may also use {facing}, {width} and
// {height}. The torch template uses {state} ("on" or "off").
//
//	capture_command = "fswebcam -q --no-banner -r {width}x{height} --jpeg 90 {out}"
//	torch_command   = "v4l2-ctl -c torch={state}"
type CommandCamera struct {
	Capture string
	Torch   string
}

var _ app.Camera = CommandCamera{}

// Open acquires a stream. With no capture template configured it returns
// domain.ErrUnsupported.
func (c CommandCamera) Open(ctx context.Context, opts app.CaptureOptions) (app.CameraStream, error) {
	args := strings.Fields(c.Capture)
	if len(args) == 0 {
		return nil, fmt.Errorf("camera: no capture command configured: %w", domain.ErrUnsupported)
	}
	if !strings.Contains(c.Capture, "{out}") {
		return nil, errors.New("camera: capture command must contain {out}")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("camera: %s: %w", args[0], domain.ErrUnsupported)
	}
	dir, err := os.MkdirTemp("", "realinsta-capture-")
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	if opts.Facing == "" {
		opts.Facing = app.FacingUser
	}
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1080, 1080
	}
	glog.V(1).Infof("camera: opened (%s %dx%d)", opts.Facing, opts.Width, opts.Height)
	return &commandStream{cam: c, opts: opts, dir: dir}, nil
}

type commandStream struct {
	cam  CommandCamera
	opts app.CaptureOptions
	dir  string

	mu      sync.Mutex
	n       int
	torchOn bool
	stopped bool
}

func (s *commandStream) Capture(ctx context.Context) (app.Frame, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return app.Frame{}, errors.New("camera: stream stopped")
	}
	s.n++
	out := filepath.Join(s.dir, "frame-"+strconv.Itoa(s.n))
	s.mu.Unlock()

	args := expand(s.cam.Capture, map[string]string{
		"out":    out,
		"facing": string(s.opts.Facing),
		"width":  strconv.Itoa(s.opts.Width),
		"height": strconv.Itoa(s.opts.Height),
	})
	if err := run(ctx, args); err != nil {
		return app.Frame{}, fmt.Errorf("camera: capture: %w", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return app.Frame{}, fmt.Errorf("camera: capture produced no image: %w", err)
	}
	_ = os.Remove(out)
	return FrameOf(data)
}

func (s *commandStream) TorchSupported() bool {
	return strings.TrimSpace(s.cam.Torch) != ""
}

func (s *commandStream) SetTorch(on bool) error {
	if !s.TorchSupported() {
		return domain.ErrUnsupported
	}
	state := "off"
	if on {
		state = "on"
	}
	if err := run(context.Background(), expand(s.cam.Torch, map[string]string{"state": state})); err != nil {
		return fmt.Errorf("camera: torch %s: %w", state, err)
	}
	s.mu.Lock()
	s.torchOn = on
	s.mu.Unlock()
	return nil
}

// Stop releases the stream; the torch is switched off if it was on.
func (s *commandStream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	torch := s.torchOn
	s.torchOn = false
	s.mu.Unlock()

	if torch {
		if err := run(context.Background(), expand(s.cam.Torch, map[string]string{"state": "off"})); err != nil {
			glog.Warningf("camera: switching torch off: %v", err)
		}
	}
	_ = os.RemoveAll(s.dir)
	glog.V(1).Infof("camera: stopped")
}

// FrameOf wraps image bytes, sniffing the content type.
func FrameOf(data []byte) (app.Frame, error) {
	if len(data) == 0 {
		return app.Frame{}, domain.ErrNoImage
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return app.Frame{}, fmt.Errorf("not an image (%s)", ct)
	}
	return app.Frame{Data: data, ContentType: ct}, nil
}

// LoadFile reads an image from disk as a frame.
func LoadFile(path string) (app.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return app.Frame{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return FrameOf(data)
}

func expand(template string, vars map[string]string) []string {
	fields := strings.Fields(template)
	for i, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, "{"+k+"}", v)
		}
		fields[i] = f
	}
	return fields
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("empty command")
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%s: %w", args[0], domain.ErrUnsupported)
		}
		low := strings.ToLower(msg)
		if strings.Contains(low, "permission denied") || strings.Contains(low, "not permitted") {
			return fmt.Errorf("%s: %w", msg, domain.ErrPermissionDenied)
		}
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
