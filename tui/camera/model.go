// Package camera renders the capture and compose screen for new posts.
package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/device"
	"github.com/CrestNiraj12/realinsta/infra/editor"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/nav"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const (
	captureW, captureH = 1080, 1080
	previewW, previewH = 32, 12
	locateTimeout      = 8 * time.Second
)

type focus int

const (
	focusNone focus = iota
	focusCaption
	focusPath
)

// --- Messages ---

type streamOpenedMsg struct {
	Facing app.Facing
	Torch  bool
	Err    error
}

type capturedMsg struct {
	Frame app.Frame
	Art   string
	Err   error
}

type torchMsg struct {
	On  bool
	Err error
}

type locatedMsg struct {
	Location domain.Location
	Err      error
}

type editorDoneMsg struct {
	Path string
	Err  error
}

type postedMsg struct {
	Post domain.Post
	Err  error
}

// holder owns the capture stream across value copies of the model. Close
// may run before an Open completes; the late stream is then stopped.
type holder struct {
	mu     sync.Mutex
	stream app.CameraStream
	closed bool
}

func (h *holder) set(s app.CameraStream) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.stream != nil {
		h.stream.Stop()
	}
	h.stream = s
	return true
}

func (h *holder) get() app.CameraStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stream
}

func (h *holder) release() {
	h.mu.Lock()
	s := h.stream
	h.stream = nil
	h.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

func (h *holder) close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.release()
}

// --- Model ---

type Model struct {
	ctx  screen.Context
	keys common.KeyMap
	cam  *holder

	facing   app.Facing
	opening  bool
	ready    bool
	torch    bool
	torchOK  bool
	camErr   error
	frame    app.Frame
	preview  string
	busy     string // what is in flight, for the status line
	location string

	focus   focus
	caption textarea.Model
	path    textinput.Model
	posting bool
	err     error
}

func New(ctx screen.Context) Model {
	ta := textarea.New()
	ta.Placeholder = "Write a caption… (#tags welcome)"
	ta.CharLimit = domain.MaxCaptionLength
	ta.SetWidth(max(min(ctx.Width-4, 72), 20))
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	ti := textinput.New()
	ti.Placeholder = "/path/to/image.jpg"
	ti.Prompt = "file: "

	facing := app.Facing(ctx.UIState.Facing)
	if facing != app.FacingEnvironment {
		facing = app.FacingUser
	}
	return Model{
		ctx:     ctx,
		keys:    common.DefaultKeyMap(),
		cam:     &holder{},
		facing:  facing,
		opening: ctx.Camera != nil,
		caption: ta,
		path:    ti,
	}
}

func (m Model) Init() tea.Cmd {
	if m.ctx.Camera == nil {
		return nil
	}
	return m.open(m.facing)
}

func (m Model) Title() string { return "New post" }

func (m Model) Typing() bool { return m.focus != focusNone }

// Close stops the capture stream; the torch goes off with it.
func (m Model) Close() {
	m.cam.close()
}

func (m Model) Keys() []key.Binding {
	k := m.keys
	return []key.Binding{k.Capture, k.Flip, k.Torch, k.LoadFile, k.Locate, k.Comments, k.Edit, k.Submit}
}

func (m Model) open(facing app.Facing) tea.Cmd {
	cam, h := m.ctx.Camera, m.cam
	wantTorch := m.ctx.UIState.TorchOn
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		stream, err := cam.Open(ctx, app.CaptureOptions{Facing: facing, Width: captureW, Height: captureH})
		if err != nil {
			return streamOpenedMsg{Facing: facing, Err: err}
		}
		if !h.set(stream) {
			stream.Stop()
			return nil
		}
		torch := false
		if wantTorch && stream.TorchSupported() {
			torch = stream.SetTorch(true) == nil
		}
		return streamOpenedMsg{Facing: facing, Torch: torch}
	})
}

func (m Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case streamOpenedMsg:
		m.opening = false
		if msg.Err != nil {
			m.camErr = msg.Err
			m.ready = false
			glog.Warningf("camera: open %s: %v", msg.Facing, msg.Err)
			return m, screen.Fail("camera unavailable", msg.Err)
		}
		m.camErr = nil
		m.ready = true
		m.facing = msg.Facing
		m.torch = msg.Torch
		if s := m.cam.get(); s != nil {
			m.torchOK = s.TorchSupported()
		}
		return m, nil

	case capturedMsg:
		m.busy = ""
		if msg.Err != nil {
			return m, screen.Fail("capture failed", msg.Err)
		}
		m.frame = msg.Frame
		m.preview = msg.Art
		return m, nil

	case torchMsg:
		m.busy = ""
		if msg.Err != nil {
			return m, screen.Fail("torch", msg.Err)
		}
		m.torch = msg.On
		return m, m.savePrefs()

	case locatedMsg:
		m.busy = ""
		if msg.Err != nil {
			return m, screen.Fail("location unavailable", msg.Err)
		}
		m.location = msg.Location.String()
		return m, nil

	case editorDoneMsg:
		if msg.Err != nil {
			return m, screen.Fail("editor", msg.Err)
		}
		text, err := m.ctx.Editor.ReadContent(msg.Path)
		if err != nil {
			return m, screen.Fail("editor", err)
		}
		m.caption.SetValue(text)
		return m, nil

	case postedMsg:
		m.posting = false
		if msg.Err != nil {
			m.err = msg.Err
			glog.Errorf("creating post: %v", msg.Err)
			return m, screen.Fail("could not share", msg.Err)
		}
		glog.Infof("post %s created", msg.Post.ID)
		return m, tea.Batch(screen.Toast("Shared!"), screen.SwitchTab(nav.Feed))

	case tea.KeyMsg:
		switch m.focus {
		case focusCaption:
			return m.handleCaptionKey(msg)
		case focusPath:
			return m.handlePathKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Capture):
		return m, m.capture()
	case key.Matches(msg, m.keys.Flip):
		if m.ctx.Camera == nil || m.opening {
			return m, nil
		}
		next := app.FacingEnvironment
		if m.facing == app.FacingEnvironment {
			next = app.FacingUser
		}
		m.cam.release()
		m.ready, m.opening, m.torch = false, true, false
		m.facing = next
		return m, tea.Batch(m.open(next), m.savePrefs())
	case key.Matches(msg, m.keys.Torch):
		return m, m.toggleTorch()
	case key.Matches(msg, m.keys.LoadFile):
		m.focus = focusPath
		cmd := m.path.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Locate):
		return m, m.locate()
	case key.Matches(msg, m.keys.Comments), key.Matches(msg, m.keys.NextField):
		m.focus = focusCaption
		cmd := m.caption.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		return m, m.editCaption()
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	}
	return m, nil
}

func (m Model) handleCaptionKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc, key.Matches(msg, m.keys.NextField):
		m.focus = focusNone
		m.caption.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.focus = focusNone
		m.caption.Blur()
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.caption, cmd = m.caption.Update(msg)
	return m, cmd
}

func (m Model) handlePathKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusNone
		m.path.Blur()
		return m, nil
	case tea.KeyEnter:
		m.focus = focusNone
		m.path.Blur()
		p := expandHome(strings.TrimSpace(m.path.Value()))
		if p == "" {
			return m, nil
		}
		m.busy = "loading image"
		return m, m.ctx.Run(func(context.Context) tea.Msg {
			return render(device.LoadFile(p))
		})
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) capture() tea.Cmd {
	stream := m.cam.get()
	if stream == nil {
		if m.camErr != nil {
			return screen.Fail("camera unavailable, press o to load a file", m.camErr)
		}
		return screen.Toast("camera is starting…")
	}
	m.busy = "capturing"
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		return render(stream.Capture(ctx))
	})
}

func render(frame app.Frame, err error) tea.Msg {
	if err != nil {
		return capturedMsg{Err: err}
	}
	img, err := common.DecodeImage(frame.Data)
	if err != nil {
		return capturedMsg{Err: err}
	}
	return capturedMsg{Frame: frame, Art: common.RenderThumbnail(img, previewW, previewH)}
}

func (m *Model) toggleTorch() tea.Cmd {
	stream := m.cam.get()
	if stream == nil || !stream.TorchSupported() {
		return screen.Fail("torch", domain.ErrUnsupported)
	}
	on := !m.torch
	m.busy = "torch"
	return m.ctx.Run(func(context.Context) tea.Msg {
		return torchMsg{On: on, Err: stream.SetTorch(on)}
	})
}

func (m *Model) locate() tea.Cmd {
	if m.ctx.Locator == nil {
		return screen.Fail("location unavailable", domain.ErrUnsupported)
	}
	if m.location != "" {
		m.location = ""
		return screen.Toast("location removed")
	}
	loc := m.ctx.Locator
	m.busy = "locating"
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, locateTimeout)
		defer cancel()
		l, err := loc.Locate(ctx)
		return locatedMsg{Location: l, Err: err}
	})
}

func (m Model) editCaption() tea.Cmd {
	if m.ctx.Editor == nil {
		return nil
	}
	cmd, path, err := m.ctx.Editor.Cmd(editor.Caption, m.caption.Value())
	if err != nil {
		return screen.Fail("preparing editor", err)
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorDoneMsg{Path: path, Err: err}
	})
}

func (m *Model) submit() tea.Cmd {
	if m.posting {
		return nil
	}
	if len(m.frame.Data) == 0 {
		return screen.Fail("nothing to share", domain.ErrNoImage)
	}
	caption, err := domain.ValidateCaption(m.caption.Value())
	if err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	m.posting = true
	social, frame, location := m.ctx.Social, m.frame, m.location
	return m.ctx.Run(func(ctx context.Context) tea.Msg {
		p, err := social.CreatePost(ctx, frame, caption, location)
		return postedMsg{Post: p, Err: err}
	})
}

func (m Model) savePrefs() tea.Cmd {
	st := m.ctx.UIState
	st.Facing = string(m.facing)
	st.TorchOn = m.torch
	return screen.Emit(screen.UIStateMsg{State: st})
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return home + rest
		}
	}
	return p
}

func cameraHint(err error) string {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return "Camera access was denied."
	case errors.Is(err, domain.ErrUnsupported):
		return "No camera available."
	}
	return fmt.Sprintf("Camera failed: %s", screen.ErrorText(err))
}
