package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/editor"
	"github.com/CrestNiraj12/realinsta/tui/common"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

const (
	fieldUsername = iota
	fieldName
	fieldBio
	fieldCount
)

type currentMsg struct {
	Profile domain.Profile
	Err     error
}

type savedMsg struct {
	Err error
}

type bioEditedMsg struct {
	Path string
	Err  error
}

var openEditor = key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "bio in $EDITOR"))

// Edit edits the signed-in user's username, display name and bio.
type Edit struct {
	ctx    screen.Context
	inputs [fieldCount]textinput.Model
	focus  int
	loaded bool
	saving bool
	err    error // inline; validation and conflicts
	keys   common.KeyMap
}

func NewEdit(ctx screen.Context) Edit {
	var inputs [fieldCount]textinput.Model
	for i, f := range []struct {
		prompt, placeholder string
		limit               int
	}{
		{"username     ", "3-30 chars: a-z 0-9 . _", 30},
		{"display name ", "optional", 60},
		{"bio          ", "optional, ctrl+e for $EDITOR", 300},
	} {
		ti := textinput.New()
		ti.Prompt = f.prompt
		ti.Placeholder = f.placeholder
		ti.CharLimit = f.limit
		ti.Width = max(ctx.Width-20, 20)
		inputs[i] = ti
	}
	inputs[fieldUsername].Focus()
	return Edit{ctx: ctx, inputs: inputs, keys: common.DefaultKeyMap()}
}

func (m Edit) Init() tea.Cmd {
	social, id := m.ctx.Social, m.ctx.Session.UserID
	return tea.Batch(textinput.Blink, m.ctx.Run(func(ctx context.Context) tea.Msg {
		p, err := social.Profile(ctx, id)
		return currentMsg{Profile: p, Err: err}
	}))
}

func (m Edit) Title() string { return "Edit profile" }

func (m Edit) Typing() bool { return true }

func (m Edit) Close() {}

func (m Edit) Keys() []key.Binding {
	return []key.Binding{m.keys.NextField, m.keys.Submit, openEditor,
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))}
}

func (m Edit) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case currentMsg:
		if msg.Err != nil {
			glog.Errorf("loading own profile: %v", msg.Err)
			return m, screen.Fail("could not load profile", msg.Err)
		}
		m.loaded = true
		m.inputs[fieldUsername].SetValue(msg.Profile.Username)
		if msg.Profile.DisplayName != nil {
			m.inputs[fieldName].SetValue(*msg.Profile.DisplayName)
		}
		if msg.Profile.Bio != nil {
			m.inputs[fieldBio].SetValue(*msg.Profile.Bio)
		}
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.Err != nil {
			if errors.Is(msg.Err, domain.ErrUsernameTaken) {
				m.err = domain.ErrUsernameTaken
				return m, nil
			}
			glog.Errorf("saving profile: %v", msg.Err)
			return m, screen.Fail("could not save profile", msg.Err)
		}
		return m, tea.Batch(screen.Toast("Profile updated"), screen.Back())

	case bioEditedMsg:
		if msg.Err != nil {
			return m, screen.Fail("editor", msg.Err)
		}
		text, err := m.ctx.Editor.ReadContent(msg.Path)
		if err != nil {
			return m, screen.Fail("editor", err)
		}
		m.inputs[fieldBio].SetValue(strings.Join(strings.Fields(text), " "))
		return m, nil

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyEsc:
			return m, screen.Back()
		case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
			step := 1
			if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
				step = fieldCount - 1
			}
			return m, m.moveFocus(step)
		case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter:
			return m.save()
		case key.Matches(msg, openEditor):
			return m, m.editBio()
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Edit) moveFocus(step int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + step) % fieldCount
	return m.inputs[m.focus].Focus()
}

func (m Edit) save() (screen.Screen, tea.Cmd) {
	if m.saving || !m.loaded {
		return m, nil
	}
	username := domain.NormalizeUsername(m.inputs[fieldUsername].Value())
	if err := domain.ValidateUsername(username); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.saving = true
	social := m.ctx.Social
	name, bio := m.inputs[fieldName].Value(), m.inputs[fieldBio].Value()
	return m, m.ctx.Run(func(ctx context.Context) tea.Msg {
		return savedMsg{Err: social.UpdateProfile(ctx, username, name, bio)}
	})
}

func (m Edit) editBio() tea.Cmd {
	if m.ctx.Editor == nil {
		return nil
	}
	cmd, path, err := m.ctx.Editor.Cmd(editor.Bio, m.inputs[fieldBio].Value())
	if err != nil {
		return screen.Fail("preparing editor", err)
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return bioEditedMsg{Path: path, Err: err}
	})
}

func (m Edit) View() string {
	if !m.loaded {
		return common.MutedStyle.Render("Loading profile...")
	}
	var b strings.Builder
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View() + "\n")
	}
	switch {
	case m.err != nil:
		b.WriteString("\n" + common.ErrorStyle.Render(m.err.Error()))
	case m.saving:
		b.WriteString("\n" + common.MutedStyle.Render("Saving…"))
	default:
		b.WriteString("\n" + common.MutedStyle.Render("tab next field · ctrl+s save · esc cancel"))
	}
	return b.String()
}
