package camera

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/tui/common"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.statusLine() + "\n\n")

	if m.preview != "" {
		b.WriteString(m.preview + "\n")
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(previewW).Height(previewH).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Align(lipgloss.Center, lipgloss.Center).
			Render(common.MutedStyle.Render("space: capture\no: load file")) + "\n")
	}

	if m.location != "" {
		b.WriteString(common.MutedStyle.Render("📍 "+m.location) + "\n")
	}
	b.WriteString("\n" + m.caption.View() + "\n")
	b.WriteString(common.MutedStyle.Render(fmt.Sprintf("%d/%d", len([]rune(m.caption.Value())), domain.MaxCaptionLength)) + "\n")

	if m.focus == focusPath {
		b.WriteString("\n" + m.path.View() + "\n")
	}
	if m.err != nil {
		b.WriteString(common.ErrorStyle.Render(m.err.Error()) + "\n")
	}
	switch {
	case m.posting:
		b.WriteString(common.StatusBarStyle.Render("sharing…"))
	case m.focus == focusCaption:
		b.WriteString(common.StatusBarStyle.Render("ctrl+s: share • tab/esc: done"))
	default:
		b.WriteString(common.StatusBarStyle.Render("space: capture • f: flip • t: torch • o: file • g: location • c: caption • e: $EDITOR • ctrl+s: share"))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var parts []string
	switch {
	case m.ctx.Camera == nil:
		parts = append(parts, common.MutedStyle.Render("No capture command configured; load an image with o."))
	case m.opening:
		parts = append(parts, common.MutedStyle.Render("Starting camera…"))
	case m.camErr != nil:
		parts = append(parts, common.ErrorStyle.Render(cameraHint(m.camErr))+common.MutedStyle.Render(" Load an image with o."))
	case m.ready:
		parts = append(parts, common.SuccessStyle.Render("● camera ready")+common.MutedStyle.Render(" ("+string(m.facing)+")"))
		if m.torchOK {
			state := "off"
			if m.torch {
				state = "on"
			}
			parts = append(parts, common.MutedStyle.Render("torch "+state))
		}
	}
	if m.busy != "" {
		parts = append(parts, common.MutedStyle.Render(m.busy+"…"))
	}
	return strings.Join(parts, "  ")
}
