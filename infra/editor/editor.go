// Package editor runs $EDITOR over a temp file for long-form text such as
// post captions and profile bios.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Kind selects the instruction header written above the text.
type Kind string

const (
	Caption Kind = "caption"
	Bio     Kind = "bio"
)

// EnvEditor prepares an external editor command using $EDITOR (fallback: "vi").
// It does not run the editor; callers hand the *exec.Cmd to tea.ExecProcess
// so Bubble Tea releases the terminal first.
type EnvEditor struct{}

func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

func instructions(kind Kind) string {
	var what string
	switch kind {
	case Bio:
		what = "Edit your bio below."
	default:
		what = "Write your caption below. Use #tags to make the post discoverable."
	}
	return "<!--\nrealinsta: " + what + "\n\n" +
		"- SAVE and EXIT to keep the text (e.g., :wq in vi).\n" +
		"- Everything above the closing marker is ignored.\n" +
		"-->\n\n"
}

// Cmd writes content under the instruction header to a temp file and
// returns the editor command and that file's path.
func (e *EnvEditor) Cmd(kind Kind, content string) (*exec.Cmd, string, error) {
	editorCmd := strings.Fields(os.Getenv("EDITOR"))
	if len(editorCmd) == 0 {
		editorCmd = []string{"vi"}
	}

	tmpFile, err := os.CreateTemp("", "realinsta-"+string(kind)+"-*.md")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(instructions(kind) + content); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	args := append(editorCmd[1:], tmpPath)
	return exec.Command(editorCmd[0], args...), tmpPath, nil
}

// ReadContent returns the edited text without the instruction header and
// removes the file.
func (e *EnvEditor) ReadContent(path string) (string, error) {
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}

	content := string(data)
	if strings.HasPrefix(strings.TrimSpace(content), "<!--") {
		if idx := strings.Index(content, "-->"); idx != -1 {
			content = content[idx+3:]
		}
	}
	return strings.TrimSpace(content), nil
}
