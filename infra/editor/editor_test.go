package editor

import (
	"os"
	"strings"
	"testing"
)

func TestCmd_UsesEditorAndWritesTemplate(t *testing.T) {
	t.Setenv("EDITOR", "code --wait")
	e := NewEnvEditor()

	cmd, path, err := e.Cmd(Caption, "sunset #sky")
	if err != nil {
		t.Fatalf("cmd failed: %v", err)
	}
	defer os.Remove(path)
	if len(cmd.Args) != 3 || cmd.Args[0] != "code" || cmd.Args[1] != "--wait" || cmd.Args[2] != path {
		t.Fatalf("unexpected args: %q", cmd.Args)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read temp file failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "caption") || !strings.HasSuffix(text, "sunset #sky") {
		t.Fatalf("unexpected template content: %q", text)
	}
}

func TestCmd_FallsBackToVi(t *testing.T) {
	t.Setenv("EDITOR", "")
	cmd, path, err := NewEnvEditor().Cmd(Bio, "")
	if err != nil {
		t.Fatalf("cmd failed: %v", err)
	}
	defer os.Remove(path)
	if cmd.Args[0] != "vi" {
		t.Fatalf("expected vi, got %q", cmd.Args)
	}
}

func TestReadContent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"caption", instructions(Caption) + "\nline1\nline2\n", "line1\nline2"},
		{"bio", instructions(Bio) + "coffee --> tea", "coffee --> tea"},
		{"header removed by user", "just text --> with arrow", "just text --> with arrow"},
		{"emptied", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := os.CreateTemp("", "realinsta-test-*.md")
			if err != nil {
				t.Fatalf("create temp failed: %v", err)
			}
			path := f.Name()
			_, _ = f.WriteString(tc.body)
			_ = f.Close()

			content, err := NewEnvEditor().ReadContent(path)
			if err != nil {
				t.Fatalf("read content failed: %v", err)
			}
			if content != tc.want {
				t.Fatalf("got %q want %q", content, tc.want)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Fatalf("expected temp file to be deleted")
			}
		})
	}
}
