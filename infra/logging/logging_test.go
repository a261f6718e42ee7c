package logging

import (
	"flag"
	"path/filepath"
	"testing"
)

func TestConfigure_SetsGlogFlags(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Configure(dir, true); err != nil {
		t.Fatalf("configure: %v", err)
	}
	want := map[string]string{
		"log_dir":         dir,
		"logtostderr":     "false",
		"stderrthreshold": "3",
		"v":               "2",
	}
	for name, value := range want {
		f := flag.Lookup(name)
		if f == nil {
			t.Fatalf("glog flag %s not registered", name)
		}
		if got := f.Value.String(); got != value {
			t.Fatalf("flag %s got=%q want=%q", name, got, value)
		}
	}

	if err := Configure(dir, false); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := flag.Lookup("v").Value.String(); got != "0" {
		t.Fatalf("expected verbosity reset, got %q", got)
	}
}
