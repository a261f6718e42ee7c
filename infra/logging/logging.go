// Package logging points glog at files so the TUI keeps the terminal.
package logging

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
)

// Configure sends glog output to files under dir. debug raises verbosity to 2.
// It must run before the first log call.
func Configure(dir string, debug bool) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	verbosity := "0"
	if debug {
		verbosity = "2"
	}
	for name, value := range map[string]string{
		"log_dir":         dir,
		"logtostderr":     "false",
		"alsologtostderr": "false",
		"stderrthreshold": "FATAL",
		"v":               verbosity,
	} {
		if err := flag.Set(name, value); err != nil {
			return fmt.Errorf("setting glog flag %s: %w", name, err)
		}
	}
	glog.V(1).Infof("logging to %s (v=%s)", dir, verbosity)
	return nil
}
