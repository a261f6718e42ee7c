package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/docopt/docopt-go"
	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
	"github.com/CrestNiraj12/realinsta/infra/auth"
	"github.com/CrestNiraj12/realinsta/infra/config"
	"github.com/CrestNiraj12/realinsta/infra/device"
	"github.com/CrestNiraj12/realinsta/infra/editor"
	"github.com/CrestNiraj12/realinsta/infra/logging"
	"github.com/CrestNiraj12/realinsta/infra/memory"
	"github.com/CrestNiraj12/realinsta/infra/postgres"
	"github.com/CrestNiraj12/realinsta/infra/supabase"
	"github.com/CrestNiraj12/realinsta/tui"
	"github.com/CrestNiraj12/realinsta/tui/screen"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Real Insta, photo sharing in the terminal.

Usage:
  realinsta [--config=<path>] [--debug] [--demo]
  realinsta login [--config=<path>] [--email=<email>] [--debug]
  realinsta logout [--config=<path>] [--debug]
  realinsta --version
  realinsta -h | --help

Options:
  -h --help        Show this screen.
  --version        Show version.
  --config=<path>  Config file (default ~/.config/realinsta/config.toml).
  --email=<email>  Sign in with email and password instead of the browser.
  --debug          Verbose logs.
  --demo           Run offline against a seeded local store.`

type cliMode int

const (
	cliRun cliMode = iota
	cliLogin
	cliLogout
	cliVersion
	cliHelp
)

type cliOptions struct {
	mode       cliMode
	configPath string
	email      string
	debug      bool
	demo       bool
}

func parseCLIArgs(args []string) (cliOptions, error) {
	helpShown := false
	parser := &docopt.Parser{
		HelpHandler: func(err error, _ string) { helpShown = err == nil },
	}
	opts, err := parser.ParseArgs(usage, args, "")
	if helpShown {
		return cliOptions{mode: cliHelp}, nil
	}
	if err != nil || opts == nil {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}

	var o cliOptions
	o.configPath, _ = opts.String("--config")
	o.email, _ = opts.String("--email")
	o.debug, _ = opts.Bool("--debug")
	o.demo, _ = opts.Bool("--demo")
	if v, _ := opts.Bool("--version"); v {
		o.mode = cliVersion
	} else if login, _ := opts.Bool("login"); login {
		o.mode = cliLogin
	} else if logout, _ := opts.Bool("logout"); logout {
		o.mode = cliLogout
	}
	return o, nil
}

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		if t := strings.TrimSpace(settings["vcs.time"]); t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

func fail(format string, args ...any) {
	glog.Errorf(format, args...)
	glog.Flush()
	fmt.Fprintf(os.Stderr, "realinsta: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	opts, err := parseCLIArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		os.Exit(2)
	}
	switch opts.mode {
	case cliVersion:
		v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
		fmt.Printf("%s %s\ncommit: %s\nbuilt: %s\n", domain.AppTitle, v, c, d)
		return
	case cliHelp:
		fmt.Println(usage)
		return
	}

	// 1. Load config from file and environment.
	cfg := config.DemoConfig()
	if !opts.demo {
		if cfg, err = config.Load(opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := logging.Configure(cfg.LogDir, opts.debug); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer glog.Flush()
	glog.Infof("starting %s (demo=%v backend=%s)", version, opts.demo, cfg.Backend)

	ctx := context.Background()
	if opts.demo {
		runDemo(ctx, cfg)
		return
	}

	// 2. Session gate.
	gt := auth.NewGoTrue(cfg.SupabaseURL, cfg.AnonKey, cfg.RequestTimeout)
	gate := auth.NewGate(gt, auth.NewFileSessionStore(cfg.SessionPath))
	uiState, err := config.LoadUIState(cfg.UIStatePath)
	if err != nil {
		glog.Warningf("ignoring ui state: %v", err)
	}

	switch opts.mode {
	case cliLogout:
		if err := gate.SignOut(ctx); err != nil {
			fail("logout: %v", err)
		}
		fmt.Println("Signed out.")
		return
	case cliLogin:
		s, err := login(ctx, cfg, gt, gate, opts.email, uiState)
		if err != nil {
			fail("login: %v", err)
		}
		fmt.Printf("Signed in as %s.\n", firstNonEmpty(s.Email, s.UserID))
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fail("an interactive terminal is required")
	}
	sess, err := gate.Current(ctx)
	if errors.Is(err, domain.ErrUnauthorized) {
		sess, err = login(ctx, cfg, gt, gate, "", uiState)
	}
	if err != nil {
		fail("session: %v", err)
	}

	// 3. Backend.
	client := supabase.NewClient(cfg.SupabaseURL, cfg.AnonKey, gate, cfg.RequestTimeout)
	var store app.DataStore = supabase.NewStore(client)
	if cfg.Backend == config.BackendPostgres {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			fail("database: %v", err)
		}
		defer pg.Close()
		store = pg
	}
	rt := supabase.NewRealtime(cfg.SupabaseURL, cfg.AnonKey, gate)
	defer rt.Close()

	social := app.NewSocial(store, supabase.NewStorage(client), sess.UserID)
	appSess := sess.App()
	if _, err := social.EnsureProfile(ctx, appSess); err != nil {
		fail("profile: %v", err)
	}

	run(ctx, tui.Deps{
		Deps: screen.Deps{
			Social:  social,
			Session: appSess,
			Subs:    app.NewSubscriptions(rt),
			Camera:  cameraFor(cfg),
			Locator: device.NewHTTPLocator(cfg.GeoURL, cfg.RequestTimeout),
			Editor:  editor.NewEnvEditor(),
			UIState: uiState,
			Timeout: cfg.RequestTimeout,
		},
		Auth:        gate,
		UIStatePath: cfg.UIStatePath,
	})
}

// login runs the password prompt when an email is known, the browser flow
// otherwise, and remembers the email for next time.
func login(ctx context.Context, cfg config.Config, gt *auth.GoTrue, gate *auth.Gate, email string, st config.UIState) (auth.Session, error) {
	if email != "" {
		email, password, err := auth.Prompt(os.Stdin, os.Stdout, email)
		if err != nil {
			return auth.Session{}, err
		}
		s, err := gate.LoginPassword(ctx, email, password)
		if err != nil {
			return auth.Session{}, err
		}
		st.LastEmail = email
		if err := config.SaveUIState(cfg.UIStatePath, st); err != nil {
			glog.Warningf("saving ui state: %v", err)
		}
		return s, nil
	}

	fmt.Printf("Opening the browser to sign in with %s...\n", cfg.OAuthProvider)
	loginCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	s, err := auth.LoginOAuth(loginCtx, gt, cfg.OAuthProvider, cfg.OAuthCallbackPort, auth.OpenBrowser)
	if err != nil {
		return auth.Session{}, err
	}
	return s, gate.Establish(s)
}

func cameraFor(cfg config.Config) app.Camera {
	if strings.TrimSpace(cfg.CaptureCommand) == "" {
		return nil
	}
	return device.CommandCamera{Capture: cfg.CaptureCommand, Torch: cfg.TorchCommand}
}

func runDemo(ctx context.Context, cfg config.Config) {
	store, storage := memory.NewStore(), memory.NewStorage()
	if err := memory.Seed(ctx, store, storage); err != nil {
		fail("seeding demo data: %v", err)
	}
	sess := memory.DemoSession()
	uiState, err := config.LoadUIState(cfg.UIStatePath)
	if err != nil {
		glog.Warningf("ignoring ui state: %v", err)
	}
	run(ctx, tui.Deps{
		Deps: screen.Deps{
			Social:  app.NewSocial(store, storage, sess.UserID),
			Session: sess,
			Subs:    app.NewSubscriptions(store.Hub()),
			Locator: device.NewHTTPLocator(cfg.GeoURL, cfg.RequestTimeout),
			Editor:  editor.NewEnvEditor(),
			UIState: uiState,
			Timeout: cfg.RequestTimeout,
		},
		Auth:        memory.NewAuth(sess),
		UIStatePath: cfg.UIStatePath,
	})
}

func run(ctx context.Context, deps tui.Deps) {
	if err := deps.Subs.StartGlobal(ctx, deps.Session.UserID); err != nil {
		glog.Warningf("inbox updates unavailable: %v", err)
	}
	p := tea.NewProgram(tui.NewApp(deps), tea.WithAltScreen())
	final, err := p.Run()
	deps.Subs.Close()
	if err != nil {
		fail("%v", err)
	}
	if a, ok := final.(tui.App); ok && a.SignedOut() {
		fmt.Println("Signed out.")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
