package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Backend selects the DataStore implementation.
type Backend string

const (
	BackendREST     Backend = "rest"
	BackendPostgres Backend = "postgres"
)

// Config holds application-level configuration.
type Config struct {
	SupabaseURL       string // e.g. "https://abc.supabase.co"
	AnonKey           string
	Backend           Backend
	DatabaseURL       string // postgres backend only
	OAuthProvider     string
	OAuthCallbackPort int
	AuthDir           string
	SessionPath       string
	UIStatePath       string
	LogDir            string
	CaptureCommand    string
	TorchCommand      string
	GeoURL            string
	RequestTimeout    time.Duration
}

// fileConfig is the TOML shape of the config file.
type fileConfig struct {
	SupabaseURL       string `toml:"supabase_url"`
	AnonKey           string `toml:"anon_key"`
	Backend           string `toml:"backend"`
	DatabaseURL       string `toml:"database_url"`
	OAuthProvider     string `toml:"oauth_provider"`
	OAuthCallbackPort int    `toml:"oauth_callback_port"`
	AuthDir           string `toml:"auth_dir"`
	LogDir            string `toml:"log_dir"`
	CaptureCommand    string `toml:"capture_command"`
	TorchCommand      string `toml:"torch_command"`
	GeoURL            string `toml:"geo_url"`
	RequestTimeout    string `toml:"request_timeout"`
}

const (
	defaultConfigPath   = "~/.config/realinsta/config.toml"
	defaultAuthDir      = "~/.config/realinsta"
	defaultLogDir       = "~/.local/state/realinsta/logs"
	defaultProvider     = "github"
	defaultCallbackPort = 45145
	defaultGeoURL       = "https://ipapi.co/json/"
	defaultTimeout      = 15 * time.Second
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config file at path (default when empty; a missing file is
// fine) and then applies environment overrides:
//
//	REALINSTA_SUPABASE_URL        project URL (required, https unless localhost)
//	REALINSTA_ANON_KEY            project anon key (required)
//	REALINSTA_BACKEND             rest (default) or postgres
//	REALINSTA_DATABASE_URL        postgres connection string
//	REALINSTA_OAUTH_PROVIDER      OAuth provider (default: github)
//	REALINSTA_OAUTH_CALLBACK_PORT loopback port for the OAuth callback
//	REALINSTA_AUTH_DIR            where the session is kept
//	REALINSTA_LOG_DIR             where logs go
//	REALINSTA_CAPTURE_COMMAND     camera capture command template
//	REALINSTA_TORCH_COMMAND       torch command template
//	REALINSTA_GEO_URL             IP geolocation endpoint
//	REALINSTA_REQUEST_TIMEOUT     e.g. "15s"
func Load(path string) (Config, error) {
	var fc fileConfig
	resolved, err := expandPath(firstNonEmpty(path, defaultConfigPath))
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if strings.TrimSpace(path) != "" {
			return Config{}, fmt.Errorf("config file %s does not exist", resolved)
		}
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Config{
		SupabaseURL:    env("REALINSTA_SUPABASE_URL", fc.SupabaseURL),
		AnonKey:        env("REALINSTA_ANON_KEY", fc.AnonKey),
		Backend:        Backend(strings.ToLower(env("REALINSTA_BACKEND", firstNonEmpty(fc.Backend, string(BackendREST))))),
		DatabaseURL:    env("REALINSTA_DATABASE_URL", fc.DatabaseURL),
		OAuthProvider:  env("REALINSTA_OAUTH_PROVIDER", firstNonEmpty(fc.OAuthProvider, defaultProvider)),
		CaptureCommand: env("REALINSTA_CAPTURE_COMMAND", fc.CaptureCommand),
		TorchCommand:   env("REALINSTA_TORCH_COMMAND", fc.TorchCommand),
		GeoURL:         env("REALINSTA_GEO_URL", firstNonEmpty(fc.GeoURL, defaultGeoURL)),
	}

	if cfg.SupabaseURL, err = normalizeURL(cfg.SupabaseURL); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return Config{}, errors.New("missing REALINSTA_ANON_KEY (or anon_key in the config file)")
	}
	switch cfg.Backend {
	case BackendREST:
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return Config{}, errors.New("backend postgres needs REALINSTA_DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("invalid backend %q: must be rest or postgres", cfg.Backend)
	}

	cfg.OAuthCallbackPort = fc.OAuthCallbackPort
	if v := os.Getenv("REALINSTA_OAUTH_CALLBACK_PORT"); v != "" {
		if cfg.OAuthCallbackPort, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid REALINSTA_OAUTH_CALLBACK_PORT: %w", err)
		}
	}
	if cfg.OAuthCallbackPort == 0 {
		cfg.OAuthCallbackPort = defaultCallbackPort
	}
	if cfg.OAuthCallbackPort < 1 || cfg.OAuthCallbackPort > 65535 {
		return Config{}, fmt.Errorf("invalid oauth callback port %d", cfg.OAuthCallbackPort)
	}

	cfg.RequestTimeout = defaultTimeout
	if v := env("REALINSTA_REQUEST_TIMEOUT", fc.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid request timeout %q", v)
		}
		cfg.RequestTimeout = d
	}

	if cfg.AuthDir, err = expandPath(env("REALINSTA_AUTH_DIR", firstNonEmpty(fc.AuthDir, defaultAuthDir))); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = expandPath(env("REALINSTA_LOG_DIR", firstNonEmpty(fc.LogDir, defaultLogDir))); err != nil {
		return Config{}, err
	}
	cfg.SessionPath = filepath.Join(cfg.AuthDir, "session")
	cfg.UIStatePath = filepath.Join(cfg.AuthDir, "ui_state.json")
	return cfg, nil
}

// DemoConfig is the configuration used with --demo; nothing remote is needed.
func DemoConfig() Config {
	dir, err := expandPath(defaultAuthDir)
	if err != nil {
		dir = os.TempDir()
	}
	logDir, err := expandPath(defaultLogDir)
	if err != nil {
		logDir = os.TempDir()
	}
	return Config{
		AuthDir:        dir,
		UIStatePath:    filepath.Join(dir, "ui_state.json"),
		LogDir:         logDir,
		GeoURL:         defaultGeoURL,
		RequestTimeout: defaultTimeout,
	}
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("missing REALINSTA_SUPABASE_URL (or supabase_url in the config file)")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid supabase url: must be an absolute URL")
	}
	local := parsed.Hostname() == "localhost" || parsed.Hostname() == "127.0.0.1"
	if parsed.Scheme != "https" && !(local && parsed.Scheme == "http") {
		return "", fmt.Errorf("invalid supabase url: only https is allowed")
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

// UIState is what the client remembers between runs.
type UIState struct {
	Facing    string `json:"facing,omitempty"` // "user" or "environment"
	TorchOn   bool   `json:"torch_on,omitempty"`
	LastEmail string `json:"last_email,omitempty"`
}

// LoadUIState reads the state file. A missing file yields the zero state.
func LoadUIState(path string) (UIState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return UIState{}, nil
	}
	if err != nil {
		return UIState{}, fmt.Errorf("reading ui state: %w", err)
	}
	var st UIState
	if err := json.Unmarshal(data, &st); err != nil {
		return UIState{}, fmt.Errorf("parsing ui state: %w", err)
	}
	return st, nil
}

// SaveUIState writes the state file.
func SaveUIState(path string, st UIState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing ui state: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
