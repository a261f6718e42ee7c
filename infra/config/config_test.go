package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "REALINSTA_") {
			t.Setenv(k, "")
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoad_ParsesEnvAndDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("REALINSTA_SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("REALINSTA_ANON_KEY", "anon")
	t.Setenv("REALINSTA_AUTH_DIR", t.TempDir())
	t.Setenv("REALINSTA_OAUTH_CALLBACK_PORT", "45146")

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SupabaseURL != "https://abc.supabase.co" {
		t.Fatalf("url must be normalized: %q", cfg.SupabaseURL)
	}
	if cfg.OAuthCallbackPort != 45146 || cfg.Backend != BackendREST || cfg.OAuthProvider != "github" || cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if filepath.Dir(cfg.SessionPath) != cfg.AuthDir {
		t.Fatalf("session must live in the auth dir: %q", cfg.SessionPath)
	}
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
supabase_url = "https://file.supabase.co"
anon_key = "file-key"
backend = "postgres"
database_url = "postgres://localhost/realinsta"
oauth_provider = "google"
capture_command = "fswebcam -q --no-banner --jpeg 90 {out}"
request_timeout = "5s"
`)
	t.Setenv("REALINSTA_ANON_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SupabaseURL != "https://file.supabase.co" || cfg.AnonKey != "env-key" {
		t.Fatalf("expected file value with env override: %#v", cfg)
	}
	if cfg.Backend != BackendPostgres || cfg.DatabaseURL == "" || cfg.OAuthProvider != "google" {
		t.Fatalf("unexpected backend config: %#v", cfg)
	}
	if cfg.RequestTimeout != 5*time.Second || !strings.Contains(cfg.CaptureCommand, "{out}") {
		t.Fatalf("unexpected device config: %#v", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"non https", map[string]string{"REALINSTA_SUPABASE_URL": "http://insecure.example", "REALINSTA_ANON_KEY": "k"}, "https"},
		{"missing url", map[string]string{"REALINSTA_ANON_KEY": "k"}, "SUPABASE_URL"},
		{"missing key", map[string]string{"REALINSTA_SUPABASE_URL": "https://a.supabase.co"}, "ANON_KEY"},
		{"bad backend", map[string]string{"REALINSTA_SUPABASE_URL": "https://a.supabase.co", "REALINSTA_ANON_KEY": "k", "REALINSTA_BACKEND": "mysql"}, "backend"},
		{"postgres without dsn", map[string]string{"REALINSTA_SUPABASE_URL": "https://a.supabase.co", "REALINSTA_ANON_KEY": "k", "REALINSTA_BACKEND": "postgres"}, "DATABASE_URL"},
		{"bad port", map[string]string{"REALINSTA_SUPABASE_URL": "https://a.supabase.co", "REALINSTA_ANON_KEY": "k", "REALINSTA_OAUTH_CALLBACK_PORT": "x"}, "PORT"},
		{"bad timeout", map[string]string{"REALINSTA_SUPABASE_URL": "https://a.supabase.co", "REALINSTA_ANON_KEY": "k", "REALINSTA_REQUEST_TIMEOUT": "-1s"}, "timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, ""))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_AllowsLocalHTTP(t *testing.T) {
	clearEnv(t)
	t.Setenv("REALINSTA_SUPABASE_URL", "http://127.0.0.1:54321")
	t.Setenv("REALINSTA_ANON_KEY", "k")
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("local supabase should be allowed: %v", err)
	}
	if cfg.SupabaseURL != "http://127.0.0.1:54321" {
		t.Fatalf("unexpected url %q", cfg.SupabaseURL)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for explicitly named missing file")
	}
}

func TestUIState_LoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui_state.json")

	st, err := LoadUIState(path)
	if err != nil {
		t.Fatalf("missing state should not error: %v", err)
	}
	if st != (UIState{}) {
		t.Fatalf("expected empty state for missing file")
	}

	want := UIState{Facing: "environment", TorchOn: true, LastEmail: "a@b.c"}
	if err := SaveUIState(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := LoadUIState(path)
	if err != nil {
		t.Fatalf("load after save failed: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected loaded state got=%#v want=%#v", got, want)
	}

	if err := os.WriteFile(path, []byte("not-json"), 0o600); err != nil {
		t.Fatalf("write corrupt state failed: %v", err)
	}
	if _, err := LoadUIState(path); err == nil {
		t.Fatalf("expected parse error for invalid json")
	}
}
