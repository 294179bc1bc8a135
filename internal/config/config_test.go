package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"POCKET_BASE_URL", "POCKET_TOKEN_PATH", "POCKET_LOG_LEVEL", "POCKET_DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Fatalf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
	}
	if cfg.ExtractBackend != BackendBrowser {
		t.Fatalf("ExtractBackend = %q, want %q", cfg.ExtractBackend, BackendBrowser)
	}
	if cfg.LoginPollSeconds != 5 || cfg.LoginMaxAttempts != 60 {
		t.Fatalf("login polling = %ds x %d, want 5s x 60", cfg.LoginPollSeconds, cfg.LoginMaxAttempts)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	body := `{"timeout_seconds": 10, "extract_backend": "hook", "hook_command": ["agent-browser", "eval"]}`
	if err := os.WriteFile(configPath, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10", cfg.TimeoutSeconds)
	}
	if cfg.ExtractBackend != BackendHook {
		t.Errorf("ExtractBackend = %q, want %q", cfg.ExtractBackend, BackendHook)
	}
	if len(cfg.HookCommand) != 2 || cfg.HookCommand[0] != "agent-browser" {
		t.Errorf("HookCommand = %v", cfg.HookCommand)
	}
	// Untouched fields keep defaults
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(`{"base_url": "http://file"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("POCKET_BASE_URL", "http://env")
	t.Setenv("POCKET_TOKEN_PATH", "/tmp/tok.json")
	t.Setenv("POCKET_LOG_LEVEL", "WARN")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != "http://env" {
		t.Errorf("BaseURL = %q, want env value", cfg.BaseURL)
	}
	if cfg.TokenPath != "/tmp/tok.json" {
		t.Errorf("TokenPath = %q, want env value", cfg.TokenPath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
}

func TestLoad_DebugEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("POCKET_LOG_LEVEL", "error")
	t.Setenv("POCKET_DEBUG", "1")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{BaseURL: "http://base", TimeoutSeconds: 30}
	overlay := &Config{BaseURL: "http://overlay"}

	result := Merge(base, overlay)

	if result.BaseURL != "http://overlay" {
		t.Errorf("BaseURL = %q, want overlay", result.BaseURL)
	}
	if result.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30 (base, overlay is zero)", result.TimeoutSeconds)
	}
}

func TestMerge_HookCommandReplaced(t *testing.T) {
	base := &Config{HookCommand: []string{"a", "b"}}
	overlay := &Config{HookCommand: []string{"c"}}

	result := Merge(base, overlay)
	if len(result.HookCommand) != 1 || result.HookCommand[0] != "c" {
		t.Errorf("HookCommand = %v, want [c]", result.HookCommand)
	}

	result = Merge(base, &Config{})
	if len(result.HookCommand) != 2 {
		t.Errorf("HookCommand = %v, want base value", result.HookCommand)
	}
}

func TestMerge_DisabledToolsDeduplicated(t *testing.T) {
	base := &Config{DisabledTools: []string{"pocket_search", " pocket_get_recording "}}
	overlay := &Config{DisabledTools: []string{"pocket_get_recording", ""}}

	result := Merge(base, overlay)
	if len(result.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want 2 entries", result.DisabledTools)
	}
	if result.DisabledTools[1] != "pocket_get_recording" {
		t.Errorf("DisabledTools[1] = %q, want trimmed value", result.DisabledTools[1])
	}
}

func TestResolvePaths(t *testing.T) {
	home := "/home/tester"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "relative", in: ".pocket_token.json", want: "/home/tester/.pocket_token.json"},
		{name: "tilde", in: "~/tokens/t.json", want: "/home/tester/tokens/t.json"},
		{name: "absolute", in: "/var/tmp/t.json", want: "/var/tmp/t.json"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{TokenPath: tt.in, BrowserProfileDir: tt.in}
			cfg.ResolvePaths(home)
			if cfg.TokenPath != tt.want {
				t.Errorf("TokenPath = %q, want %q", cfg.TokenPath, tt.want)
			}
			if cfg.BrowserProfileDir != tt.want {
				t.Errorf("BrowserProfileDir = %q, want %q", cfg.BrowserProfileDir, tt.want)
			}
		})
	}
}
