package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Defaults for the upstream service and local files.
const (
	DefaultBaseURL           = "https://production.heypocketai.com/api/v1"
	DefaultLoginOrigin       = "https://app.heypocket.com"
	DefaultTimeoutSeconds    = 30
	DefaultTokenFile         = ".pocket_token.json"
	DefaultBrowserProfileDir = ".pocket_browser_profile"
	DefaultLoginPollSeconds  = 5
	DefaultLoginMaxAttempts  = 60
	DefaultLogLevel          = "info"

	BackendBrowser = "browser"
	BackendHook    = "hook"
)

// Config holds application configuration.
type Config struct {
	// BaseURL is the API root that endpoint paths are appended to.
	BaseURL string `json:"base_url,omitempty"`

	// TimeoutSeconds bounds each HTTP round trip.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// TokenPath is the token cache file. Relative paths resolve against the
	// user's home directory.
	TokenPath string `json:"token_path,omitempty"`

	// ExtractBackend selects how `pocket extract` obtains a credential:
	// "browser" drives Chromium directly, "hook" runs HookCommand.
	ExtractBackend string `json:"extract_backend,omitempty"`

	// HookCommand is the external automation command for the "hook" backend.
	// The login origin is appended as the final argument and the token script
	// is written to its stdin. It must print the script's JSON result on stdout.
	HookCommand []string `json:"hook_command,omitempty"`

	// BrowserProfileDir is the persistent Chromium profile, so login is remembered.
	// Relative paths resolve against the user's home directory.
	BrowserProfileDir string `json:"browser_profile_dir,omitempty"`

	// LoginOrigin is the web app whose IndexedDB holds the session.
	LoginOrigin string `json:"login_origin,omitempty"`

	// LoginPollSeconds and LoginMaxAttempts bound the wait for interactive login.
	LoginPollSeconds int `json:"login_poll_seconds,omitempty"`
	LoginMaxAttempts int `json:"login_max_attempts,omitempty"`

	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"log_level,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		TimeoutSeconds:    DefaultTimeoutSeconds,
		TokenPath:         DefaultTokenFile,
		ExtractBackend:    BackendBrowser,
		BrowserProfileDir: DefaultBrowserProfileDir,
		LoginOrigin:       DefaultLoginOrigin,
		LoginPollSeconds:  DefaultLoginPollSeconds,
		LoginMaxAttempts:  DefaultLoginMaxAttempts,
		LogLevel:          DefaultLogLevel,
	}
}

// Load loads configuration from baseDir/config.json and applies environment
// overrides. Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pocket.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// applyEnvOverrides layers POCKET_* environment variables over file values.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("POCKET_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("POCKET_TOKEN_PATH")); v != "" {
		cfg.TokenPath = v
	}
	if v := strings.TrimSpace(os.Getenv("POCKET_LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if debug := strings.ToLower(os.Getenv("POCKET_DEBUG")); debug == "true" || debug == "1" {
		cfg.LogLevel = "debug"
	}
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars. HookCommand is replaced whole
// (argument order matters); DisabledTools is merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		BaseURL:           pickString(overlay.BaseURL, base.BaseURL),
		TimeoutSeconds:    pickInt(overlay.TimeoutSeconds, base.TimeoutSeconds),
		TokenPath:         pickString(overlay.TokenPath, base.TokenPath),
		ExtractBackend:    pickString(overlay.ExtractBackend, base.ExtractBackend),
		BrowserProfileDir: pickString(overlay.BrowserProfileDir, base.BrowserProfileDir),
		LoginOrigin:       pickString(overlay.LoginOrigin, base.LoginOrigin),
		LoginPollSeconds:  pickInt(overlay.LoginPollSeconds, base.LoginPollSeconds),
		LoginMaxAttempts:  pickInt(overlay.LoginMaxAttempts, base.LoginMaxAttempts),
		LogLevel:          pickString(overlay.LogLevel, base.LogLevel),
	}

	result.HookCommand = base.HookCommand
	if len(overlay.HookCommand) > 0 {
		result.HookCommand = overlay.HookCommand
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// ResolvePaths turns relative and ~-prefixed file paths into absolute paths
// under homeDir.
func (c *Config) ResolvePaths(homeDir string) {
	c.TokenPath = resolveHome(c.TokenPath, homeDir)
	c.BrowserProfileDir = resolveHome(c.BrowserProfileDir, homeDir)
}

func resolveHome(p, homeDir string) string {
	if p == "" {
		return p
	}
	if p == "~" {
		return homeDir
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(homeDir, rest)
	}
	if !filepath.IsAbs(p) {
		return filepath.Join(homeDir, p)
	}
	return p
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
