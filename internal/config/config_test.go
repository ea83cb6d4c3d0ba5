// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML loading, .env files, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "")

	configPath := writeConfig(t, "config.yaml", `
backend:
  base_url: "https://legisbot.example.org/api/"
  timeout: "15s"

credentials:
  driver: "sqlite"
  path: "/tmp/legisbot-test.db"

logging:
  level: "debug"
  format: "json"
  file: "/tmp/legisbot.log"

stats:
  cache_ttl: "30s"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://legisbot.example.org/api" {
		t.Errorf("Backend.BaseURL = %q, want trailing slash trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 15*time.Second)
	}
	if cfg.Credentials.Driver != DriverSQLite {
		t.Errorf("Credentials.Driver = %q, want %q", cfg.Credentials.Driver, DriverSQLite)
	}
	if cfg.Credentials.Path != "/tmp/legisbot-test.db" {
		t.Errorf("Credentials.Path = %q", cfg.Credentials.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Stats.CacheTTL != 30*time.Second {
		t.Errorf("Stats.CacheTTL = %v, want %v", cfg.Stats.CacheTTL, 30*time.Second)
	}
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "")

	configPath := writeConfig(t, "config.toml", `
[backend]
base_url = "http://10.0.0.2:8000/api"
timeout = "5s"

[credentials]
driver = "redis"
redis_addr = "10.0.0.3:6379"
redis_db = 2
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://10.0.0.2:8000/api" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Backend.Timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Credentials.RedisAddr != "10.0.0.3:6379" || cfg.Credentials.RedisDB != 2 {
		t.Errorf("Credentials = %+v", cfg.Credentials)
	}
	if cfg.Credentials.RedisKey != "legisbot:token" {
		t.Errorf("Credentials.RedisKey = %q, want default", cfg.Credentials.RedisKey)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "")
	t.Setenv("TEST_LEGISBOT_REDIS_PASSWORD", "s3cret")

	configPath := writeConfig(t, "config.yaml", `
credentials:
  driver: "redis"
  redis_password: "${TEST_LEGISBOT_REDIS_PASSWORD}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Credentials.RedisPassword != "s3cret" {
		t.Errorf("Credentials.RedisPassword = %q, want %q", cfg.Credentials.RedisPassword, "s3cret")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "")
	// Registered so t.Setenv restores it; godotenv only sets unset variables.
	t.Setenv("TEST_LEGISBOT_DOTENV_URL", "")
	os.Unsetenv("TEST_LEGISBOT_DOTENV_URL")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_LEGISBOT_DOTENV_URL=http://from-dotenv:8000/api\n"), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`
backend:
  base_url: "${TEST_LEGISBOT_DOTENV_URL}"
`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://from-dotenv:8000/api" {
		t.Errorf("Backend.BaseURL = %q, want value from .env", cfg.Backend.BaseURL)
	}
}

func TestLoad_BaseURLOverride(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "https://override.example.org/api")

	configPath := writeConfig(t, "config.yaml", `
backend:
  base_url: "http://localhost:8000/api"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://override.example.org/api" {
		t.Errorf("Backend.BaseURL = %q, want env override", cfg.Backend.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	configPath := writeConfig(t, "config.yaml", "{}\n")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, DefaultBaseURL)
	}
	if cfg.Backend.Timeout != 60*time.Second {
		t.Errorf("Backend.Timeout = %v, want 60s", cfg.Backend.Timeout)
	}
	if cfg.Credentials.Driver != DriverFile {
		t.Errorf("Credentials.Driver = %q, want %q", cfg.Credentials.Driver, DriverFile)
	}
	if cfg.Credentials.Path != filepath.Join("/xdg", "legisbot", "token") {
		t.Errorf("Credentials.Path = %q", cfg.Credentials.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Stats.CacheTTL != time.Minute {
		t.Errorf("Stats.CacheTTL = %v, want 1m", cfg.Stats.CacheTTL)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("LEGISBOT_API_BASE_URL", "")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("Backend.BaseURL = %q, want default", cfg.Backend.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "backend: [unclosed\n")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing error", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "invalid timeout",
			content: "backend:\n  timeout: \"soon\"\n",
			field:   "backend.timeout",
		},
		{
			name:    "invalid cache ttl",
			content: "stats:\n  cache_ttl: \"forever\"\n",
			field:   "stats.cache_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "config.yaml", tt.content)

			_, err := Load(configPath)
			if err == nil {
				t.Fatal("Load() expected error for invalid duration")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error = %v, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "non http base url",
			mutate:  func(c *Config) { c.Backend.BaseURL = "ftp://example.org" },
			wantErr: "backend.base_url",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Credentials.Driver = "keychain" },
			wantErr: "credentials.driver",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Credentials.Driver = DriverSQLite
				c.Credentials.Path = ""
			},
			wantErr: "credentials.path",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Credentials.Driver = DriverRedis
				c.Credentials.RedisAddr = ""
			},
			wantErr: "credentials.redis_addr",
		},
		{
			name:   "memory needs nothing",
			mutate: func(c *Config) { c.Credentials = CredentialsConfig{Driver: DriverMemory} },
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("LEGISBOT_CONFIG", "/etc/legisbot.yaml")
		if got := Path(); got != "/etc/legisbot.yaml" {
			t.Errorf("Path() = %q", got)
		}
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("LEGISBOT_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		if got := Path(); got != filepath.Join("/xdg", "legisbot", "config.yaml") {
			t.Errorf("Path() = %q", got)
		}
	})
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single env var", input: "${FOO}", expected: "bar"},
		{name: "env var with surrounding text", input: "prefix-${FOO}-suffix", expected: "prefix-bar-suffix"},
		{name: "multiple env vars", input: "${FOO}/${BAZ}", expected: "bar/qux"},
		{name: "no env vars", input: "no-vars-here", expected: "no-vars-here"},
		{name: "unset env var", input: "${UNSET_VAR_LEGISBOT}", expected: ""},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
