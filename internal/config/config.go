// ABOUTME: Configuration loading and parsing for the legisbot client
// ABOUTME: Supports YAML or TOML files with .env loading, env var expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the backend API root used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// Credential driver names
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config represents the complete legisbot client configuration
type Config struct {
	Backend     BackendConfig     `yaml:"backend" toml:"backend"`
	Credentials CredentialsConfig `yaml:"credentials" toml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Stats       StatsConfig       `yaml:"stats" toml:"stats"`
}

// BackendConfig holds the document Q&A backend connection settings
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// CredentialsConfig selects where the session token is persisted
type CredentialsConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // file, sqlite, redis, memory
	Path   string `yaml:"path" toml:"path"`     // token file or sqlite database

	RedisAddr     string `yaml:"redis_addr" toml:"redis_addr"`
	RedisPassword string `yaml:"redis_password" toml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" toml:"redis_db"`
	RedisKey      string `yaml:"redis_key" toml:"redis_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	Format     string `yaml:"format" toml:"format"`
	File       string `yaml:"file" toml:"file"` // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
}

// StatsConfig holds admin statistics settings
type StatsConfig struct {
	CacheTTL time.Duration `yaml:"-" toml:"-"`

	CacheTTLRaw string `yaml:"cache_ttl" toml:"cache_ttl"`
}

// Path returns the path to the client config file.
// Priority: LEGISBOT_CONFIG env var > XDG_CONFIG_HOME/legisbot/config.yaml > ~/.config/legisbot/config.yaml
func Path() string {
	if envPath := os.Getenv("LEGISBOT_CONFIG"); envPath != "" {
		return envPath
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Dir returns the legisbot configuration directory.
func Dir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "legisbot")
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// LoadOrDefault loads the config at path, falling back to Default when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A .env file next to the config is loaded first (existing variables win).
// Environment variables in the format ${VAR_NAME} are expanded.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyOverrides lets the environment override file values.
func applyOverrides(cfg *Config) {
	if v := os.Getenv("LEGISBOT_API_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = DefaultBaseURL
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 60 * time.Second
	}

	if cfg.Credentials.Driver == "" {
		cfg.Credentials.Driver = DriverFile
	}
	if cfg.Credentials.Path == "" {
		switch cfg.Credentials.Driver {
		case DriverFile:
			cfg.Credentials.Path = filepath.Join(Dir(), "token")
		case DriverSQLite:
			cfg.Credentials.Path = filepath.Join(Dir(), "legisbot.db")
		}
	}
	if cfg.Credentials.Driver == DriverRedis {
		if cfg.Credentials.RedisAddr == "" {
			cfg.Credentials.RedisAddr = "localhost:6379"
		}
		if cfg.Credentials.RedisKey == "" {
			cfg.Credentials.RedisKey = "legisbot:token"
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}

	if cfg.Stats.CacheTTL == 0 {
		cfg.Stats.CacheTTL = time.Minute
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}

	switch c.Credentials.Driver {
	case DriverFile, DriverSQLite:
		if c.Credentials.Path == "" {
			return fmt.Errorf("credentials.path is required for the %s driver", c.Credentials.Driver)
		}
	case DriverRedis:
		if c.Credentials.RedisAddr == "" {
			return fmt.Errorf("credentials.redis_addr is required for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("credentials.driver must be one of file, sqlite, redis, memory, got %q", c.Credentials.Driver)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Backend.TimeoutRaw != "" {
		cfg.Backend.Timeout, err = time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
	}

	if cfg.Stats.CacheTTLRaw != "" {
		cfg.Stats.CacheTTL, err = time.ParseDuration(cfg.Stats.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing stats.cache_ttl %q: %w", cfg.Stats.CacheTTLRaw, err)
		}
	}

	return nil
}
