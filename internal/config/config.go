// Package config loads the quest configuration from a file, the environment
// and command-line flags, in that order of precedence (lowest first).
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/commitquest/pkg/domain"
)

// DefaultPath is read when no configuration file is given.
const DefaultPath = "quest.yaml"

// Backend kinds.
const (
	BackendHTTP    = "http"
	BackendProcess = "process"
	BackendLLM     = "llm"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the full runtime configuration.
type Config struct {
	Backend        BackendConfig `yaml:"backend" json:"backend" toml:"backend"`
	ProjectDir     string        `yaml:"project_dir" json:"project_dir" toml:"project_dir"`
	AutoCommit     bool          `yaml:"auto_commit" json:"auto_commit" toml:"auto_commit"`
	Timeout        string        `yaml:"timeout" json:"timeout" toml:"timeout"`
	WelcomeOnClear bool          `yaml:"welcome_on_clear" json:"welcome_on_clear" toml:"welcome_on_clear"`
	Store          StoreConfig   `yaml:"store" json:"store" toml:"store"`
	Server         ServerConfig  `yaml:"server" json:"server" toml:"server"`
	Profile        Profile       `yaml:"profile" json:"profile" toml:"profile"`
	LogLevel       string        `yaml:"log_level" json:"log_level" toml:"log_level"`
}

// BackendConfig selects and configures the commit message generator.
type BackendConfig struct {
	Kind string `yaml:"kind" json:"kind" toml:"kind"`

	// http
	URL string `yaml:"url" json:"url" toml:"url"`

	// process
	Command string            `yaml:"command" json:"command" toml:"command"`
	Args    []string          `yaml:"args" json:"args" toml:"args"`
	Env     map[string]string `yaml:"env" json:"env" toml:"env"`

	// llm
	Model   string `yaml:"model" json:"model" toml:"model"`
	APIKey  string `yaml:"api_key" json:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" json:"base_url" toml:"base_url"`
}

// StoreConfig selects where hosted sessions are kept.
type StoreConfig struct {
	Kind        string `yaml:"kind" json:"kind" toml:"kind"`
	Dir         string `yaml:"dir" json:"dir" toml:"dir"`
	RedisAddr   string `yaml:"redis_addr" json:"redis_addr" toml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix" json:"redis_prefix" toml:"redis_prefix"`
	TTL         string `yaml:"ttl" json:"ttl" toml:"ttl"`
	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path" toml:"sqlite_path"`

	// EncryptionKey is a base64 AES-256 key sealing stored sessions. Empty disables encryption.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key" toml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys" toml:"fallback_keys"`
	// Redact lists regular expressions masked in stored transcripts.
	Redact        []string `yaml:"redact" json:"redact" toml:"redact"`
	RedactSecrets bool     `yaml:"redact_secrets" json:"redact_secrets" toml:"redact_secrets"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr      string  `yaml:"addr" json:"addr" toml:"addr"`
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit" toml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" json:"rate_burst" toml:"rate_burst"`
}

// Profile describes the developer, used by the LLM backend for prompts and boosts.
type Profile struct {
	Language       string `yaml:"language" json:"language" toml:"language"`
	Framework      string `yaml:"framework" json:"framework" toml:"framework"`
	Specialization string `yaml:"specialization" json:"specialization" toml:"specialization"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:  BackendHTTP,
			URL:   "http://localhost:5000",
			Model: "gpt-4o-mini",
		},
		ProjectDir:     ".",
		Timeout:        "5s",
		WelcomeOnClear: true,
		Store: StoreConfig{
			Kind:        StoreMemory,
			Dir:         ".quest/sessions",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "commitquest",
			SQLitePath:  ".quest/sessions.db",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 2,
			RateBurst: 4,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// The decoder is chosen by extension: .json, .toml, anything else is YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// TimeoutDuration returns the parsed backend timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// StoreTTL returns the parsed session TTL, zero when unset.
func (c *Config) StoreTTL() time.Duration {
	if c.Store.TTL == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Store.TTL)
	return d
}

// SlogLevel returns the parsed log level, info when invalid.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// EncryptionKeys decodes the store keys. active is nil when encryption is off.
func (c *Config) EncryptionKeys() (active []byte, fallbacks [][]byte, err error) {
	if c.Store.EncryptionKey == "" {
		return nil, nil, nil
	}
	decode := func(field, v string) ([]byte, error) {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, domain.NewConfigurationError(field, "key is not valid base64")
		}
		if len(key) != 32 {
			return nil, domain.NewConfigurationError(field, "key must be 32 bytes, got %d", len(key))
		}
		return key, nil
	}
	if active, err = decode("store.encryption_key", c.Store.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for _, v := range c.Store.FallbackKeys {
		key, err := decode("store.fallback_keys", v)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

// Validate reports the first invalid field as a *domain.ConfigurationError.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendHTTP:
		if c.Backend.URL == "" {
			return domain.NewConfigurationError("backend.url", "required for the http backend")
		}
	case BackendProcess:
		if c.Backend.Command == "" {
			return domain.NewConfigurationError("backend.command", "required for the process backend")
		}
	case BackendLLM:
		if c.Backend.Model == "" {
			return domain.NewConfigurationError("backend.model", "required for the llm backend")
		}
		if c.Backend.APIKey == "" && c.Backend.BaseURL == "" {
			return domain.NewConfigurationError("backend.api_key", "required unless base_url points to a local server")
		}
	default:
		return domain.NewConfigurationError("backend.kind", "unknown backend %q", c.Backend.Kind)
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return domain.NewConfigurationError("timeout", "invalid duration %q", c.Timeout)
	}
	if d < 0 {
		return domain.NewConfigurationError("timeout", "must not be negative")
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			return domain.NewConfigurationError("store.dir", "required for the file store")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return domain.NewConfigurationError("store.redis_addr", "required for the redis store")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return domain.NewConfigurationError("store.sqlite_path", "required for the sqlite store")
		}
	default:
		return domain.NewConfigurationError("store.kind", "unknown store %q", c.Store.Kind)
	}
	if c.Store.Kind == StoreRedis && d == 0 {
		return domain.NewConfigurationError("timeout", "must be positive with the redis store, whose session locks expire")
	}
	if c.Store.TTL != "" {
		if _, err := time.ParseDuration(c.Store.TTL); err != nil {
			return domain.NewConfigurationError("store.ttl", "invalid duration %q", c.Store.TTL)
		}
	}

	if _, _, err := c.EncryptionKeys(); err != nil {
		return err
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return domain.NewConfigurationError("store.redact", "invalid pattern %q: %v", p, err)
		}
	}

	if c.Server.RateLimit < 0 {
		return domain.NewConfigurationError("server.rate_limit", "must not be negative")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return domain.NewConfigurationError("log_level", "invalid level %q", c.LogLevel)
	}
	return nil
}
