package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest/internal/config"
	"github.com/aretw0/commitquest/pkg/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "quest.yaml",
			content: `
backend:
  kind: process
  command: python3
  args: [commit_cli.py]
timeout: 2s
store:
  kind: sqlite
profile:
  language: go
  specialization: backend
`,
		},
		{
			name: "json",
			file: "quest.json",
			content: `{
  "backend": {"kind": "process", "command": "python3", "args": ["commit_cli.py"]},
  "timeout": "2s",
  "store": {"kind": "sqlite"},
  "profile": {"language": "go", "specialization": "backend"}
}`,
		},
		{
			name: "toml",
			file: "quest.toml",
			content: `
timeout = "2s"

[backend]
kind = "process"
command = "python3"
args = ["commit_cli.py"]

[store]
kind = "sqlite"

[profile]
language = "go"
specialization = "backend"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, config.BackendProcess, cfg.Backend.Kind)
			assert.Equal(t, "python3", cfg.Backend.Command)
			assert.Equal(t, []string{"commit_cli.py"}, cfg.Backend.Args)
			assert.Equal(t, 2*time.Second, cfg.TimeoutDuration())
			assert.Equal(t, config.StoreSQLite, cfg.Store.Kind)
			assert.Equal(t, ".quest/sessions.db", cfg.Store.SQLitePath, "unset keys keep defaults")
			assert.Equal(t, "go", cfg.Profile.Language)
			assert.True(t, cfg.WelcomeOnClear)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := config.Load(writeFile(t, "quest.json", "{not json"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"QUEST_BACKEND":          "llm",
		"QUEST_LLM_MODEL":        "gpt-4o",
		"OPENAI_API_KEY":         "sk-test",
		"QUEST_AUTO_COMMIT":      "true",
		"QUEST_WELCOME_ON_CLEAR": "false",
		"QUEST_LOG_LEVEL":        "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, config.BackendLLM, cfg.Backend.Kind)
	assert.Equal(t, "gpt-4o", cfg.Backend.Model)
	assert.Equal(t, "sk-test", cfg.Backend.APIKey)
	assert.True(t, cfg.AutoCommit)
	assert.False(t, cfg.WelcomeOnClear)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := config.Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "QUEST_AUTO_COMMIT" {
			return "sometimes", true
		}
		return "", false
	})

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "QUEST_AUTO_COMMIT", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"unknown backend", func(c *config.Config) { c.Backend.Kind = "carrier-pigeon" }, "backend.kind"},
		{"http without url", func(c *config.Config) { c.Backend.URL = "" }, "backend.url"},
		{"process without command", func(c *config.Config) { c.Backend.Kind = config.BackendProcess }, "backend.command"},
		{"llm without key", func(c *config.Config) { c.Backend.Kind = config.BackendLLM }, "backend.api_key"},
		{"bad timeout", func(c *config.Config) { c.Timeout = "soon" }, "timeout"},
		{"negative timeout", func(c *config.Config) { c.Timeout = "-1s" }, "timeout"},
		{"unknown store", func(c *config.Config) { c.Store.Kind = "floppy" }, "store.kind"},
		{"redis without addr", func(c *config.Config) { c.Store.Kind = config.StoreRedis; c.Store.RedisAddr = "" }, "store.redis_addr"},
		{"redis without timeout", func(c *config.Config) { c.Store.Kind = config.StoreRedis; c.Timeout = "0s" }, "timeout"},
		{"bad ttl", func(c *config.Config) { c.Store.TTL = "forever" }, "store.ttl"},
		{"bad log level", func(c *config.Config) { c.LogLevel = "chatty" }, "log_level"},
		{"short key", func(c *config.Config) { c.Store.EncryptionKey = "c2hvcnQ=" }, "store.encryption_key"},
		{"bad fallback", func(c *config.Config) {
			c.Store.EncryptionKey = testKey
			c.Store.FallbackKeys = []string{"%%%"}
		}, "store.fallback_keys"},
		{"bad redact pattern", func(c *config.Config) { c.Store.Redact = []string{"(["} }, "store.redact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

// testKey is 32 zero bytes.
const testKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func TestEncryptionKeys(t *testing.T) {
	cfg := config.Default()
	active, fallbacks, err := cfg.EncryptionKeys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallbacks)

	cfg.Store.EncryptionKey = testKey
	cfg.Store.FallbackKeys = []string{testKey}
	active, fallbacks, err = cfg.EncryptionKeys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallbacks, 1)
	assert.NoError(t, cfg.Validate())
}
