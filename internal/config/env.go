package config

import (
	"os"
	"strconv"

	"github.com/aretw0/commitquest/pkg/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUEST_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from QUEST_* variables read through lookup.
//
//   - QUEST_BACKEND, QUEST_BACKEND_URL, QUEST_PROCESS_COMMAND
//   - QUEST_LLM_MODEL, QUEST_LLM_API_KEY (falls back to OPENAI_API_KEY), QUEST_LLM_BASE_URL
//   - QUEST_PROJECT_DIR, QUEST_AUTO_COMMIT, QUEST_TIMEOUT, QUEST_WELCOME_ON_CLEAR
//   - QUEST_STORE, QUEST_STORE_DIR, QUEST_REDIS_ADDR, QUEST_SQLITE_PATH
//   - QUEST_STORE_KEY, QUEST_REDACT_SECRETS
//   - QUEST_ADDR, QUEST_LOG_LEVEL
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	strs := map[string]*string{
		"BACKEND":         &c.Backend.Kind,
		"BACKEND_URL":     &c.Backend.URL,
		"PROCESS_COMMAND": &c.Backend.Command,
		"LLM_MODEL":       &c.Backend.Model,
		"LLM_API_KEY":     &c.Backend.APIKey,
		"LLM_BASE_URL":    &c.Backend.BaseURL,
		"PROJECT_DIR":     &c.ProjectDir,
		"TIMEOUT":         &c.Timeout,
		"STORE":           &c.Store.Kind,
		"STORE_DIR":       &c.Store.Dir,
		"REDIS_ADDR":      &c.Store.RedisAddr,
		"SQLITE_PATH":     &c.Store.SQLitePath,
		"STORE_KEY":       &c.Store.EncryptionKey,
		"ADDR":            &c.Server.Addr,
		"LOG_LEVEL":       &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	if c.Backend.APIKey == "" {
		if v, ok := lookup("OPENAI_API_KEY"); ok {
			c.Backend.APIKey = v
		}
	}

	bools := map[string]*bool{
		"AUTO_COMMIT":      &c.AutoCommit,
		"WELCOME_ON_CLEAR": &c.WelcomeOnClear,
		"REDACT_SECRETS":   &c.Store.RedactSecrets,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigurationError{Field: EnvPrefix + key, Cause: err}
		}
		*dst = b
	}
	return nil
}
