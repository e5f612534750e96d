package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "DATABASE_URL", "LLM_PROVIDER", "NOTES_CHAR_BUDGET", "CHAT_CHAR_BUDGET", "LLM_TIMEOUT"} {
		t.Setenv(key, "") // restores the original value after the test
		require.NoError(t, os.Unsetenv(key))
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 30000, cfg.NotesCharBudget)
	assert.Equal(t, 25000, cfg.ChatCharBudget)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
port: "9090"
llm_provider: openrouter
notes_char_budget: 1000
session_idle_ttl: 45m
allowed_origins: ["https://notes.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("NOTES_CHAR_BUDGET", "2000")
	t.Setenv("LLM_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port, "file overrides default")
	assert.Equal(t, "openrouter", cfg.LLMProvider)
	assert.Equal(t, 45*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, []string{"https://notes.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2000, cfg.NotesCharBudget, "env overrides file")
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 25000, cfg.ChatCharBudget, "untouched keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults in debug", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "ollama" }, true},
		{"bad rollback policy", func(c *Config) { c.QuestionOnFailure = "partial" }, true},
		{"zero notes budget", func(c *Config) { c.NotesCharBudget = 0 }, true},
		{"negative chat budget", func(c *Config) { c.ChatCharBudget = -5 }, true},
		{"one char budgets", func(c *Config) {
			c.NotesCharBudget = 1
			c.ChatCharBudget = 1
		}, false},
		{"zero credential token ttl", func(c *Config) { c.CredentialTokenTTL = 0 }, true},
		{"release with default jwt secret", func(c *Config) {
			c.GinMode = "release"
			c.CredentialSecret = "set"
		}, true},
		{"release with default credential secret", func(c *Config) {
			c.GinMode = "release"
			c.JWTSecret = "set"
		}, true},
		{"release with secrets", func(c *Config) {
			c.GinMode = "release"
			c.JWTSecret = "set"
			c.CredentialSecret = "set"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_RejectsNonPositiveBudgets(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NOTES_CHAR_BUDGET", "0")
	t.Setenv("CHAT_CHAR_BUDGET", "-5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTES_CHAR_BUDGET")
}

func TestLoad_PoliciesCaseInsensitive(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", " Gemini ")
	t.Setenv("NOTES_ON_FAILURE", "FULL")
	t.Setenv("QUESTION_ON_FAILURE", " None")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "full", cfg.NotesOnFailure)
	assert.Equal(t, "none", cfg.QuestionOnFailure)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Minute))
}
