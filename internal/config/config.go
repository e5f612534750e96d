// Package config handles application configuration.
//
// Go Pattern: Configuration via environment variables with sensible defaults.
// Values are resolved in three layers: built-in defaults, then an optional
// YAML file named by CONFIG_FILE, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultJWTSecret        = "dev-jwt-secret-change-in-production"
	defaultCredentialSecret = "dev-credential-secret-change-in-production"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"` // "debug", "release", or "test"

	// Database settings. Empty DatabaseURL keeps the credential in memory.
	DatabaseURL    string `yaml:"database_url"`
	MigrationsPath string `yaml:"migrations_path"`

	// Text-generation service
	LLMProvider     string        `yaml:"llm_provider"` // "gemini" or "openrouter"
	GeminiBaseURL   string        `yaml:"gemini_base_url"`
	GeminiModel     string        `yaml:"gemini_model"`
	OpenRouterModel string        `yaml:"openrouter_model"`
	LLMTimeout      time.Duration `yaml:"llm_timeout"`

	// Generation worker pool: caps concurrent calls across all sessions
	GenerationWorkers   int `yaml:"generation_workers"`
	GenerationQueueSize int `yaml:"generation_queue_size"`

	// Pipeline limits and failure policies ("none" or "full")
	NotesCharBudget   int    `yaml:"notes_char_budget"`
	ChatCharBudget    int    `yaml:"chat_char_budget"`
	NotesOnFailure    string `yaml:"notes_on_failure"`
	QuestionOnFailure string `yaml:"question_on_failure"`

	// Uploads and sessions
	MaxUploadSize   int64         `yaml:"max_upload_size"` // bytes per request
	MaxSessions     int           `yaml:"max_sessions"`
	SessionIdleTTL  time.Duration `yaml:"session_idle_ttl"`
	SessionTokenTTL time.Duration `yaml:"session_token_ttl"`

	// Lifetime of the token that authorizes replacing the saved API key
	CredentialTokenTTL time.Duration `yaml:"credential_token_ttl"`

	// Secrets
	JWTSecret        string `yaml:"jwt_secret"`
	CredentialSecret string `yaml:"credential_secret"`

	// Rate limiting: requests per hour per session
	SessionRateLimit int `yaml:"session_rate_limit"`

	// CORS
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Port:                "8080",
		GinMode:             "debug",
		MigrationsPath:      "migrations",
		LLMProvider:         "gemini",
		GeminiBaseURL:       "https://generativelanguage.googleapis.com",
		GeminiModel:         "gemini-pro",
		OpenRouterModel:     "google/gemini-2.5-flash",
		LLMTimeout:          120 * time.Second,
		GenerationWorkers:   4,
		GenerationQueueSize: 32,
		NotesCharBudget:     30000,
		ChatCharBudget:      25000,
		NotesOnFailure:      "none",
		QuestionOnFailure:   "full",
		MaxUploadSize:       50 << 20,
		MaxSessions:         500,
		SessionIdleTTL:      2 * time.Hour,
		SessionTokenTTL:     24 * time.Hour,
		CredentialTokenTTL:  30 * 24 * time.Hour,
		JWTSecret:           defaultJWTSecret,
		CredentialSecret:    defaultCredentialSecret,
		SessionRateLimit:    120,
		AllowedOrigins:      []string{"http://localhost:5173"}, // Vite dev server default
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
//
// Go Pattern: functions that can fail return (value, error) and the caller
// must handle the error.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// Keys absent from the file keep their current value.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)

	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.GeminiBaseURL = getEnv("GEMINI_BASE_URL", c.GeminiBaseURL)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.OpenRouterModel = getEnv("OPENROUTER_MODEL", c.OpenRouterModel)
	c.LLMTimeout = getEnvDuration("LLM_TIMEOUT", c.LLMTimeout)
	c.GenerationWorkers = getEnvInt("GENERATION_WORKERS", c.GenerationWorkers)
	c.GenerationQueueSize = getEnvInt("GENERATION_QUEUE_SIZE", c.GenerationQueueSize)

	c.NotesCharBudget = getEnvInt("NOTES_CHAR_BUDGET", c.NotesCharBudget)
	c.ChatCharBudget = getEnvInt("CHAT_CHAR_BUDGET", c.ChatCharBudget)
	c.NotesOnFailure = getEnv("NOTES_ON_FAILURE", c.NotesOnFailure)
	c.QuestionOnFailure = getEnv("QUESTION_ON_FAILURE", c.QuestionOnFailure)

	// The YAML file may also set these, so normalize after both layers.
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.NotesOnFailure = strings.ToLower(strings.TrimSpace(c.NotesOnFailure))
	c.QuestionOnFailure = strings.ToLower(strings.TrimSpace(c.QuestionOnFailure))

	c.MaxUploadSize = int64(getEnvInt("MAX_UPLOAD_SIZE", int(c.MaxUploadSize)))
	c.MaxSessions = getEnvInt("MAX_SESSIONS", c.MaxSessions)
	c.SessionIdleTTL = getEnvDuration("SESSION_IDLE_TTL", c.SessionIdleTTL)
	c.SessionTokenTTL = getEnvDuration("SESSION_TOKEN_TTL", c.SessionTokenTTL)
	c.CredentialTokenTTL = getEnvDuration("CREDENTIAL_TOKEN_TTL", c.CredentialTokenTTL)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.CredentialSecret = getEnv("CREDENTIAL_SECRET", c.CredentialSecret)

	c.SessionRateLimit = getEnvInt("SESSION_RATE_LIMIT", c.SessionRateLimit)

	if origin := getEnv("CORS_ORIGIN", ""); origin != "" {
		c.AllowedOrigins = strings.Split(origin, ",")
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "openrouter":
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or openrouter, got %q", c.LLMProvider)
	}

	for name, v := range map[string]string{
		"NOTES_ON_FAILURE":    c.NotesOnFailure,
		"QUESTION_ON_FAILURE": c.QuestionOnFailure,
	} {
		if v != "none" && v != "full" {
			return fmt.Errorf("%s must be none or full, got %q", name, v)
		}
	}

	// A budget below 1 would leave the document context uncut.
	if c.NotesCharBudget < 1 {
		return fmt.Errorf("NOTES_CHAR_BUDGET must be at least 1, got %d", c.NotesCharBudget)
	}
	if c.ChatCharBudget < 1 {
		return fmt.Errorf("CHAT_CHAR_BUDGET must be at least 1, got %d", c.ChatCharBudget)
	}

	if c.GenerationWorkers < 1 {
		return fmt.Errorf("GENERATION_WORKERS must be at least 1")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if c.CredentialTokenTTL <= 0 {
		return fmt.Errorf("CREDENTIAL_TOKEN_TTL must be positive")
	}

	// Security: refuse to start in release mode with the built-in secrets.
	if c.GinMode == "release" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production; refusing to start with default secret")
	}
	if c.GinMode == "release" && c.CredentialSecret == defaultCredentialSecret {
		return fmt.Errorf("CREDENTIAL_SECRET must be set in production; stored API keys would be sealed with the default secret")
	}
	return nil
}

// getEnv reads an environment variable with a fallback default.
// Go Pattern: small helper functions over a configuration framework.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback.
func getEnvInt(key string, fallback int) int {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvDuration reads a duration such as "90s" or "2h".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := time.ParseDuration(str)
	if err != nil {
		return fallback
	}
	return val
}
