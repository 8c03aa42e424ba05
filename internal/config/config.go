package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Correlation strategy values accepted in SESSION_MODE.
const (
	SessionModeStateless = "stateless"
	SessionModeStateful  = "stateful"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	BotBaseURL    string
	BotToken      string
	WatiBaseURL   string
	WatiTenantID  string
	WatiToken     string
	SessionMode   string
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	HTTPTimeout   time.Duration
	FallbackReply string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		BotBaseURL:    strings.TrimRight(getEnv("BOTPRESS_URL", ""), "/"),
		BotToken:      getEnv("BOTPRESS_TOKEN", ""),
		WatiBaseURL:   strings.TrimRight(getEnv("WATI_BASE_URL", "https://app.wati.io"), "/"),
		WatiTenantID:  getEnv("WATI_TENANT_ID", ""),
		WatiToken:     getEnv("WATI_TOKEN", ""),
		SessionMode:   strings.ToLower(strings.TrimSpace(getEnv("SESSION_MODE", SessionModeStateless))),
		SessionStore:  strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		HTTPTimeout:   getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		FallbackReply: getEnv("FALLBACK_REPLY", "We hit a technical difficulty. Please try again in a moment."),
	}
}

// Validate checks that every key the bridge cannot run without is present.
// The process must refuse to serve traffic when it fails.
func (c *Config) Validate() error {
	var missing []string
	if c.BotBaseURL == "" {
		missing = append(missing, "BOTPRESS_URL")
	}
	if c.WatiTenantID == "" {
		missing = append(missing, "WATI_TENANT_ID")
	}
	if c.WatiToken == "" {
		missing = append(missing, "WATI_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.SessionMode != SessionModeStateless && c.SessionMode != SessionModeStateful {
		return fmt.Errorf("config: invalid SESSION_MODE %q (want %q or %q)", c.SessionMode, SessionModeStateless, SessionModeStateful)
	}
	if c.SessionStore == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("config: SESSION_STORE=redis requires REDIS_ADDR")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
