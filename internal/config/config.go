// Package config provides configuration for the API server. Values come from the
// environment, optionally layered over a config file named by CONFIG_FILE.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Database settings. An empty URL selects the in-memory store.
	DatabaseURL   string
	DBAutoMigrate bool

	// NATS settings. An empty URL disables event publishing.
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// LLM settings
	LLMProvider       string
	LLMModel          string
	GeminiAPIKey      string
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	LLMMaxAttempts    int
	LLMRetryBaseDelay time.Duration
	LLMMaxTokens      int

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	// generation waits on the model, retries included
	v.SetDefault("SERVER_WRITE_TIMEOUT", 5*time.Minute)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_CA_FILE", "")
	v.SetDefault("NATS_CERT_FILE", "")
	v.SetDefault("NATS_KEY_FILE", "")
	v.SetDefault("NATS_TOKEN", "")

	v.SetDefault("JWT_SECRET", "development-secret-change-in-production")

	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("LLM_MODEL", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("ANTHROPIC_API_KEY", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("LLM_MAX_ATTEMPTS", 3)
	v.SetDefault("LLM_RETRY_BASE_DELAY", 500*time.Millisecond)
	v.SetDefault("LLM_MAX_TOKENS", 0)

	v.SetDefault("RATE_LIMIT_REQUESTS", 60)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("TRACING_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_ENABLED", false)
}

// Load reads configuration from the environment and, when CONFIG_FILE is set, from
// that file. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		ServerPort:         v.GetString("PORT"),
		ServerReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		ServerWriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),

		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),

		NATSURL:      v.GetString("NATS_URL"),
		NATSCAFile:   v.GetString("NATS_CA_FILE"),
		NATSCertFile: v.GetString("NATS_CERT_FILE"),
		NATSKeyFile:  v.GetString("NATS_KEY_FILE"),
		NATSToken:    v.GetString("NATS_TOKEN"),

		JWTSecret: v.GetString("JWT_SECRET"),

		LLMProvider:       strings.ToLower(v.GetString("LLM_PROVIDER")),
		LLMModel:          v.GetString("LLM_MODEL"),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
		AnthropicAPIKey:   v.GetString("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		LLMMaxAttempts:    v.GetInt("LLM_MAX_ATTEMPTS"),
		LLMRetryBaseDelay: v.GetDuration("LLM_RETRY_BASE_DELAY"),
		LLMMaxTokens:      v.GetInt("LLM_MAX_TOKENS"),

		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		LogLevel: v.GetString("LOG_LEVEL"),

		TracingEndpoint: v.GetString("TRACING_ENDPOINT"),
		TracingEnabled:  v.GetBool("TRACING_ENABLED"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMMaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1, got %d", c.LLMMaxAttempts)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// LLMAPIKey returns the API key of the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
