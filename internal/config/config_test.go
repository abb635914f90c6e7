package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 3, cfg.LLMMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LLMRetryBaseDelay)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.NATSURL)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("LLM_RETRY_BASE_DELAY", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "sk-ant", cfg.LLMAPIKey())
	assert.Equal(t, 250*time.Millisecond, cfg.LLMRetryBaseDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7070\"\nLLM_MAX_ATTEMPTS: 5\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MAX_ATTEMPTS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, 4, cfg.LLMMaxAttempts, "environment wins over the file")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "bard")
	_, err := Load()
	assert.EqualError(t, err, `unknown LLM_PROVIDER "bard"`)
}
