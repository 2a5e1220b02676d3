package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	t.Setenv("PROSPECTOR_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	return filepath.Join(t.TempDir(), "prospector", "config.yaml")
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := tempConfigPath(t)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.True(t, cfg.Ranking.OnCreate)
	assert.Equal(t, 4, cfg.Ranking.Concurrency)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "prospector.db"), cfg.Database.Path)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := tempConfigPath(t)
	t.Setenv("PROSPECTOR_LLM_MODEL", "openai/gpt-4o-mini")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-or-test", cfg.LLM.APIKey)
}

func TestSetPersists(t *testing.T) {
	path := tempConfigPath(t)
	_, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, Set(path, "llm.model", "meta-llama/llama-3.1-70b"))
	require.NoError(t, Set(path, "ranking.on_create", "false"))

	got, err := Get(path, "llm.model")
	require.NoError(t, err)
	assert.Equal(t, "meta-llama/llama-3.1-70b", got)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "meta-llama/llama-3.1-70b", cfg.LLM.Model)
	assert.False(t, cfg.Ranking.OnCreate)
}

func TestSetDoesNotPersistEnvironment(t *testing.T) {
	path := tempConfigPath(t)
	_, err := Load(path)
	require.NoError(t, err)

	t.Setenv("OPENROUTER_API_KEY", "sk-or-secret")
	t.Setenv("PROSPECTOR_SERVER_ADDR", ":9999")
	require.NoError(t, Set(path, "llm.model", "openai/gpt-4o-mini"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-or-secret")
	assert.NotContains(t, string(raw), ":9999")
	assert.Contains(t, string(raw), "openai/gpt-4o-mini")
}
