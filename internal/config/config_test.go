package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
corpus:
  paths:
    - /srv/corpus
ai:
  provider: azure
  model: gpt-4o
  endpoint: https://example.openai.azure.com
  timeout_seconds: 30
server:
  addr: ":9090"
  db_path: /var/lib/rubricon/tasks.db
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/corpus"}, cfg.Corpus.Paths)
	assert.Equal(t, "azure", cfg.AI.Provider)
	assert.Equal(t, "https://example.openai.azure.com", cfg.AI.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "rubricon.db", cfg.Server.DBPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, time.Duration(0), cfg.AITimeout())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("RUBRICON_AI_PROVIDER", "gemini")
	t.Setenv("RUBRICON_API_KEY", "env-key")
	t.Setenv("RUBRICON_AI_TIMEOUT", "90")
	t.Setenv("RUBRICON_ADDR", ":7070")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "env-key", cfg.AI.APIKey)
	assert.Equal(t, 90*time.Second, cfg.AITimeout())
	assert.Equal(t, ":7070", cfg.Server.Addr)
	// Values without env overrides keep their file values.
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
}

func TestLoadConfigAzureEnvFallback(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://azure.example.com")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "azure-key", cfg.AI.APIKey)
	assert.Equal(t, "https://azure.example.com", cfg.AI.Endpoint)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "corpus: [broken"))
	assert.Error(t, err)
}
