package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644)
	require.NoError(t, err)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeConfig(t, `
API_KEYS:
  test-token: user-1
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "./markhive.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "local", cfg.EmbeddingProvider)
	assert.Equal(t, 10*time.Second, cfg.ScrapeTimeout)
	assert.Equal(t, "user-1", cfg.APIKeys["test-token"])
}

func TestLoad_MissingAPIKeys(t *testing.T) {
	dir := writeConfig(t, `
LISTEN_ADDR: ":9999"
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEYS")
}

func TestLoad_OpenAIProviderRequiresKey(t *testing.T) {
	dir := writeConfig(t, `
API_KEYS:
  tok: u1
EMBEDDING_PROVIDER: openai
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDDING_API_KEY")
}

func TestLoad_Overrides(t *testing.T) {
	dir := writeConfig(t, `
API_KEYS:
  tok: u1
LISTEN_ADDR: ":3000"
DB_PATH: /tmp/test.db
SCRAPE_TIMEOUT: 5s
LLM_MODEL: openai/gpt-4o
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.ScrapeTimeout)
	assert.Equal(t, "openai/gpt-4o", cfg.LLMModel)
}
