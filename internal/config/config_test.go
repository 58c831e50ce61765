package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Search.TotalNews)
	assert.Equal(t, 3, cfg.Search.MinPerCoreSource)
	assert.Equal(t, 5, cfg.Search.Concurrency)
	assert.Equal(t, "wt-wt", cfg.Search.Region)
	assert.Equal(t, "d", cfg.Search.TimeLimit)
	assert.Equal(t, 60*time.Second, cfg.Search.Budget())
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "qwen-max", cfg.LLM.ModelName)
	assert.Equal(t, 12, cfg.LLM.MaxRequests)
	assert.Equal(t, "./docs", cfg.Output.Directory)
}

func TestLoadReadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  total_news: 20
  timeout: 30
llm:
  api_key: "from-file"
  model_name: "qwen-plus"
proxy:
  http: "http://127.0.0.1:7890"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Search.TotalNews)
	assert.Equal(t, 30*time.Second, cfg.Search.Budget())
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, "qwen-plus", cfg.LLM.ModelName)
	assert.Equal(t, "http://127.0.0.1:7890", cfg.Proxy.HTTP)
	// untouched keys keep defaults
	assert.Equal(t, 5, cfg.Search.Concurrency)
}

func TestEnvOverridesBeatFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  api_key: "from-file"
`), 0o644))

	t.Setenv("API_KEY", "from-env")
	t.Setenv("MODEL_NAME", "qwen-turbo")
	t.Setenv("SERPAPI_KEY", "serp-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "qwen-turbo", cfg.LLM.ModelName)
	assert.Equal(t, "serp-env", cfg.Search.SerpAPIKey)
}

func TestLegacyAPIKeyEnvIsFallbackOnly(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "legacy")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.LLM.APIKey)
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Search.TotalNews = 0
	assert.Error(t, cfg.Validate())
}
