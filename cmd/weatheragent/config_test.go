package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(FileConfig{}, envFrom(map[string]string{
		"API_KEY":         "sk",
		"BASE_URL":        "https://llm.example/v1",
		"LLM_MODEL":       "gpt-4o-mini",
		"WEATHER_API_KEY": "wk",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://api.weatherapi.com/v1", cfg.WeatherBaseURL)
	assert.Equal(t, "agent_evaluation.csv", cfg.EvaluationLog)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 40, cfg.ColumnWidth)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Empty(t, cfg.RedisAddr)
}

func TestResolveConfigLegacyNames(t *testing.T) {
	cfg, err := resolveConfig(FileConfig{}, envFrom(map[string]string{
		"OPTOGPT_API_KEY": "legacy-key",
		"OPTOGPT_MODEL":   "legacy-model",
	}))
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.APIKey)
	assert.Equal(t, "legacy-model", cfg.Model)
}

func TestResolveConfigEnvOverridesFile(t *testing.T) {
	file := FileConfig{Model: "file-model", Port: "9000", ColumnWidth: 60, EvaluationLog: "file.csv"}
	cfg, err := resolveConfig(file, envFrom(map[string]string{"LLM_MODEL": "env-model", "COLUMN_WIDTH": "30"}))
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 30, cfg.ColumnWidth)
	assert.Equal(t, "file.csv", cfg.EvaluationLog)
}

func TestResolveConfigRejectsBadValues(t *testing.T) {
	_, err := resolveConfig(FileConfig{}, envFrom(map[string]string{"COLUMN_WIDTH": "wide"}))
	assert.Error(t, err)
	_, err = resolveConfig(FileConfig{}, envFrom(map[string]string{"LLM_MAX_ATTEMPTS": "0"}))
	assert.Error(t, err)
	_, err = resolveConfig(FileConfig{}, envFrom(map[string]string{"LLM_PROVIDER": "claude"}))
	assert.Error(t, err)
}

func TestValidateListsEveryMissingVariable(t *testing.T) {
	cfg, err := resolveConfig(FileConfig{}, envFrom(nil))
	require.NoError(t, err)

	err = cfg.Validate()
	var missing *MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"API_KEY", "BASE_URL", "LLM_MODEL", "WEATHER_API_KEY"}, missing.Keys)
	assert.Equal(t, "Missing required environment variables: API_KEY, BASE_URL, LLM_MODEL, WEATHER_API_KEY", err.Error())
}

func TestValidateGeminiNeedsNoBaseURL(t *testing.T) {
	cfg, err := resolveConfig(FileConfig{Provider: "gemini"}, envFrom(map[string]string{
		"API_KEY": "k", "LLM_MODEL": "gemini-1.5-flash", "WEATHER_API_KEY": "w",
	}))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidateAnthropicNeedsNoBaseURL(t *testing.T) {
	cfg, err := resolveConfig(FileConfig{}, envFrom(map[string]string{
		"LLM_PROVIDER": "Anthropic", "API_KEY": "k", "LLM_MODEL": "claude-3-5-haiku-latest", "WEATHER_API_KEY": "w",
	}))
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigReadsYAML(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("OPTOGPT_MODEL", "")
	t.Setenv("REDIS_ADDR", "")
	path := filepath.Join(t.TempDir(), "weatheragent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: yaml-model\nredis_addr: localhost:6379\ncolumn_width: 50\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-model", cfg.Model)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfigBadYAML(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigSchema(t *testing.T) {
	doc, err := ConfigSchema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &schema))
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "evaluation_log")
	assert.Contains(t, props, "provider")
	assert.NotContains(t, props, "api_key", "secrets are not part of the file")
}
