// In file: cmd/weatheragent/config.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/weather-agents/internal/evaluation"
	"github.com/dileep-u-k/weather-agents/internal/weather"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	defaultPort = "8080"
)

// FileConfig is the optional YAML settings file. Secrets are never read from
// it; they come from the environment only.
type FileConfig struct {
	Provider       string `yaml:"provider,omitempty" json:"provider,omitempty" jsonschema:"enum=openai,enum=gemini,enum=anthropic,description=LLM backend"`
	BaseURL        string `yaml:"base_url,omitempty" json:"base_url,omitempty" jsonschema:"description=Chat completions base URL"`
	Model          string `yaml:"model,omitempty" json:"model,omitempty" jsonschema:"description=Model identifier sent with every request"`
	WeatherBaseURL string `yaml:"weather_base_url,omitempty" json:"weather_base_url,omitempty"`
	EvaluationLog  string `yaml:"evaluation_log,omitempty" json:"evaluation_log,omitempty" jsonschema:"description=CSV file evaluations are appended to"`
	RedisAddr      string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty" jsonschema:"description=Redis address; enables variant statistics"`
	Port           string `yaml:"port,omitempty" json:"port,omitempty"`
	ColumnWidth    int    `yaml:"column_width,omitempty" json:"column_width,omitempty" jsonschema:"minimum=10"`
	MaxAttempts    int    `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty" jsonschema:"minimum=1"`
}

// AppConfig holds all configuration for the weather agents.
type AppConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	WeatherAPIKey  string
	WeatherBaseURL string
	EvaluationLog  string
	RedisAddr      string
	Port           string
	ColumnWidth    int
	MaxAttempts    int
}

// MissingConfigError lists every required variable that is not set.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return "Missing required environment variables: " + strings.Join(e.Keys, ", ")
}

// LoadConfig reads .env (outside release mode), the optional YAML file at
// path, then the environment. Environment values win over the file.
func LoadConfig(path string) (*AppConfig, error) {
	// In containers (GIN_MODE=release) configuration arrives as plain
	// environment variables.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	var file FileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	return resolveConfig(file, os.Getenv)
}

func resolveConfig(file FileConfig, getenv func(string) string) (*AppConfig, error) {
	pick := func(values ...string) string {
		for _, v := range values {
			if v != "" {
				return v
			}
		}
		return ""
	}

	cfg := &AppConfig{
		Provider:       strings.ToLower(pick(getenv("LLM_PROVIDER"), file.Provider, ProviderOpenAI)),
		APIKey:         pick(getenv("API_KEY"), getenv("OPTOGPT_API_KEY")),
		BaseURL:        pick(getenv("BASE_URL"), file.BaseURL),
		Model:          pick(getenv("LLM_MODEL"), getenv("OPTOGPT_MODEL"), file.Model),
		WeatherAPIKey:  getenv("WEATHER_API_KEY"),
		WeatherBaseURL: pick(getenv("WEATHER_BASE_URL"), file.WeatherBaseURL, weather.DefaultBaseURL),
		EvaluationLog:  pick(getenv("EVALUATION_LOG"), file.EvaluationLog, evaluation.DefaultLogFile),
		RedisAddr:      pick(getenv("REDIS_ADDR"), file.RedisAddr),
		Port:           pick(getenv("PORT"), file.Port, defaultPort),
		ColumnWidth:    file.ColumnWidth,
		MaxAttempts:    file.MaxAttempts,
	}

	var err error
	if cfg.ColumnWidth, err = intSetting(getenv, "COLUMN_WIDTH", cfg.ColumnWidth, evaluation.DefaultColumnWidth); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = intSetting(getenv, "LLM_MAX_ATTEMPTS", cfg.MaxAttempts, 1); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q (want %s, %s or %s)", cfg.Provider, ProviderOpenAI, ProviderGemini, ProviderAnthropic)
	}
	return cfg, nil
}

// intSetting returns the environment value of key, else fromFile, else def.
func intSetting(getenv func(string) string, key string, fromFile, def int) (int, error) {
	if raw := getenv(key); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
		}
		return n, nil
	}
	if fromFile > 0 {
		return fromFile, nil
	}
	return def, nil
}

// Validate checks the settings needed to talk to the LLM and weather APIs.
// BASE_URL is only required for the OpenAI-compatible provider; the
// anthropic provider falls back to the public endpoint.
func (c *AppConfig) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if c.BaseURL == "" && c.Provider == ProviderOpenAI {
		missing = append(missing, "BASE_URL")
	}
	if c.Model == "" {
		missing = append(missing, "LLM_MODEL")
	}
	if c.WeatherAPIKey == "" {
		missing = append(missing, "WEATHER_API_KEY")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Keys: missing}
	}
	return nil
}

// ConfigSchema returns the JSON Schema of the YAML settings file.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&FileConfig{})
	return json.MarshalIndent(schema, "", "  ")
}
