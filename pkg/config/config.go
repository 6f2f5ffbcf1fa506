package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the QA schema engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (API keys) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DataDir is where the engine keeps its blob files (schema
	// collection, active-schema pointer, analytics views).
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	// Formula evaluation settings
	Formula FormulaConfig `yaml:"formula"`

	// AI model endpoint for schema discovery and relationship inference
	AI AIConfig `yaml:"ai"`
}

// FormulaConfig holds formula evaluation settings.
type FormulaConfig struct {
	// TimeoutMs bounds wall-clock time of a single formula run.
	// Zero disables the guard.
	TimeoutMs int `yaml:"timeout_ms" env:"FORMULA_TIMEOUT_MS" env-default:"250"`
}

// AIConfig holds the LLM endpoint used by discovery flows.
type AIConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// IsAvailable returns true if an AI endpoint is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.Model != ""
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml is not an error; the engine then runs
// on environment variables and defaults alone. The version parameter is
// injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	err := cleanenv.ReadConfig("config.yaml", cfg)
	if errors.Is(err, os.ErrNotExist) {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if cfg.Formula.TimeoutMs < 0 {
		return nil, fmt.Errorf("formula timeout_ms must not be negative")
	}

	return cfg, nil
}
