// Package config loads bailian settings from YAML and .env files.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvBaseURL overrides base_url when set.
	EnvBaseURL = "DASHSCOPE_BASE_URL"
	// EnvModel overrides model when set.
	EnvModel = "DASHSCOPE_MODEL"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds loader settings.
type Config struct {
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	BaseURL        string  `yaml:"base_url"`
	MaxAuthRetries int     `yaml:"max_auth_retries"`
	Verify         bool    `yaml:"verify"`
	NonInteractive bool    `yaml:"non_interactive"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return &cfg, nil
}

// Load reads the embedded defaults, merges the file at path over them (when
// path is non-empty) and applies DASHSCOPE_BASE_URL / DASHSCOPE_MODEL.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		// Unmarshalling into the populated struct keeps defaults for absent keys.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = v
	}

	return cfg, nil
}

// LoadDotEnv loads environment variables from path. Missing files are ignored.
// Variables already set in the environment are not overridden.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
