package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server and pipeline settings. Values come from an optional
// YAML file; flags override, defaults fill the rest.
type Config struct {
	Port        string  `yaml:"port"`
	Provider    string  `yaml:"provider"` // "gemini", "openai", or "ollama"
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxPages    int     `yaml:"max_pages"`
	LoanDataset string  `yaml:"loan_dataset"` // optional circulation-log file
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:        "8888",
		Provider:    "gemini",
		Model:       "gemini-1.5-flash",
		Temperature: 0.2,
		MaxPages:    1,
	}
}

// Load reads a YAML config file over the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
