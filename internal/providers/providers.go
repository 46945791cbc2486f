package providers

import (
	"context"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// APIKey is supplied per session by the user. Providers fall back to
	// their environment variable when empty.
	APIKey string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	GenerateText(ctx context.Context, config Config) (string, error)
}
