// Package config provides configuration management for the tonebot backend.
package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the backend
type Config struct {
	GroqAPIKey  string
	TenorAPIKey string

	ListenAddr        string
	GroqModel         string
	GroqBaseURL       string
	TenorBaseURL      string
	SentimentEndpoint string
	SentimentAPIKey   string
	TelemetryEnabled  bool
}

// Load loads configuration from environment variables
func Load() Config {
	config := Config{
		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		TenorAPIKey: os.Getenv("TENOR_API_KEY"),

		ListenAddr:        ":8000", // Default
		GroqModel:         os.Getenv("GROQ_MODEL"),
		GroqBaseURL:       os.Getenv("GROQ_BASE_URL"),
		TenorBaseURL:      os.Getenv("TENOR_BASE_URL"),
		SentimentEndpoint: os.Getenv("SENTIMENT_ENDPOINT"),
		SentimentAPIKey:   os.Getenv("SENTIMENT_API_KEY"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if enabled := os.Getenv("TELEMETRY_ENABLED"); enabled == "true" || enabled == "1" {
		config.TelemetryEnabled = true
	}

	return config
}

// Validate checks if the required configuration is present
func (c Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("missing required environment variable: GROQ_API_KEY")
	}
	if c.TenorAPIKey == "" {
		return fmt.Errorf("missing required environment variable: TENOR_API_KEY")
	}
	return nil
}
