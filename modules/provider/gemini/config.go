package gemini

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the configuration for the Gemini backend.
type Config struct {
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`
	Timeout     string   `yaml:"timeout"`

	// Chats are the chat ids routed to this backend.
	Chats []int64 `yaml:"chats"`
}

// Defaults fills zero-valued fields with sensible defaults.
func (c *Config) Defaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.Timeout == "" {
		c.Timeout = "90s"
	}
}

// Validate checks the fields the client cannot work without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("gemini: api_key is required")
	}
	if c.Model == "" {
		return errors.New("gemini: model is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("gemini: invalid timeout %q: %w", c.Timeout, err)
	}
	return nil
}

func (c *Config) parsedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}
