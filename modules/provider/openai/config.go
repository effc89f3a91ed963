package openai

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the configuration for the OpenAI backend.
type Config struct {
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	Timeout     string   `yaml:"timeout"`
	MaxRetries  *int     `yaml:"max_retries"`

	// Chats are the chat ids routed to this backend.
	Chats []int64 `yaml:"chats"`
}

// Defaults fills zero-valued fields with sensible defaults.
func (c *Config) Defaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == "" {
		c.Timeout = "90s"
	}
	if c.MaxRetries == nil {
		n := 2
		c.MaxRetries = &n
	}
}

// Validate checks the fields the client cannot work without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("openai: api_key is required")
	}
	if c.Model == "" {
		return errors.New("openai: model is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("openai: invalid timeout %q: %w", c.Timeout, err)
	}
	return nil
}

// parsedTimeout returns the timeout as a time.Duration.
// Assumes the value has been checked by Validate.
func (c *Config) parsedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}
