package gateway

import "time"

// Config holds the ops HTTP server configuration.
type Config struct {
	// Bind is the listen address. Empty disables the server.
	Bind string `yaml:"bind"`

	// BearerToken protects /status. Without it /status is not mounted.
	BearerToken string `yaml:"bearer_token"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults fills zero timeouts.
func (c *Config) Defaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Enabled reports whether the server should listen.
func (c Config) Enabled() bool { return c.Bind != "" }
