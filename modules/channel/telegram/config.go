package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// DefaultAPIEndpoint is the Bot API endpoint format used by tgbotapi.
const DefaultAPIEndpoint = "https://api.telegram.org/bot%s/%s"

// Config holds the Telegram channel configuration.
type Config struct {
	Token string `yaml:"token"`

	// AllowedChats are the only chats the bot reads, answers and posts in.
	AllowedChats []int64 `yaml:"allowed_chats"`

	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int `yaml:"poll_timeout"`

	// APIEndpoint overrides the Bot API endpoint, as a format with two %s
	// verbs for the token and the method.
	APIEndpoint string `yaml:"api_endpoint,omitempty"`

	MaxMessageLength int  `yaml:"max_message_length,omitempty"`
	Debug            bool `yaml:"debug,omitempty"`
}

// Defaults applies default values to unset fields.
func (c *Config) Defaults() {
	if c.PollTimeout == 0 {
		c.PollTimeout = 30
	}
	if c.APIEndpoint == "" {
		c.APIEndpoint = DefaultAPIEndpoint
	}
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = 4096
	}
}

// Validate checks configuration field constraints. It expects Defaults to
// have run.
func (c *Config) Validate() error {
	var errs []error
	switch {
	case c.Token == "":
		errs = append(errs, errors.New("token is required"))
	case !tokenPattern.MatchString(c.Token):
		errs = append(errs, errors.New("token format invalid (expected <bot_id>:<hash>)"))
	}

	if len(c.AllowedChats) == 0 {
		errs = append(errs, errors.New("allowed_chats must list at least one chat"))
	}

	if u, err := url.Parse(fmt.Sprintf(c.APIEndpoint, "TOKEN", "getMe")); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("api_endpoint must be an http/https URL format, got %q", c.APIEndpoint))
	}

	if c.PollTimeout < 0 || c.PollTimeout > 50 {
		errs = append(errs, fmt.Errorf("poll_timeout must be 0-50, got %d", c.PollTimeout))
	}

	if c.MaxMessageLength < 1 || c.MaxMessageLength > 4096 {
		errs = append(errs, fmt.Errorf("max_message_length must be 1-4096, got %d", c.MaxMessageLength))
	}
	return errors.Join(errs...)
}
