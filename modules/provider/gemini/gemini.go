// Package gemini implements the Google Gemini backend through the genai SDK.
// Responses are requested as application/json with a response schema.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/flemzord/chatdigest/internal/provider"
)

// Name is the backend name used in routing and configuration.
const Name = "gemini"

// Compile-time interface guard.
var _ provider.Backend = (*Backend)(nil)

// Backend calls the Gemini GenerateContent API.
type Backend struct {
	config Config
	client *genai.Client
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates a backend from cfg. cfg must have passed Validate.
func New(ctx context.Context, cfg Config, opts ...Option) (*Backend, error) {
	cfg.Defaults()

	timeout := cfg.parsedTimeout()
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
			Timeout: &timeout,
		},
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	b := &Backend{config: cfg, client: client}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = provider.NopLogger()
	}
	return b, nil
}

// Name implements provider.Backend.
func (b *Backend) Name() string { return Name }

// Invoke implements provider.Backend.
func (b *Backend) Invoke(ctx context.Context, req provider.Request) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.config.Model,
		genai.Text(req.Prompt), b.buildConfig(req))
	if err != nil {
		return "", mapError(err)
	}
	if err := checkResponse(resp); err != nil {
		return "", err
	}

	c := resp.Candidates[0]
	b.logger.Debug("gemini completion",
		"model", b.config.Model,
		"finish_reason", c.FinishReason,
	)
	return resp.Text(), nil
}

func (b *Backend) buildConfig(req provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if b.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(b.config.MaxTokens)
	}
	if b.config.Temperature != nil {
		cfg.Temperature = b.config.Temperature
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = convertSchema(req.Schema)
	}
	return cfg
}
