// Package openai implements the OpenAI Chat Completions backend. Responses
// are requested in json_schema mode and returned as raw text.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/flemzord/chatdigest/internal/provider"
)

// Name is the backend name used in routing and configuration.
const Name = "openai"

// Compile-time interface guard.
var _ provider.Backend = (*Backend)(nil)

// Backend calls the OpenAI Chat Completions API.
type Backend struct {
	config Config
	client openai.Client
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates a backend from cfg. cfg must have passed Validate.
func New(cfg Config, opts ...Option) *Backend {
	cfg.Defaults()

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.parsedTimeout()),
		option.WithMaxRetries(*cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}

	b := &Backend{
		config: cfg,
		client: openai.NewClient(clientOpts...),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = provider.NopLogger()
	}
	return b
}

// Name implements provider.Backend.
func (b *Backend) Name() string { return Name }

// Invoke implements provider.Backend.
func (b *Backend) Invoke(ctx context.Context, req provider.Request) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, b.buildParams(req))
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: no choices", provider.ErrProviderError)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: openai: refusal: %s", provider.ErrRejected, choice.Message.Refusal)
	}
	if choice.FinishReason == finishReasonContentFilter {
		return "", fmt.Errorf("%w: openai: finish_reason=%s", provider.ErrRejected, choice.FinishReason)
	}

	b.logger.Debug("openai completion",
		"model", resp.Model,
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return choice.Message.Content, nil
}

func (b *Backend) buildParams(req provider.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    b.config.Model,
		Messages: messages,
	}
	if b.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(b.config.MaxTokens))
	}
	if b.config.Temperature != nil {
		params.Temperature = param.NewOpt(*b.config.Temperature)
	}

	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		// Strict mode requires every property to be required, which the
		// nullable id fields do not satisfy.
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: req.Schema,
					Strict: param.NewOpt(false),
				},
			},
		}
	}
	return params
}
