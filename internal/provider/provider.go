// Package provider defines the Backend interface for the two language-model
// backends, the gateway that routes chats to them, and the structured-output
// contract every response is parsed against.
package provider

import (
	"context"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
)

// Request is a fully formed prompt for one backend call.
type Request struct {
	// System is the system instruction. May be empty.
	System string

	// Prompt is the user content: instructions plus the rendered window.
	Prompt string

	// Schema describes the expected JSON object. Backends pass it to their
	// native structured-output mode when they have one.
	Schema *jsonschema.Schema

	// SchemaName names the schema for backends that require a name.
	SchemaName string

	// ChatID is carried for tracing only.
	ChatID int64
}

// Backend is a language-model backend. Invoke returns the raw response text;
// parsing is the gateway's job.
type Backend interface {
	Name() string
	Invoke(ctx context.Context, req Request) (string, error)
}

// nopHandler is a slog.Handler that discards all log records.
// Enabled returns false so slog skips formatting entirely (zero cost).
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool {
	return false
}

func (nopHandler) Handle(context.Context, slog.Record) error {
	return nil
}

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler {
	return nopHandler{}
}

func (nopHandler) WithGroup(string) slog.Handler {
	return nopHandler{}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}
