// Package providertest provides test helpers for the provider package.
package providertest

import (
	"context"
	"sync"

	"github.com/flemzord/chatdigest/internal/provider"
)

// MockBackend is a configurable test double for provider.Backend.
// Set InvokeFunc to control behavior; an unset func panics on call.
// All methods are safe for concurrent use.
type MockBackend struct {
	NameVal    string
	InvokeFunc func(ctx context.Context, req provider.Request) (string, error)

	mu       sync.Mutex
	requests []provider.Request
}

// Name returns NameVal, or "mock" when empty.
func (m *MockBackend) Name() string {
	if m.NameVal == "" {
		return "mock"
	}
	return m.NameVal
}

// Invoke records the request and delegates to InvokeFunc.
func (m *MockBackend) Invoke(ctx context.Context, req provider.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.InvokeFunc(ctx, req)
}

// Calls returns the number of Invoke calls.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests.
func (m *MockBackend) Requests() []provider.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]provider.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reply returns an InvokeFunc that always answers with text.
func Reply(text string) func(context.Context, provider.Request) (string, error) {
	return func(context.Context, provider.Request) (string, error) {
		return text, nil
	}
}

// Fail returns an InvokeFunc that always fails with err.
func Fail(err error) func(context.Context, provider.Request) (string, error) {
	return func(context.Context, provider.Request) (string, error) {
		return "", err
	}
}

// Interface guard.
var _ provider.Backend = (*MockBackend)(nil)
