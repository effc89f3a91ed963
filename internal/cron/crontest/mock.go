// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/internal/digest"
)

// MockJob is a configurable test double for cron.Job.
type MockJob struct {
	NameVal     string
	ScheduleVal string
	RunFunc     func(ctx context.Context) error

	mu       sync.Mutex
	calls    int
	lastCall time.Time
}

// Compile-time interface check.
var _ cron.Job = (*MockJob)(nil)

// Name implements cron.Job.
func (m *MockJob) Name() string { return m.NameVal }

// Schedule implements cron.Job.
func (m *MockJob) Schedule() string { return m.ScheduleVal }

// Run implements cron.Job and increments the call counter.
func (m *MockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.lastCall = time.Now()
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount returns the number of times Run was called.
func (m *MockJob) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCall returns the time of the last Run call.
func (m *MockJob) LastCall() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCall
}

// MockDigester answers Generate with Text for every chat not listed in
// Skip, and records the requests.
type MockDigester struct {
	Text string
	Skip map[int64]bool

	mu       sync.Mutex
	requests []digest.Request
}

// Generate implements cron.Digester.
func (m *MockDigester) Generate(_ context.Context, req digest.Request) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.Skip[req.Chat.ID] {
		return "", false
	}
	return m.Text, true
}

// Requests returns a copy of the recorded requests.
func (m *MockDigester) Requests() []digest.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]digest.Request(nil), m.requests...)
}

// MockPoster records posted messages.
type MockPoster struct {
	Err error

	mu    sync.Mutex
	posts map[int64][]string
}

// Post implements cron.Poster.
func (m *MockPoster) Post(_ context.Context, chatID int64, html string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.posts == nil {
		m.posts = make(map[int64][]string)
	}
	m.posts[chatID] = append(m.posts[chatID], html)
	return nil
}

// Posts returns the messages posted to chatID.
func (m *MockPoster) Posts(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.posts[chatID]...)
}

// Interface guards.
var (
	_ cron.Digester = (*MockDigester)(nil)
	_ cron.Poster   = (*MockPoster)(nil)
)
