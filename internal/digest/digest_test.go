package digest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flemzord/chatdigest/internal/chatlog"
	ctxengine "github.com/flemzord/chatdigest/internal/context"
	"github.com/flemzord/chatdigest/internal/degrade"
	"github.com/flemzord/chatdigest/internal/digest"
	"github.com/flemzord/chatdigest/internal/prompt"
	"github.com/flemzord/chatdigest/internal/provider"
	"github.com/flemzord/chatdigest/internal/provider/providertest"
	"github.com/flemzord/chatdigest/internal/render"
	"github.com/flemzord/chatdigest/pkg/message"
)

const chatID int64 = -1001234

var (
	day  = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	chat = message.Chat{ID: chatID, Type: message.ChatSupergroup}
)

func seedLog(t *testing.T) *chatlog.MemoryLog {
	t.Helper()
	l := chatlog.NewMemoryLog()
	for i, text := range []string{"who wants pizza", "me!", "pineapple is a crime"} {
		m := message.Message{
			ChatID:   chatID,
			ID:       int64(10 + i),
			UserID:   int64(1 + i),
			FullName: fmt.Sprintf("User %d", i+1),
			Text:     text,
			Time:     day.Add(time.Duration(9+i) * time.Hour),
		}
		if err := l.Insert(context.Background(), m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	return l
}

func newService(t *testing.T, log chatlog.Log, backend *providertest.MockBackend) *digest.Service {
	t.Helper()
	gw := provider.NewGateway()
	if backend != nil {
		gw.Register(backend)
		if err := gw.Route(chatID, backend.Name()); err != nil {
			t.Fatalf("Route: %v", err)
		}
	}
	builder := ctxengine.NewBuilder(log, ctxengine.NewCharEstimator(4), ctxengine.WindowConfig{})
	return digest.NewService(builder, gw,
		degrade.NewController("digest", prompt.MaxIntensity),
		render.NewRenderer(render.English, 7, render.WithPicker(func(int) int { return 0 })),
		digest.Config{Language: "English"},
	)
}

func request(intensity int) digest.Request {
	return digest.Request{Chat: chat, Start: day, End: day.Add(24 * time.Hour), Intensity: intensity}
}

const oneTopic = `{"topics": [{"short_title": "Pizza", "first_message_id": 10, "initiator_user_id": "1", "summary": "Pineapple started a war."}]}`

func TestRun_DegradesUntilAccepted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	backend := &providertest.MockBackend{
		InvokeFunc: func(context.Context, provider.Request) (string, error) {
			if calls.Add(1) <= 2 {
				return "", fmt.Errorf("%w: safety", provider.ErrRejected)
			}
			return oneTopic, nil
		},
	}
	svc := newService(t, seedLog(t), backend)

	out := svc.Run(context.Background(), request(9))
	if out.Kind != digest.KindDone {
		t.Fatalf("Kind = %s, err = %v", out.Kind, out.Err)
	}
	if out.Requested != 9 || out.Level != 7 {
		t.Errorf("Requested/Level = %d/%d, want 9/7", out.Requested, out.Level)
	}
	if len(out.Attempts) != 3 {
		t.Errorf("Attempts = %+v, want 3", out.Attempts)
	}
	if n := strings.Count(out.Text, "• "); n != 1 {
		t.Errorf("topic blocks = %d, want 1\n%s", n, out.Text)
	}
	if !strings.HasPrefix(out.Text, "<b>#Daily_digest — 15.01.2024</b>") {
		t.Errorf("header missing:\n%s", out.Text)
	}
	if !strings.Contains(out.Text, `<a href="https://t.me/c/1234/10">Pizza</a>`) {
		t.Errorf("title link missing:\n%s", out.Text)
	}
	if !strings.Contains(out.Text, `<a href="tg://user?id=1">User 1</a>`) {
		t.Errorf("initiator link missing:\n%s", out.Text)
	}

	reqs := backend.Requests()
	for i, level := range []int{9, 8, 7} {
		if !strings.Contains(reqs[i].Prompt, prompt.Style(level)) {
			t.Errorf("request %d does not carry the level %d style", i, level)
		}
		if !strings.Contains(reqs[i].Prompt, "pineapple is a crime") {
			t.Errorf("request %d lost the window", i)
		}
		if reqs[i].SchemaName != "digest" || reqs[i].ChatID != chatID {
			t.Errorf("request %d = %+v", i, reqs[i])
		}
	}
}

func TestRun_EmptyWindowSkipsBackend(t *testing.T) {
	t.Parallel()

	backend := &providertest.MockBackend{InvokeFunc: providertest.Reply(oneTopic)}
	svc := newService(t, chatlog.NewMemoryLog(), backend)

	out := svc.Run(context.Background(), request(9))
	if out.Kind != digest.KindEmpty {
		t.Errorf("Kind = %s, want empty", out.Kind)
	}
	if backend.Calls() != 0 {
		t.Errorf("backend calls = %d, want 0", backend.Calls())
	}
	if text, ok := svc.Generate(context.Background(), request(9)); ok || text != "" {
		t.Errorf("Generate() = %q, %v; want none", text, ok)
	}
}

func TestRun_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		invoke   func(context.Context, provider.Request) (string, error)
		kind     digest.Kind
		contains string
		calls    int
	}{
		{
			name:     "exhausted",
			invoke:   providertest.Fail(fmt.Errorf("%w: blocked", provider.ErrRejected)),
			kind:     digest.KindExhausted,
			contains: "/summary_now 0",
			calls:    4,
		},
		{
			name:     "empty topics every level",
			invoke:   providertest.Reply(`{"topics": []}`),
			kind:     digest.KindExhausted,
			contains: "#Daily_digest",
			calls:    4,
		},
		{
			name:     "provider error",
			invoke:   providertest.Fail(errors.New("connection reset by peer")),
			kind:     digest.KindFailed,
			contains: render.English.DigestFailed,
			calls:    1,
		},
		{
			name:     "malformed",
			invoke:   providertest.Reply("I cannot produce JSON today"),
			kind:     digest.KindFailed,
			contains: render.English.DigestFailed,
			calls:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := &providertest.MockBackend{InvokeFunc: tt.invoke}
			svc := newService(t, seedLog(t), backend)

			out := svc.Run(context.Background(), request(3))
			if out.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s (err %v)", out.Kind, tt.kind, out.Err)
			}
			if !strings.Contains(out.Text, tt.contains) {
				t.Errorf("Text = %q, want it to contain %q", out.Text, tt.contains)
			}
			if backend.Calls() != tt.calls {
				t.Errorf("calls = %d, want %d", backend.Calls(), tt.calls)
			}
			if strings.Contains(out.Text, "connection reset") {
				t.Errorf("raw error leaked into %q", out.Text)
			}

			text, ok := svc.Generate(context.Background(), request(3))
			if !ok || text == "" {
				t.Errorf("Generate() = %q, %v; want a message", text, ok)
			}
		})
	}
}

func TestRun_UnroutedChat(t *testing.T) {
	t.Parallel()

	svc := newService(t, seedLog(t), nil)
	out := svc.Run(context.Background(), request(9))
	if out.Kind != digest.KindUnconfigured || !errors.Is(out.Err, provider.ErrNoBackend) {
		t.Errorf("Run() = %+v", out)
	}
	if _, ok := svc.Generate(context.Background(), request(9)); ok {
		t.Error("Generate() reported a digest for an unrouted chat")
	}
}

func TestRun_WindowFitsBudget(t *testing.T) {
	t.Parallel()

	l := chatlog.NewMemoryLog()
	for i := range 200 {
		_ = l.Insert(context.Background(), message.Message{
			ChatID: chatID,
			ID:     int64(i + 1),
			UserID: 5,
			Text:   strings.Repeat("word ", 40),
			Time:   day.Add(time.Duration(i) * time.Minute),
		})
	}

	backend := &providertest.MockBackend{InvokeFunc: providertest.Reply(oneTopic)}
	counter := ctxengine.NewCharEstimator(4)
	gw := provider.NewGateway()
	gw.Register(backend)
	_ = gw.Route(chatID, backend.Name())
	const maxTokens = 2000
	svc := digest.NewService(
		ctxengine.NewBuilder(l, counter, ctxengine.WindowConfig{}),
		gw,
		degrade.NewController("digest", prompt.MaxIntensity),
		render.NewRenderer(render.English, 7),
		digest.Config{MaxTokens: maxTokens},
	)

	if out := svc.Run(context.Background(), request(9)); out.Kind != digest.KindDone {
		t.Fatalf("Kind = %s", out.Kind)
	}
	req := backend.Requests()[0]
	if cost := ctxengine.PromptCost(counter, req.System, req.Prompt); cost > maxTokens {
		t.Errorf("prompt cost %d exceeds ceiling %d", cost, maxTokens)
	}
}
