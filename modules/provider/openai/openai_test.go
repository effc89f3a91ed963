package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/flemzord/chatdigest/internal/provider"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	retries := 0
	return New(Config{
		APIKey:     "sk-test",
		Model:      "gpt-4o-mini",
		BaseURL:    srv.URL + "/",
		MaxRetries: &retries,
	})
}

func writeCompletion(t *testing.T, w http.ResponseWriter, content, refusal, finish string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": finish,
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
				"refusal": refusal,
			},
		}},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func writeAPIError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "code": code, "type": "invalid_request_error"},
	})
}

func TestInvoke_Success(t *testing.T) {
	t.Parallel()

	var got map[string]any
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("missing authorization header")
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		writeCompletion(t, w, `{"response":"hi"}`, "", "stop")
	})

	schema := &jsonschema.Schema{Type: "object"}
	text, err := b.Invoke(context.Background(), provider.Request{
		System:     "be brief",
		Prompt:     "hello",
		Schema:     schema,
		SchemaName: "reply",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if text != `{"response":"hi"}` {
		t.Errorf("text = %q", text)
	}

	if got["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", got["model"])
	}
	if msgs, _ := got["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v, want system and user", got["messages"])
	}
	rf, _ := got["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v, want json_schema", rf)
	}
	js, _ := rf["json_schema"].(map[string]any)
	if js["name"] != "reply" || js["strict"] != false {
		t.Errorf("json_schema = %v", js)
	}
}

func TestInvoke_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "refusal",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeCompletion(t, w, "", "I can't help with that.", "stop")
			},
		},
		{
			name: "content filter finish",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeCompletion(t, w, "", "", "content_filter")
			},
		},
		{
			name: "policy error code",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeAPIError(w, http.StatusBadRequest, "content_policy_violation", "flagged")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newTestBackend(t, tt.handler)
			_, err := b.Invoke(context.Background(), provider.Request{Prompt: "x"})
			if !errors.Is(err, provider.ErrRejected) {
				t.Errorf("error = %v, want ErrRejected", err)
			}
		})
	}
}

func TestInvoke_TechnicalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		rateLimit bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, rateLimit: true},
		{name: "server error", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				writeAPIError(w, tt.status, "", "nope")
			})
			_, err := b.Invoke(context.Background(), provider.Request{Prompt: "x"})
			if !errors.Is(err, provider.ErrProviderError) {
				t.Errorf("error = %v, want ErrProviderError", err)
			}
			if errors.Is(err, provider.ErrRejected) {
				t.Errorf("error = %v must not be a rejection", err)
			}
			if got := errors.Is(err, provider.ErrRateLimit); got != tt.rateLimit {
				t.Errorf("ErrRateLimit = %v, want %v", got, tt.rateLimit)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	cfg.Defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() without api_key should fail")
	}

	cfg.APIKey = "sk"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if cfg.Model != "gpt-4o-mini" || cfg.Timeout != "90s" || *cfg.MaxRetries != 2 {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	cfg.Timeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with bad timeout should fail")
	}
}
