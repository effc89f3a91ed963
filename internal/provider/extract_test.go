package provider

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantVal any
	}{
		{"plain", `{"response": "hi"}`, "response", "hi"},
		{"surrounding whitespace", "\n  {\"response\": \"hi\"}  \n", "response", "hi"},
		{"markdown fence", "```json\n{\"response\": \"hi\"}\n```", "response", "hi"},
		{"prose wrapped", `Sure! Here you go: {"response": "a {brace} inside"} Hope it helps {}`, "response", "a {brace} inside"},
		{"escaped quote in string", `note {"response": "say \"}\" now"} end`, "response", `say "}" now`},
		{"nested objects", `x {"a": {"b": {"c": 1}}, "response": "ok"} y`, "response", "ok"},
		{"trailing comma repaired", `{"response": "ok",}`, "response", "ok"},
		{"truncated repaired", `Result: {"response": "cut off`, "response", "cut off"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obj, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("ExtractJSON(%q): %v", tt.raw, err)
			}
			if obj[tt.wantKey] != tt.wantVal {
				t.Errorf("obj[%q] = %v, want %v", tt.wantKey, obj[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestExtractJSON_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "I cannot help with that.", "[1, 2, 3]"} {
		_, err := ExtractJSON(raw)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ExtractJSON(%q) error = %v, want ErrMalformedResponse", raw, err)
		}
	}
}

func TestFirstObjectSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in           string
		wantSpan     string
		wantBalanced bool
	}{
		{`a {"x":1} b {"y":2}`, `{"x":1}`, true},
		{`{"s":"}"}`, `{"s":"}"}`, true},
		{`{"open": {"x": 1}`, `{"open": {"x": 1}`, false},
		{`no braces`, ``, false},
	}
	for _, tt := range tests {
		span, balanced := firstObjectSpan(tt.in)
		if span != tt.wantSpan || balanced != tt.wantBalanced {
			t.Errorf("firstObjectSpan(%q) = (%q, %v), want (%q, %v)",
				tt.in, span, balanced, tt.wantSpan, tt.wantBalanced)
		}
	}
}
