package provider

import (
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

func testContract(t *testing.T) *Contract {
	t.Helper()
	c, err := NewContract("reply", "response", ObjectSchema(map[string]*jsonschema.Schema{
		"response": StringSchema("the reply"),
	}, "response"))
	if err != nil {
		t.Fatalf("NewContract: %v", err)
	}
	return c
}

func TestContract_Check(t *testing.T) {
	t.Parallel()

	c := testContract(t)
	tests := []struct {
		name    string
		obj     map[string]any
		wantErr error
	}{
		{"ok", map[string]any{"response": "hi"}, nil},
		{"extra keys allowed", map[string]any{"response": "hi", "mood": "sly"}, nil},
		{"missing key", map[string]any{"other": "x"}, ErrEmptyResult},
		{"null payload", map[string]any{"response": nil}, ErrEmptyResult},
		{"empty string", map[string]any{"response": ""}, ErrEmptyResult},
		{"wrong type", map[string]any{"response": 42.0}, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := c.Check(tt.obj)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Check: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestContract_EmptyList(t *testing.T) {
	t.Parallel()

	c, err := NewContract("digest", "topics", ObjectSchema(map[string]*jsonschema.Schema{
		"topics": ArraySchema(ObjectSchema(map[string]*jsonschema.Schema{
			"short_title":      StringSchema("title"),
			"first_message_id": IDSchema("id"),
		})),
	}, "topics"))
	if err != nil {
		t.Fatalf("NewContract: %v", err)
	}

	if err := c.Check(map[string]any{"topics": []any{}}); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("empty topics error = %v, want ErrEmptyResult", err)
	}

	var out struct {
		Topics []struct {
			Title string `json:"short_title"`
		} `json:"topics"`
	}
	obj := map[string]any{"topics": []any{
		map[string]any{"short_title": "one", "first_message_id": 12.0},
		map[string]any{"short_title": "two", "first_message_id": "13"},
		map[string]any{"short_title": "three", "first_message_id": nil},
	}}
	if err := c.Decode(obj, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out.Topics) != 3 || out.Topics[1].Title != "two" {
		t.Errorf("decoded = %+v", out)
	}
}
