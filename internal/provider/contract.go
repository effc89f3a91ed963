package provider

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Contract is the structured-output shape a caller expects back. The payload
// key must be present and non-empty; the whole object must validate
// against Schema.
type Contract struct {
	Name       string
	PayloadKey string
	Schema     *jsonschema.Schema

	resolved *jsonschema.Resolved
}

// NewContract resolves schema for validation.
func NewContract(name, payloadKey string, schema *jsonschema.Schema) (*Contract, error) {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("provider: resolve %s schema: %w", name, err)
	}
	return &Contract{
		Name:       name,
		PayloadKey: payloadKey,
		Schema:     schema,
		resolved:   resolved,
	}, nil
}

// MustContract is NewContract for package-level contracts.
func MustContract(name, payloadKey string, schema *jsonschema.Schema) *Contract {
	c, err := NewContract(name, payloadKey, schema)
	if err != nil {
		panic(err)
	}
	return c
}

// Check applies the contract to a parsed object.
func (c *Contract) Check(obj map[string]any) error {
	if isEmptyPayload(obj[c.PayloadKey]) {
		return fmt.Errorf("%w: %s: %q missing or empty", ErrEmptyResult, c.Name, c.PayloadKey)
	}
	if err := c.resolved.Validate(obj); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, c.Name, err)
	}
	return nil
}

// Decode checks obj and decodes it into out.
func (c *Contract) Decode(obj map[string]any, out any) error {
	if err := c.Check(obj); err != nil {
		return err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, c.Name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, c.Name, err)
	}
	return nil
}

func isEmptyPayload(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// Schema builders shared by the contracts.

// ObjectSchema returns an object schema with the given properties.
func ObjectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

// ArraySchema returns an array schema of items.
func ArraySchema(items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: items}
}

// StringSchema returns a string schema with a description.
func StringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

// NumberSchema returns a number schema with a description.
func NumberSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: desc}
}

// IDSchema accepts an integer id, a numeric string, or null. Models are
// inconsistent about id types; the decoder normalises them.
func IDSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"integer", "string", "null"}, Description: desc}
}
