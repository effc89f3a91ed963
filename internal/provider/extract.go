package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON pulls a JSON object out of raw backend text. The stages run in
// order and the first one that yields an object wins:
//
//  1. parse the whole text;
//  2. parse the first top-level {...} span found by brace matching;
//  3. repair that span (or everything from the first '{') and parse it.
//
// Prose-wrapped or truncated output that defeats all three is the main
// source of ErrMalformedResponse.
func ExtractJSON(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	if obj, ok := parseObject(text); ok {
		return obj, nil
	}

	span, balanced := firstObjectSpan(text)
	if span == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}
	if balanced {
		if obj, ok := parseObject(span); ok {
			return obj, nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(span)
	if err != nil {
		return nil, fmt.Errorf("%w: repair: %w", ErrMalformedResponse, err)
	}
	if obj, ok := parseObject(repaired); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: response is not a JSON object", ErrMalformedResponse)
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// firstObjectSpan returns the first balanced top-level object, skipping
// braces inside string literals. When the braces never balance it falls back
// to the greedy span from the first '{' to the last '}' (or to the end of the
// text) and reports balanced=false.
func firstObjectSpan(s string) (span string, balanced bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1], false
	}
	return s[start:], false
}
