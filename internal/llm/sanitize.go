package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotObject is returned when model output is valid JSON but not an object.
var ErrNotObject = errors.New("json is not an object")

// CleanJSONContent strips what models commonly wrap around a JSON object:
// a BOM, surrounding whitespace, and markdown code fences.
func CleanJSONContent(content string) string {
	s := strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// DecodeObject cleans content and decodes it as a single JSON object.
// Trailing data after the object is rejected.
func DecodeObject(content string) (map[string]any, error) {
	cleaned := CleanJSONContent(content)
	if cleaned == "" {
		return nil, fmt.Errorf("decode: empty content")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode: trailing data after json value")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode: %w (got %T)", ErrNotObject, v)
	}
	return m, nil
}
