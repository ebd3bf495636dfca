package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
)

// Schema is a loaded JSON Schema document: its decoded value, its pretty form
// for prompt injection, and the compiled validator.
type Schema struct {
	Name     string
	Value    any
	pretty   string
	compiled *jsonschema.Schema
}

// LoadSchema reads and compiles the JSON Schema at path.
// Missing files wrap common.ErrNotFound; malformed ones common.ErrInvalidInput.
func LoadSchema(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("schema %s: %w", path, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchema(filepath.Base(path), raw)
}

// ParseSchema decodes and compiles raw as a JSON Schema named name.
func ParseSchema(name string, raw []byte) (*Schema, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w: %v", name, common.ErrInvalidInput, err)
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("parse schema %s: %w: top level must be an object", name, common.ErrInvalidInput)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("compact schema %s: %w: %v", name, common.ErrInvalidInput, err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent schema %s: %w: %v", name, common.ErrInvalidInput, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(compact.Bytes())); err != nil {
		return nil, fmt.Errorf("add schema %s: %w: %v", name, common.ErrInvalidInput, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w: %v", name, common.ErrInvalidInput, err)
	}

	return &Schema{Name: name, Value: v, pretty: pretty.String(), compiled: compiled}, nil
}

// Pretty returns the schema as 2-space indented JSON, keeping the source key order.
func (s *Schema) Pretty() string {
	return s.pretty
}

// Validate checks a decoded JSON value against the schema.
func (s *Schema) Validate(v any) error {
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema %s: %w", s.Name, err)
	}
	return nil
}
