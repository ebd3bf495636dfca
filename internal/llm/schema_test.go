package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
)

const listSchemaJSON = `{"type":"object","required":["Liste"],"properties":{"Liste":{"type":"array","items":{"type":"object","properties":{"Titre":{"type":"string"},"PageDebut":{"type":"integer"},"PageFin":{"type":"integer"}}}}}}`

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema("list.json", []byte(listSchemaJSON))
	require.NoError(t, err)
	assert.Equal(t, "list.json", s.Name)

	// Indented output keeps the source key order.
	pretty := s.Pretty()
	assert.True(t, strings.HasPrefix(pretty, "{\n  \"type\": \"object\""))
	assert.Less(t, strings.Index(pretty, "\"Titre\""), strings.Index(pretty, "\"PageDebut\""))
}

func TestParseSchemaInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"type":`},
		{"array at top level", `[1,2]`},
		{"bad keyword value", `{"type": 12}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema("bad.json", []byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestSchemaValidate(t *testing.T) {
	s, err := ParseSchema("list.json", []byte(listSchemaJSON))
	require.NoError(t, err)

	ok, err := DecodeObject(`{"Liste":[{"Titre":"A","PageDebut":1,"PageFin":2}]}`)
	require.NoError(t, err)
	assert.NoError(t, s.Validate(ok))

	bad, err := DecodeObject(`{"Liste":"not a list"}`)
	require.NoError(t, err)
	assert.Error(t, s.Validate(bad))

	missing, err := DecodeObject(`{}`)
	require.NoError(t, err)
	assert.Error(t, s.Validate(missing))
}

func TestLoadSchemaMissing(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("Schéma:\n{{ SCHEMA_JSON }}\nencore {{ SCHEMA_JSON }}"), 0o644))

	s, err := ParseSchema("s.json", []byte(`{"type":"object"}`))
	require.NoError(t, err)

	got, err := LoadPrompt(path, s)
	require.NoError(t, err)
	assert.NotContains(t, got, "{{ SCHEMA_JSON }}")
	assert.Equal(t, 2, strings.Count(got, s.Pretty()))

	raw, err := LoadPrompt(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(raw, "{{ SCHEMA_JSON }}"))

	_, err = LoadPrompt(filepath.Join(dir, "missing.md"), s)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
