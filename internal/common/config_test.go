package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REX_CONFIG", "MISTRAL_API_KEY", "MISTRAL_API_KEY_FILE", "MISTRAL_BASE_URL",
		"MISTRAL_OCR_MODEL", "MISTRAL_CHAT_MODEL", "MISTRAL_TEMPERATURE", "MISTRAL_TIMEOUT",
		"VERTEX_PROJECT", "VERTEX_REGION", "VERTEX_MODEL",
		"REX_EXTRACTOR", "REX_ASSETS_DIR", "REX_CONCURRENCY", "REX_STRICT_SCHEMA",
		"REX_CALL_TIMEOUT", "REX_RUN_TIMEOUT", "REX_MAX_PAGES",
		"REX_QUEUE_WORKERS", "REX_QUEUE_SIZE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "mistral-ocr-latest", cfg.Mistral.OCRModel)
	assert.Equal(t, "mistral-medium-latest", cfg.Mistral.ChatModel)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
}

func TestLoadConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MISTRAL_API_KEY", "k")
	t.Setenv("MISTRAL_TEMPERATURE", "0.2")
	t.Setenv("REX_EXTRACTOR", "VERTEX")
	t.Setenv("REX_CONCURRENCY", "4")
	t.Setenv("REX_STRICT_SCHEMA", "true")
	t.Setenv("REX_CALL_TIMEOUT", "45s")
	t.Setenv("REX_MAX_PAGES", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.Mistral.APIKey)
	assert.InDelta(t, 0.2, cfg.Mistral.Temperature, 1e-6)
	assert.Equal(t, ExtractorVertex, cfg.Pipeline.Extractor)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.True(t, cfg.Pipeline.StrictSchema)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.CallTimeout)
	assert.Equal(t, 0, cfg.Pipeline.MaxPages, "unparsable values keep the default")
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "rex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mistral:
  apiKey: from-file
  chatModel: mistral-large-latest
pipeline:
  concurrency: 3
  assetsDir: /opt/rex/assets
log:
  format: json
`), 0o644))
	t.Setenv("REX_CONFIG", path)
	t.Setenv("REX_CONCURRENCY", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Mistral.APIKey)
	assert.Equal(t, "mistral-large-latest", cfg.Mistral.ChatModel)
	assert.Equal(t, "mistral-ocr-latest", cfg.Mistral.OCRModel)
	assert.Equal(t, "/opt/rex/assets", cfg.Pipeline.AssetsDir)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("REX_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := LoadConfig()
		assert.ErrorIs(t, err, ErrConfiguration)
	})
	t.Run("bad yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mistral: [unclosed"), 0o644))
		t.Setenv("REX_CONFIG", path)
		_, err := LoadConfig()
		assert.ErrorIs(t, err, ErrConfiguration)
	})
	t.Run("missing key file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MISTRAL_API_KEY_FILE", filepath.Join(t.TempDir(), "key"))
		_, err := LoadConfig()
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestAPIKeyFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  secret\n"), 0o600))
	t.Setenv("MISTRAL_API_KEY_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Mistral.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Mistral.APIKey = "k"
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing api key", func(c *Config) { c.Mistral.APIKey = "" }, true},
		{"missing assets dir", func(c *Config) { c.Pipeline.AssetsDir = "" }, true},
		{"unknown extractor", func(c *Config) { c.Pipeline.Extractor = "openai" }, true},
		{"vertex without project", func(c *Config) { c.Pipeline.Extractor = ExtractorVertex }, true},
		{"vertex with project", func(c *Config) {
			c.Pipeline.Extractor = ExtractorVertex
			c.Vertex.Project = "p"
		}, false},
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }, true},
		{"negative max pages", func(c *Config) { c.Pipeline.MaxPages = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}
