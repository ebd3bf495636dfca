package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "REX_CONFIG"

// Config holds all application configuration
type Config struct {
	Mistral  MistralConfig  `yaml:"mistral"`
	Vertex   VertexConfig   `yaml:"vertex"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Queue    QueueConfig    `yaml:"queue"`
	Log      LogConfig      `yaml:"log"`
}

// MistralConfig holds OCR and chat settings for the Mistral API
type MistralConfig struct {
	APIKey      string        `yaml:"apiKey"`
	APIKeyFile  string        `yaml:"apiKeyFile"`
	BaseURL     string        `yaml:"baseUrl"`
	OCRModel    string        `yaml:"ocrModel"`
	ChatModel   string        `yaml:"chatModel"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// VertexConfig holds the Gemini extraction backend settings
type VertexConfig struct {
	Project string `yaml:"project"`
	Region  string `yaml:"region"`
	Model   string `yaml:"model"`
}

// PipelineConfig holds extraction pipeline settings
type PipelineConfig struct {
	Extractor    string        `yaml:"extractor"`
	AssetsDir    string        `yaml:"assetsDir"`
	Concurrency  int           `yaml:"concurrency"`
	StrictSchema bool          `yaml:"strictSchema"`
	CallTimeout  time.Duration `yaml:"callTimeout"`
	RunTimeout   time.Duration `yaml:"runTimeout"`
	MaxPages     int           `yaml:"maxPages"`
}

// QueueConfig holds background run queue settings
type QueueConfig struct {
	Workers int `yaml:"workers"`
	Size    int `yaml:"size"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Extraction backends.
const (
	ExtractorMistral = "mistral"
	ExtractorVertex  = "vertex"
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Mistral: MistralConfig{
			BaseURL:     "https://api.mistral.ai/v1",
			OCRModel:    "mistral-ocr-latest",
			ChatModel:   "mistral-medium-latest",
			Temperature: 0,
			Timeout:     2 * time.Minute,
		},
		Vertex: VertexConfig{
			Region: "europe-west1",
			Model:  "gemini-1.5-pro",
		},
		Pipeline: PipelineConfig{
			Extractor:   ExtractorMistral,
			AssetsDir:   "assets",
			Concurrency: 1,
			CallTimeout: 3 * time.Minute,
			RunTimeout:  30 * time.Minute,
		},
		Queue: QueueConfig{
			Workers: 1,
			Size:    16,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the optional YAML file named by REX_CONFIG,
// then applies environment variables on top.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.resolveAPIKey(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ConfigurationError(fmt.Sprintf("read config %s", path), err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return ConfigurationError(fmt.Sprintf("parse config %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Mistral.APIKey = getEnv("MISTRAL_API_KEY", c.Mistral.APIKey)
	c.Mistral.APIKeyFile = getEnv("MISTRAL_API_KEY_FILE", c.Mistral.APIKeyFile)
	c.Mistral.BaseURL = getEnv("MISTRAL_BASE_URL", c.Mistral.BaseURL)
	c.Mistral.OCRModel = getEnv("MISTRAL_OCR_MODEL", c.Mistral.OCRModel)
	c.Mistral.ChatModel = getEnv("MISTRAL_CHAT_MODEL", c.Mistral.ChatModel)
	c.Mistral.Temperature = getEnvAsFloat32("MISTRAL_TEMPERATURE", c.Mistral.Temperature)
	c.Mistral.Timeout = getEnvAsDuration("MISTRAL_TIMEOUT", c.Mistral.Timeout)

	c.Vertex.Project = getEnv("VERTEX_PROJECT", c.Vertex.Project)
	c.Vertex.Region = getEnv("VERTEX_REGION", c.Vertex.Region)
	c.Vertex.Model = getEnv("VERTEX_MODEL", c.Vertex.Model)

	c.Pipeline.Extractor = strings.ToLower(getEnv("REX_EXTRACTOR", c.Pipeline.Extractor))
	c.Pipeline.AssetsDir = getEnv("REX_ASSETS_DIR", c.Pipeline.AssetsDir)
	c.Pipeline.Concurrency = getEnvAsInt("REX_CONCURRENCY", c.Pipeline.Concurrency)
	c.Pipeline.StrictSchema = getEnvAsBool("REX_STRICT_SCHEMA", c.Pipeline.StrictSchema)
	c.Pipeline.CallTimeout = getEnvAsDuration("REX_CALL_TIMEOUT", c.Pipeline.CallTimeout)
	c.Pipeline.RunTimeout = getEnvAsDuration("REX_RUN_TIMEOUT", c.Pipeline.RunTimeout)
	c.Pipeline.MaxPages = getEnvAsInt("REX_MAX_PAGES", c.Pipeline.MaxPages)

	c.Queue.Workers = getEnvAsInt("REX_QUEUE_WORKERS", c.Queue.Workers)
	c.Queue.Size = getEnvAsInt("REX_QUEUE_SIZE", c.Queue.Size)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// resolveAPIKey reads the key file when no inline key is configured.
func (c *Config) resolveAPIKey() error {
	if c.Mistral.APIKey != "" || c.Mistral.APIKeyFile == "" {
		return nil
	}
	raw, err := os.ReadFile(c.Mistral.APIKeyFile)
	if err != nil {
		return ConfigurationError("read MISTRAL_API_KEY_FILE", err)
	}
	c.Mistral.APIKey = strings.TrimSpace(string(raw))
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings required before any pipeline run.
func (c *Config) Validate() error {
	if c.Mistral.APIKey == "" {
		return ConfigurationError("MISTRAL_API_KEY is required", ErrInvalidInput)
	}
	if c.Pipeline.AssetsDir == "" {
		return ConfigurationError("REX_ASSETS_DIR is required", ErrInvalidInput)
	}
	switch c.Pipeline.Extractor {
	case ExtractorMistral:
	case ExtractorVertex:
		if c.Vertex.Project == "" || c.Vertex.Region == "" {
			return ConfigurationError("VERTEX_PROJECT and VERTEX_REGION are required for the vertex extractor", ErrInvalidInput)
		}
	default:
		return ConfigurationError(fmt.Sprintf("unknown extractor %q", c.Pipeline.Extractor), ErrInvalidInput)
	}
	if c.Pipeline.Concurrency < 1 {
		return ConfigurationError("REX_CONCURRENCY must be at least 1", ErrInvalidInput)
	}
	if c.Pipeline.MaxPages < 0 {
		return ConfigurationError("REX_MAX_PAGES must not be negative", ErrInvalidInput)
	}
	return nil
}
