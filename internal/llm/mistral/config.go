package mistral

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config for the Mistral client.
type Config struct {
	APIKey      string        // if empty, falls back to env MISTRAL_API_KEY
	BaseURL     string        // default https://api.mistral.ai/v1
	OCRModel    string        // default mistral-ocr-latest
	ChatModel   string        // default mistral-medium-latest
	Temperature float32       // 0..1
	Timeout     time.Duration // http client timeout
	URLExpiry   int           // signed URL lifetime in hours
}

// Client talks to the files, OCR and chat completion endpoints.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MISTRAL_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.OCRModel == "" {
		cfg.OCRModel = "mistral-ocr-latest"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "mistral-medium-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 24
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "mistral"),
	}
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
}
