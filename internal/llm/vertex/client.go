package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
)

// Config for the Gemini extraction backend.
type Config struct {
	Project     string
	Region      string
	Model       string  // default gemini-1.5-pro
	Temperature float32 // 0 for deterministic output
}

// Client implements llm.JSONCompleter on Vertex AI Gemini models.
type Client struct {
	cfg    Config
	base   *genai.Client
	logger *slog.Logger
}

var _ llm.JSONCompleter = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Project == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex: project and region cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if logger == nil {
		logger = slog.Default()
	}
	base, err := genai.NewClient(ctx, cfg.Project, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{cfg: cfg, base: base, logger: logger.With("component", "vertex")}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// CompleteJSON sends the system prompt as system instruction and the payload as user text,
// forcing a JSON response.
func (c *Client) CompleteJSON(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := c.base.GenerativeModel(c.cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](c.cfg.Temperature),
	}

	c.logger.Info("vertex.generate.start", "req_id", rid, "label", req.Label, "model", c.cfg.Model, "user_len", len(req.User))
	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		c.logger.Error("vertex.generate.error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("vertex generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("vertex generate: empty response")
	}
	c.logger.Info("vertex.generate.ok", "req_id", rid, "label", req.Label, "content_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
