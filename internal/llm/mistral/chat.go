package mistral

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// CompleteJSON implements llm.JSONCompleter using chat/completions in JSON mode.
func (c *Client) CompleteJSON(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("mistral.chat.start",
		"req_id", rid,
		"label", req.Label,
		"model", c.cfg.ChatModel,
		"temp", c.cfg.Temperature,
		"system_len", len(req.System),
		"user_len", len(req.User),
	)

	body := map[string]any{
		"model":           c.cfg.ChatModel,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
	}

	raw, _, err := llm.SendJSON(ctx, c.http, c.cfg.BaseURL+"/chat/completions", body, c.authHeaders(), c.logger)
	if err != nil {
		c.logger.Error("mistral.chat.http_error",
			"req_id", rid, "label", req.Label, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("mistral chat: %w", err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("mistral.chat.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode mistral response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("mistral.chat.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("no choices in mistral response")
	}

	content, err := messageText(cc.Choices[0].Message.Content)
	if err != nil {
		return "", fmt.Errorf("decode mistral message: %w", err)
	}

	c.logger.Info("mistral.chat.ok",
		"req_id", rid,
		"label", req.Label,
		"finish_reason", cc.Choices[0].FinishReason,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// messageText accepts both a plain string and a list of text chunks.
func messageText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var chunks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, ch := range chunks {
		if ch.Type == "" || ch.Type == "text" {
			b.WriteString(ch.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
