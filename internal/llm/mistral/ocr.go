package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

var _ ocr.Capability = (*Client)(nil)

type fileResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Purpose  string `json:"purpose"`
}

type signedURLResponse struct {
	URL string `json:"url"`
}

type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Model string `json:"model"`
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// Upload stores content with purpose "ocr" and returns the file id.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (ocr.FileRef, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "ocr"); err != nil {
		return ocr.FileRef{}, fmt.Errorf("write purpose field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ocr.FileRef{}, fmt.Errorf("create file field: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return ocr.FileRef{}, fmt.Errorf("write file field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ocr.FileRef{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/files", &body)
	if err != nil {
		return ocr.FileRef{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	raw, _, err := llm.Do(c.http, req, c.authHeaders(), c.logger)
	if err != nil {
		return ocr.FileRef{}, fmt.Errorf("mistral upload: %w", err)
	}
	var fr fileResponse
	if err := json.Unmarshal(raw, &fr); err != nil {
		return ocr.FileRef{}, fmt.Errorf("decode upload response: %w", err)
	}
	if fr.ID == "" {
		return ocr.FileRef{}, fmt.Errorf("upload response has no file id")
	}
	c.logger.Info("mistral.files.uploaded", "file_id", fr.ID, "filename", filename, "bytes", len(content))
	return ocr.FileRef{ID: fr.ID}, nil
}

// SignedURL resolves a time-limited download URL for an uploaded file.
func (c *Client) SignedURL(ctx context.Context, ref ocr.FileRef) (string, error) {
	endpoint := fmt.Sprintf("%s/files/%s/url?expiry=%s", c.cfg.BaseURL, url.PathEscape(ref.ID), strconv.Itoa(c.cfg.URLExpiry))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build signed url request: %w", err)
	}
	raw, _, err := llm.Do(c.http, req, c.authHeaders(), c.logger)
	if err != nil {
		return "", fmt.Errorf("mistral signed url: %w", err)
	}
	var su signedURLResponse
	if err := json.Unmarshal(raw, &su); err != nil {
		return "", fmt.Errorf("decode signed url response: %w", err)
	}
	return su.URL, nil
}

// Process runs OCR on documentURL. Images are not requested.
func (c *Client) Process(ctx context.Context, documentURL string) (ocr.Document, error) {
	start := time.Now()
	body := ocrRequest{
		Model:              c.cfg.OCRModel,
		Document:           ocrDocument{Type: "document_url", DocumentURL: documentURL},
		IncludeImageBase64: false,
	}
	raw, _, err := llm.SendJSON(ctx, c.http, c.cfg.BaseURL+"/ocr", body, c.authHeaders(), c.logger)
	if err != nil {
		return ocr.Document{}, fmt.Errorf("mistral ocr: %w", err)
	}
	var or ocrResponse
	if err := json.Unmarshal(raw, &or); err != nil {
		return ocr.Document{}, fmt.Errorf("decode ocr response: %w", err)
	}

	doc := ocr.Document{Model: or.Model, Pages: make([]ocr.Page, 0, len(or.Pages))}
	for _, p := range or.Pages {
		doc.Pages = append(doc.Pages, ocr.Page{Index: p.Index, Markdown: p.Markdown})
	}
	c.logger.Info("mistral.ocr.ok",
		"model", or.Model,
		"pages", len(doc.Pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}
