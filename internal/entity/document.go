package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawDocument is the uploaded binary and its name, immutable for one run.
type RawDocument struct {
	Filename   string    `json:"filename"`
	Content    []byte    `json:"-"`
	SHA256     string    `json:"sha256"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewRawDocument hashes content and stamps the receive time.
func NewRawDocument(filename string, content []byte) RawDocument {
	sum := sha256.Sum256(content)
	return RawDocument{
		Filename:   filename,
		Content:    content,
		SHA256:     hex.EncodeToString(sum[:]),
		ReceivedAt: time.Now().UTC(),
	}
}

// Size returns the content length in bytes.
func (d RawDocument) Size() int {
	return len(d.Content)
}
