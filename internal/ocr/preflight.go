package ocr

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrTooManyPages is returned by Preflight when a document exceeds the page limit.
var ErrTooManyPages = errors.New("document exceeds page limit")

var pdfMagic = []byte("%PDF-")

// Preflight checks that content is a readable PDF and returns its page count.
// maxPages <= 0 disables the limit.
func Preflight(content []byte, maxPages int) (int, error) {
	if len(content) == 0 {
		return 0, errors.New("empty document")
	}
	if !bytes.HasPrefix(bytes.TrimLeft(content[:min(len(content), 1024)], "\x00\t\r\n "), pdfMagic) {
		return 0, errors.New("not a pdf document")
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	pages, err := api.PageCount(bytes.NewReader(content), cfg)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if maxPages > 0 && pages > maxPages {
		return pages, fmt.Errorf("%w: %d > %d", ErrTooManyPages, pages, maxPages)
	}
	return pages, nil
}
