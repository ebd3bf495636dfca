package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// NormalizedPage is a 1-indexed page as sent to the extraction capability.
type NormalizedPage struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

// NormalizedDocument is the wire shape of the pages payload.
type NormalizedDocument struct {
	Pages []NormalizedPage `json:"pages"`
}

// PageRange is an inclusive 1-indexed page interval.
type PageRange struct {
	Start int
	End   int
}

// Contains reports whether page n lies within r.
func (r PageRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Normalize maps OCR pages to 1-indexed pages in index order. When r is set
// only pages within it are kept. It never fails; an empty range yields no pages.
func Normalize(doc Document, r *PageRange) NormalizedDocument {
	pages := make([]Page, len(doc.Pages))
	copy(pages, doc.Pages)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	out := NormalizedDocument{Pages: make([]NormalizedPage, 0, len(pages))}
	for _, p := range pages {
		n := p.Index + 1
		if r != nil && !r.Contains(n) {
			continue
		}
		out.Pages = append(out.Pages, NormalizedPage{PageNumber: n, Content: p.Markdown})
	}
	return out
}

// Empty reports whether d holds no pages.
func (d NormalizedDocument) Empty() bool {
	return len(d.Pages) == 0
}

// Payload encodes d as 2-space indented JSON. Non-ASCII and HTML characters are kept verbatim.
func (d NormalizedDocument) Payload() (string, error) {
	if d.Pages == nil {
		d.Pages = []NormalizedPage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return "", fmt.Errorf("encode pages payload: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ParsePayload decodes a pages payload produced by Payload.
func ParsePayload(payload string) (NormalizedDocument, error) {
	var d NormalizedDocument
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return NormalizedDocument{}, fmt.Errorf("decode pages payload: %w", err)
	}
	return d, nil
}
