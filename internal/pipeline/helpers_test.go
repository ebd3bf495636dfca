package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/extract"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

type fakeOCR struct {
	doc        ocr.Document
	uploadErr  error
	processErr error
}

func (f *fakeOCR) Upload(_ context.Context, filename string, _ []byte) (ocr.Reference, error) {
	if f.uploadErr != nil {
		return ocr.Reference{}, common.UploadError("échec de l'envoi du fichier", f.uploadErr)
	}
	return ocr.Reference{Filename: filename, FileID: "file-1", URL: "https://signed.example/file-1"}, nil
}

func (f *fakeOCR) Process(_ context.Context, _ ocr.Reference) (ocr.Document, error) {
	if f.processErr != nil {
		return ocr.Document{}, common.OCRProcessingError("échec du traitement OCR", f.processErr)
	}
	return f.doc, nil
}

func pages(n int) ocr.Document {
	d := ocr.Document{}
	for i := 0; i < n; i++ {
		d.Pages = append(d.Pages, ocr.Page{Index: i, Markdown: "contenu"})
	}
	return d
}

// script answers the list call with list and each project call with detail.
type script struct {
	list   string
	detail func(ctx context.Context, title string) (string, error)

	mu           sync.Mutex
	detailLabels []string
}

func (s *script) CompleteJSON(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if req.Label == "list" {
		return s.list, nil
	}
	s.mu.Lock()
	s.detailLabels = append(s.detailLabels, req.Label)
	s.mu.Unlock()
	if s.detail == nil {
		return `{"Presentation":{"Titre":"` + req.Label + `"}}`, nil
	}
	return s.detail(ctx, req.Label)
}

func (s *script) detailCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.detailLabels)
}

func testAssets(t *testing.T) *llm.Assets {
	t.Helper()
	list, err := llm.ParseSchema("list.json", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	detail, err := llm.ParseSchema("detail.json", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	return &llm.Assets{ListSchema: list, DetailSchema: detail, ListPrompt: "LIST", DetailPrompt: "DETAIL"}
}

func newTestProcessor(t *testing.T, o OCR, s *script, cfg Config) *Processor {
	t.Helper()
	assets := testAssets(t)
	return NewProcessor(nil, o,
		extract.NewListExtractor(s, assets, 0, nil),
		extract.NewProjectExtractor(s, assets, nil),
		cfg,
	)
}

// collect runs Process and gathers every event it emits.
func collect(ctx context.Context, p *Processor, doc entity.RawDocument) (*entity.PipelineResult, []Event, error) {
	ch := make(chan Event)
	done := make(chan []Event)
	go func() {
		var evs []Event
		for ev := range ch {
			evs = append(evs, ev)
		}
		done <- evs
	}()
	res, err := p.Process(ctx, doc, ch)
	close(ch)
	evs := <-done
	return res, evs, err
}

func requireMonotonic(t *testing.T, evs []Event) {
	t.Helper()
	require.NotEmpty(t, evs)
	for i, ev := range evs {
		require.GreaterOrEqual(t, ev.Progress, 0.0)
		require.LessOrEqual(t, ev.Progress, 1.0)
		if i > 0 {
			require.GreaterOrEqual(t, ev.Progress, evs[i-1].Progress, "event %d (%s) went backwards", i, ev.Status)
		}
	}
}

var errBoom = errors.New("boom")
