package extract

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

const (
	testListSchema   = `{"type":"object","properties":{"Liste":{"type":"array"}}}`
	testDetailSchema = `{"type":"object","properties":{"Presentation":{"type":"object","properties":{"Titre":{"type":"string"}}}}}`
)

func testAssets(t *testing.T) *llm.Assets {
	t.Helper()
	list, err := llm.ParseSchema("list.json", []byte(testListSchema))
	require.NoError(t, err)
	detail, err := llm.ParseSchema("detail.json", []byte(testDetailSchema))
	require.NoError(t, err)
	return &llm.Assets{
		ListSchema:   list,
		DetailSchema: detail,
		ListPrompt:   "LIST PROMPT",
		DetailPrompt: "DETAIL PROMPT",
	}
}

// recorder is a scripted completer that keeps every request it receives.
type recorder struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	reply func(req llm.CompletionRequest) (string, error)
}

func (r *recorder) CompleteJSON(_ context.Context, req llm.CompletionRequest) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	return r.reply(req)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func pages(n int) ocr.Document {
	d := ocr.Document{}
	for i := 0; i < n; i++ {
		d.Pages = append(d.Pages, ocr.Page{Index: i, Markdown: "page"})
	}
	return d
}
