package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

func TestProjectExtract(t *testing.T) {
	rec := &recorder{reply: func(llm.CompletionRequest) (string, error) {
		return `{"Presentation":{"Titre":"Marais"},"_page_debut":99}`, nil
	}}
	e := NewProjectExtractor(rec, testAssets(t), nil)
	c := entity.ProjectCandidate{Title: "Marais", PageStart: 2, PageEnd: 3}

	out := e.Extract(context.Background(), pages(5), c)
	require.True(t, out.OK())
	assert.Equal(t, "Marais", out.Record.Title)
	assert.Equal(t, 2, out.Record.Map()[constants.MetaPageStart])
	assert.NotContains(t, out.Record.Fields, constants.MetaPageStart)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "DETAIL PROMPT", rec.calls[0].System)
	assert.Equal(t, "Marais", rec.calls[0].Label)
	sent, err := ocr.ParsePayload(rec.calls[0].User)
	require.NoError(t, err)
	require.Len(t, sent.Pages, 2)
	assert.Equal(t, 2, sent.Pages[0].PageNumber)
	assert.Equal(t, 3, sent.Pages[1].PageNumber)
}

func TestProjectExtractSkips(t *testing.T) {
	tests := []struct {
		name      string
		candidate entity.ProjectCandidate
		reply     string
		err       error
		strict    bool
		wantCalls int
		wantErr   error
	}{
		{
			name:      "range beyond document",
			candidate: entity.ProjectCandidate{Title: "Loin", PageStart: 20, PageEnd: 22},
			wantCalls: 0,
		},
		{
			name:      "inverted range",
			candidate: entity.ProjectCandidate{Title: "Inversé", PageStart: 4, PageEnd: 2},
			wantCalls: 0,
		},
		{
			name:      "call fails",
			candidate: entity.ProjectCandidate{Title: "A", PageStart: 1, PageEnd: 1},
			err:       errors.New("timeout"),
			wantCalls: 1,
			wantErr:   common.ErrPerProjectParse,
		},
		{
			name:      "invalid json",
			candidate: entity.ProjectCandidate{Title: "A", PageStart: 1, PageEnd: 1},
			reply:     `{"Presentation":`,
			wantCalls: 1,
			wantErr:   common.ErrPerProjectParse,
		},
		{
			name:      "schema mismatch in strict mode",
			candidate: entity.ProjectCandidate{Title: "A", PageStart: 1, PageEnd: 1},
			reply:     `{"Presentation":"texte libre"}`,
			strict:    true,
			wantCalls: 1,
			wantErr:   common.ErrPerProjectParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{reply: func(llm.CompletionRequest) (string, error) { return tt.reply, tt.err }}
			e := NewProjectExtractor(rec, testAssets(t), nil, WithStrictSchema(tt.strict))

			out := e.Extract(context.Background(), pages(5), tt.candidate)
			assert.False(t, out.OK())
			assert.NotEmpty(t, out.SkipReason)
			assert.Equal(t, tt.wantCalls, rec.count())
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err, tt.wantErr)
			}
			skipped := out.Skipped()
			assert.Equal(t, tt.candidate.Title, skipped.Title)
			assert.Equal(t, out.SkipReason, skipped.Reason)
		})
	}
}

func TestProjectExtractLenientSchema(t *testing.T) {
	rec := &recorder{reply: func(llm.CompletionRequest) (string, error) { return `{"Presentation":"texte libre"}`, nil }}
	e := NewProjectExtractor(rec, testAssets(t), nil)

	out := e.Extract(context.Background(), pages(2), entity.ProjectCandidate{Title: "A", PageStart: 1, PageEnd: 2})
	require.True(t, out.OK())
	assert.Equal(t, "texte libre", out.Record.Fields["Presentation"])
}

func TestProjectExtractCallTimeout(t *testing.T) {
	e := NewProjectExtractor(llm.CompleterFunc(func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), testAssets(t), nil, WithCallTimeout(10*time.Millisecond))

	out := e.Extract(context.Background(), pages(1), entity.ProjectCandidate{Title: "A", PageStart: 1, PageEnd: 1})
	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}
