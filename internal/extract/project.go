package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

// ProjectExtractor extracts one project record from the pages of its candidate.
type ProjectExtractor struct {
	completer llm.JSONCompleter
	assets    *llm.Assets
	timeout   time.Duration
	strict    bool
	logger    *slog.Logger
}

type ProjectOption func(*ProjectExtractor)

// WithStrictSchema skips records that do not validate against the detail schema.
func WithStrictSchema(strict bool) ProjectOption {
	return func(e *ProjectExtractor) { e.strict = strict }
}

// WithCallTimeout bounds each extraction call.
func WithCallTimeout(d time.Duration) ProjectOption {
	return func(e *ProjectExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func NewProjectExtractor(completer llm.JSONCompleter, assets *llm.Assets, logger *slog.Logger, opts ...ProjectOption) *ProjectExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &ProjectExtractor{completer: completer, assets: assets, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract never fails: every problem becomes a skipped Outcome with a logged reason.
func (e *ProjectExtractor) Extract(ctx context.Context, doc ocr.Document, c entity.ProjectCandidate) Outcome {
	log := common.LoggerFromContext(ctx, e.logger).With("title", c.Title, "page_start", c.PageStart, "page_fin", c.PageEnd)
	start := time.Now()

	pages := ocr.Normalize(doc, &ocr.PageRange{Start: c.PageStart, End: c.PageEnd})
	if pages.Empty() {
		log.Warn("extract.project.skipped", "reason", "no pages in range")
		return skipOutcome(c, "aucune page dans l'intervalle", nil, time.Since(start))
	}

	payload, err := pages.Payload()
	if err != nil {
		log.Warn("extract.project.skipped", "reason", "encode", "error", err)
		return skipOutcome(c, "encodage des pages impossible", err, time.Since(start))
	}

	cctx, cancel := callContext(ctx, e.timeout)
	content, err := e.completer.CompleteJSON(cctx, llm.CompletionRequest{
		System: e.assets.DetailPrompt,
		User:   payload,
		Label:  c.Title,
	})
	cancel()
	if err != nil {
		perr := common.PerProjectParseError(fmt.Sprintf("appel d'extraction échoué pour %q", c.Title), err)
		log.Warn("extract.project.skipped", "reason", "call", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return skipOutcome(c, "échec de l'appel d'extraction", perr, time.Since(start))
	}

	obj, err := llm.DecodeObject(content)
	if err != nil {
		perr := common.PerProjectParseError(fmt.Sprintf("réponse invalide pour %q", c.Title), err)
		log.Warn("extract.project.skipped", "reason", "parse", "error", err, "content_len", len(content))
		return skipOutcome(c, "réponse JSON invalide", perr, time.Since(start))
	}

	if e.assets.DetailSchema != nil {
		if vErr := e.assets.DetailSchema.Validate(obj); vErr != nil {
			if e.strict {
				perr := common.PerProjectParseError(fmt.Sprintf("schéma non respecté pour %q", c.Title), vErr)
				log.Warn("extract.project.skipped", "reason", "schema", "error", vErr)
				return skipOutcome(c, "schéma non respecté", perr, time.Since(start))
			}
			log.Warn("extract.project.schema_mismatch", "error", vErr)
		}
	}

	rec := entity.NewProjectRecord(c, obj)
	log.Info("extract.project.ok",
		"pages", len(pages.Pages),
		"sections", len(rec.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return recordOutcome(c, rec, time.Since(start))
}
