package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/extract"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

// OCR is the document OCR stage the processor depends on.
type OCR interface {
	Upload(ctx context.Context, filename string, content []byte) (ocr.Reference, error)
	Process(ctx context.Context, ref ocr.Reference) (ocr.Document, error)
}

type Config struct {
	// Concurrency bounds parallel per-project extractions; 1 is sequential.
	Concurrency int
	// RunTimeout bounds a whole run; 0 = none.
	RunTimeout time.Duration
}

// Processor coordinates OCR, project listing and per-project extraction.
type Processor struct {
	Logger   *slog.Logger
	OCR      OCR
	Lister   extract.Lister
	Detailer extract.Detailer
	cfg      Config
	now      func() time.Time
}

func NewProcessor(logger *slog.Logger, o OCR, lister extract.Lister, detailer extract.Detailer, cfg Config) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Processor{Logger: logger, OCR: o, Lister: lister, Detailer: detailer, cfg: cfg, now: time.Now}
}

// run is the per-run emitter. It keeps the last progress so that a failure
// is reported at the point it happened and progress never decreases.
type run struct {
	id     string
	events chan<- Event
	ctx    context.Context
	now    func() time.Time

	mu   sync.Mutex
	last float64
}

func (r *run) emit(stage constants.Stage, progress float64, status string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if progress < r.last {
		progress = r.last
	}
	r.last = progress
	if r.events == nil {
		return
	}
	ev := Event{RunID: r.id, Stage: stage, Progress: progress, Status: status, Err: err, Time: r.now()}
	// The terminal event is always delivered; the caller reads until Process returns.
	if stage.Terminal() {
		r.events <- ev
		return
	}
	select {
	case r.events <- ev:
	case <-r.ctx.Done():
	}
}

func (r *run) fail(err error) {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()
	r.emit(constants.StageFailed, last, fmt.Sprintf(constants.StatusFailed, common.UserMessage(err)), err)
}

// Process runs the whole pipeline over doc. Events are sent on events when it is
// non-nil; the caller must keep receiving until Process returns. Progress events
// are dropped once ctx is done, the final Completed or Failed event never is.
// Process does not close events.
func (p *Processor) Process(ctx context.Context, doc entity.RawDocument, events chan<- Event) (*entity.PipelineResult, error) {
	runID := common.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = common.WithRunID(ctx, runID)
	}
	// Progress events stop on the caller's context, not on the run timeout.
	r := &run{id: runID, events: events, ctx: ctx, now: p.now}
	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}
	log := p.Logger.With("run_id", runID, "filename", doc.Filename)
	ctx = common.WithLogger(ctx, log)
	start := time.Now()

	res, err := p.process(ctx, r, doc)
	if err != nil {
		log.Error("pipeline.run.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		r.fail(err)
		return nil, err
	}
	log.Info("pipeline.run.ok",
		"projects", len(res.Projects),
		"skipped", len(res.Skipped),
		"excluded", res.Excluded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) process(ctx context.Context, r *run, doc entity.RawDocument) (*entity.PipelineResult, error) {
	log := common.LoggerFromContext(ctx, p.Logger)

	// 1) upload and OCR
	r.emit(constants.StageUploading, constants.ProgressUploading, constants.StatusUploading, nil)
	ref, err := p.OCR.Upload(ctx, doc.Filename, doc.Content)
	if err != nil {
		return nil, err
	}
	r.emit(constants.StageOCRProcessing, constants.ProgressOCR, constants.StatusOCR, nil)
	ocrDoc, err := p.OCR.Process(ctx, ref)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline.ocr.ok", "pages", len(ocrDoc.Pages), "file_id", ref.FileID)

	// 2) project list over the whole document
	r.emit(constants.StageListExtraction, constants.ProgressListExtraction, constants.StatusListExtraction, nil)
	list, err := p.Lister.Extract(ctx, ocr.Normalize(ocrDoc, nil))
	if err != nil {
		return nil, err
	}
	r.emit(constants.StageListValidated, constants.ProgressListValidated, constants.StatusListValidated, nil)

	// 3) one extraction per candidate
	n := len(list.Candidates)
	r.emit(constants.StagePerProject, constants.ProgressLoopStart, fmt.Sprintf(constants.StatusLoopStart, n), nil)
	outcomes := p.extractAll(ctx, r, ocrDoc, list.Candidates)
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ExtractionError("délai dépassé pendant l'extraction des projets", err)
		}
		return nil, common.ExtractionError("extraction annulée", err)
	}

	res := &entity.PipelineResult{
		RunID:    r.id,
		Filename: doc.Filename,
		Excluded: len(list.Excluded),
		Projects: make([]entity.ProjectRecord, 0, n),
	}
	for _, o := range outcomes {
		if o.OK() {
			res.Projects = append(res.Projects, *o.Record)
			continue
		}
		log.Warn("pipeline.project.skipped", "title", o.Candidate.Title, "reason", o.SkipReason, "error", o.Err)
		res.Skipped = append(res.Skipped, o.Skipped())
	}
	if len(res.Projects) == 0 {
		return nil, common.NoExtractableProjectsError("Aucun projet n'a pu être analysé avec succès")
	}
	res.Timestamp = p.now()

	r.emit(constants.StageCompleted, constants.ProgressDone, fmt.Sprintf(constants.StatusDone, len(res.Projects)), nil)
	return res, nil
}

// extractAll returns one outcome per candidate, in candidate order.
func (p *Processor) extractAll(ctx context.Context, r *run, doc ocr.Document, cs []entity.ProjectCandidate) []extract.Outcome {
	n := len(cs)
	outcomes := make([]extract.Outcome, n)

	if p.cfg.Concurrency <= 1 || n <= 1 {
		for i, c := range cs {
			if ctx.Err() != nil {
				break
			}
			r.emit(constants.StagePerProject, loopProgress(i, n), fmt.Sprintf(constants.StatusProject, i+1, n, shortTitle(c.Title)), nil)
			outcomes[i] = p.Detailer.Extract(ctx, doc, c)
		}
		return outcomes
	}

	// Outcomes are written by index, so completion order never reorders results.
	// started and the emit share one lock, so progress stays monotonic.
	var (
		g       errgroup.Group
		mu      sync.Mutex
		started int
	)
	g.SetLimit(p.cfg.Concurrency)
	for i, c := range cs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			mu.Lock()
			k := started
			started++
			r.emit(constants.StagePerProject, loopProgress(k, n), fmt.Sprintf(constants.StatusProject, i+1, n, shortTitle(c.Title)), nil)
			mu.Unlock()
			outcomes[i] = p.Detailer.Extract(ctx, doc, c)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
