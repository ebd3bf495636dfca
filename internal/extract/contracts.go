package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
)

// Lister is stage 1 of extraction: whole document -> project candidates.
type Lister interface {
	Extract(ctx context.Context, doc ocr.NormalizedDocument) (ListResult, error)
}

// Detailer is stage 2: one candidate's pages -> project record or skip.
type Detailer interface {
	Extract(ctx context.Context, doc ocr.Document, c entity.ProjectCandidate) Outcome
}

// Exclusion is a raw list entry dropped before per-project extraction.
type Exclusion struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// ListResult holds the candidates kept from the model list.
// len(Candidates) + len(Excluded) == Raw.
type ListResult struct {
	Candidates []entity.ProjectCandidate
	Excluded   []Exclusion
	Raw        int
}

// Outcome is the result of one per-project extraction: a record, or a skip reason.
type Outcome struct {
	Candidate  entity.ProjectCandidate
	Record     *entity.ProjectRecord
	SkipReason string
	Err        error
	Duration   time.Duration
}

// OK reports whether a record was produced.
func (o Outcome) OK() bool {
	return o.Record != nil
}

// Skipped records the reason for o as a SkippedProject.
func (o Outcome) Skipped() entity.SkippedProject {
	return entity.SkippedProject{
		Title:     o.Candidate.Title,
		PageStart: o.Candidate.PageStart,
		PageEnd:   o.Candidate.PageEnd,
		Reason:    o.SkipReason,
	}
}

func recordOutcome(c entity.ProjectCandidate, r entity.ProjectRecord, d time.Duration) Outcome {
	return Outcome{Candidate: c, Record: &r, Duration: d}
}

func skipOutcome(c entity.ProjectCandidate, reason string, err error, d time.Duration) Outcome {
	return Outcome{Candidate: c, SkipReason: reason, Err: err, Duration: d}
}

func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
