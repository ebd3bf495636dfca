package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// Job is a snapshot of one queued pipeline run.
type Job struct {
	ID          string              `json:"job_id"`
	Filename    string              `json:"filename"`
	Status      constants.JobStatus `json:"status"`
	Stage       constants.Stage     `json:"stage"`
	Progress    float64             `json:"progress"`
	Message     string              `json:"message"`
	Error       string              `json:"error,omitempty"`
	ErrorCode   string              `json:"error_code,omitempty"`
	Projects    int                 `json:"projects"`
	SubmittedAt time.Time           `json:"submitted_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

// Done reports whether the job reached a final status.
func (j Job) Done() bool {
	return j.Status == constants.JobStatusSucceeded || j.Status == constants.JobStatusFailed
}

type Queue interface {
	Enqueue(ctx context.Context, doc entity.RawDocument) (Job, error)
	Status(id string) (Job, bool)
	Shutdown(ctx context.Context)
}
