package async

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/extract"
	"github.com/joseph-ayodele/rex-zones-humides/internal/llm"
	"github.com/joseph-ayodele/rex-zones-humides/internal/ocr"
	"github.com/joseph-ayodele/rex-zones-humides/internal/pipeline"
	"github.com/joseph-ayodele/rex-zones-humides/internal/session"
)

type stubOCR struct{}

func (stubOCR) Upload(_ context.Context, filename string, _ []byte) (ocr.Reference, error) {
	return ocr.Reference{Filename: filename, FileID: "f", URL: "u"}, nil
}

func (stubOCR) Process(context.Context, ocr.Reference) (ocr.Document, error) {
	return ocr.Document{Pages: []ocr.Page{{Index: 0, Markdown: "p1"}, {Index: 1, Markdown: "p2"}}}, nil
}

const twoProjects = `{"Liste":[{"Titre":"A","PageDebut":1,"PageFin":1},{"Titre":"B","PageDebut":2,"PageFin":2}]}`

// newProcessor answers the list call with list. When gate is non-nil every
// call waits for it to close first.
func newProcessor(t *testing.T, list string, gate <-chan struct{}) *pipeline.Processor {
	t.Helper()
	ls, err := llm.ParseSchema("list.json", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	ds, err := llm.ParseSchema("detail.json", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	assets := &llm.Assets{ListSchema: ls, DetailSchema: ds, ListPrompt: "LIST", DetailPrompt: "DETAIL"}

	completer := llm.CompleterFunc(func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if req.Label == "list" {
			return list, nil
		}
		return `{"Presentation":{"Titre":"` + req.Label + `"}}`, nil
	})
	return pipeline.NewProcessor(nil, stubOCR{},
		extract.NewListExtractor(completer, assets, 0, nil),
		extract.NewProjectExtractor(completer, assets, nil),
		pipeline.Config{},
	)
}

var doc = entity.NewRawDocument("recueil.pdf", []byte("%PDF"))

func waitDone(t *testing.T, q *RunQueue, id string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = q.Status(id)
		return ok && job.Done()
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func TestRunQueueSucceeds(t *testing.T) {
	store := session.NewStore()
	q := NewRunQueue(newProcessor(t, twoProjects, nil), store, nil)
	defer q.Shutdown(context.Background())

	queued, err := q.Enqueue(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, queued.ID)
	assert.Equal(t, "recueil.pdf", queued.Filename)
	assert.Equal(t, constants.JobStatusQueued, queued.Status)
	assert.Equal(t, constants.StageIdle, queued.Stage)

	job := waitDone(t, q, queued.ID)
	assert.Equal(t, constants.JobStatusSucceeded, job.Status)
	assert.Equal(t, constants.StageCompleted, job.Stage)
	assert.Equal(t, 1.0, job.Progress)
	assert.Equal(t, "Traitement terminé - 2 projet(s) extrait(s)", job.Message)
	assert.Equal(t, 2, job.Projects)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)
	assert.False(t, job.FinishedAt.Before(*job.StartedAt))

	res, ok := store.Last()
	require.True(t, ok)
	assert.Equal(t, queued.ID, res.RunID)
	assert.Len(t, res.Projects, 2)
}

func TestRunQueueFailureKeepsPreviousResult(t *testing.T) {
	store := session.NewStore()
	prev := &entity.PipelineResult{RunID: "précédent"}
	store.Replace(prev)

	q := NewRunQueue(newProcessor(t, `{"Liste": [`, nil), store, nil)
	defer q.Shutdown(context.Background())

	queued, err := q.Enqueue(context.Background(), doc)
	require.NoError(t, err)

	job := waitDone(t, q, queued.ID)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Equal(t, constants.StageFailed, job.Stage)
	assert.Equal(t, "Erreur lors du parsing de la liste de projets", job.Error)
	assert.Equal(t, "DataLoss", job.ErrorCode)
	assert.Equal(t, "Erreur: Erreur lors du parsing de la liste de projets", job.Message)
	assert.InDelta(t, 0.3, job.Progress, 1e-9)

	res, _ := store.Last()
	assert.Same(t, prev, res)
}

func TestRunQueueReportsRunning(t *testing.T) {
	gate := make(chan struct{})
	q := NewRunQueue(newProcessor(t, twoProjects, gate), nil, nil)
	defer q.Shutdown(context.Background())

	queued, err := q.Enqueue(context.Background(), doc)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j, _ := q.Status(queued.ID)
		return j.Status == constants.JobStatusRunning && j.Stage == constants.StageListExtraction
	}, 5*time.Second, 5*time.Millisecond)

	close(gate)
	job := waitDone(t, q, queued.ID)
	assert.Equal(t, constants.JobStatusSucceeded, job.Status)
}

func TestRunQueueBackpressureHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	q := NewRunQueue(newProcessor(t, twoProjects, gate), nil, nil, WithWorkers(1), WithQueueSize(1))

	first, err := q.Enqueue(context.Background(), doc)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, _ := q.Status(first.ID)
		return j.Status == constants.JobStatusRunning
	}, 5*time.Second, 5*time.Millisecond)

	_, err = q.Enqueue(context.Background(), doc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = q.Enqueue(ctx, doc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	q.mu.Lock()
	n := len(q.jobs)
	q.mu.Unlock()
	assert.Equal(t, 2, n)
}

func TestRunQueueShutdownDrains(t *testing.T) {
	store := session.NewStore()
	q := NewRunQueue(newProcessor(t, twoProjects, nil), store, nil, WithWorkers(2), WithQueueSize(4))

	var ids []string
	for i := 0; i < 3; i++ {
		j, err := q.Enqueue(context.Background(), doc)
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}
	q.Shutdown(context.Background())

	for _, id := range ids {
		j, ok := q.Status(id)
		require.True(t, ok)
		assert.Equal(t, constants.JobStatusSucceeded, j.Status)
	}

	_, err := q.Enqueue(context.Background(), doc)
	assert.ErrorIs(t, err, ErrQueueClosed)

	// a second shutdown is a no-op
	q.Shutdown(context.Background())
}

func TestRunQueueProcessTimeout(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	q := NewRunQueue(newProcessor(t, twoProjects, gate), nil, nil, WithProcessTimeout(20*time.Millisecond))
	defer q.Shutdown(context.Background())

	queued, err := q.Enqueue(context.Background(), doc)
	require.NoError(t, err)

	job := waitDone(t, q, queued.ID)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Equal(t, "Unavailable", job.ErrorCode)
	assert.Equal(t, constants.StageFailed, job.Stage)
	assert.True(t, strings.HasPrefix(job.Message, "Erreur:"), "message %q", job.Message)
	assert.InDelta(t, 0.3, job.Progress, 1e-9)
}

func TestRunQueueUnknownJob(t *testing.T) {
	q := NewRunQueue(newProcessor(t, twoProjects, nil), nil, nil)
	defer q.Shutdown(context.Background())

	_, ok := q.Status("inconnu")
	assert.False(t, ok)
}

func TestJobDone(t *testing.T) {
	for status, want := range map[constants.JobStatus]bool{
		constants.JobStatusQueued:    false,
		constants.JobStatusRunning:   false,
		constants.JobStatusSucceeded: true,
		constants.JobStatusFailed:    true,
	} {
		assert.Equal(t, want, Job{Status: status}.Done(), status)
	}
}
