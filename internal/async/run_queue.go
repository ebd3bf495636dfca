package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
	"github.com/joseph-ayodele/rex-zones-humides/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("run queue is shutting down")

// Starter launches a background pipeline run.
type Starter interface {
	Start(ctx context.Context, doc entity.RawDocument) *pipeline.Run
}

// ResultStore receives every successful result.
type ResultStore interface {
	Replace(res *entity.PipelineResult) *entity.PipelineResult
}

type task struct {
	id  string
	doc entity.RawDocument
}

// RunQueue executes pipeline runs on a fixed pool of workers and tracks the
// status of each job.
type RunQueue struct {
	proc    Starter
	store   ResultStore
	logger  *slog.Logger
	workers int
	timeout time.Duration
	now     func() time.Time

	ch   chan task
	wg   sync.WaitGroup
	once sync.Once

	// sendMu guards closed and sends on ch; workers only take mu.
	sendMu sync.Mutex
	closed bool

	mu   sync.Mutex
	jobs map[string]*Job
}

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan task, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(proc Starter, store ResultStore, logger *slog.Logger, opts ...Option) *RunQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &RunQueue{
		proc:    proc,
		store:   store,
		logger:  logger,
		workers: 1,
		timeout: 30 * time.Minute,
		now:     time.Now,
		ch:      make(chan task, 16),
		jobs:    map[string]*Job{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)
				for t := range q.ch {
					q.execute(workerID, t)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RunQueue) execute(workerID int, t task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithRunID(ctx, t.id)

	q.update(t.id, func(j *Job) {
		now := q.now()
		j.Status = constants.JobStatusRunning
		j.StartedAt = &now
	})

	run := q.proc.Start(ctx, t.doc)
	for ev := range run.Events() {
		q.update(t.id, func(j *Job) {
			j.Stage = ev.Stage
			j.Progress = ev.Progress
			j.Message = ev.Status
		})
	}
	res, err := run.Wait()
	// Events stops delivering once ctx is done; the history still holds the final event.
	final, hasFinal := lastEvent(run.History())

	q.update(t.id, func(j *Job) {
		now := q.now()
		j.FinishedAt = &now
		if hasFinal {
			j.Stage = final.Stage
			j.Progress = final.Progress
			j.Message = final.Status
		}
		if err != nil {
			j.Status = constants.JobStatusFailed
			j.Error = common.UserMessage(err)
			j.ErrorCode = common.GRPCCode(err).String()
			return
		}
		j.Status = constants.JobStatusSucceeded
		j.Projects = len(res.Projects)
	})

	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", t.id, "filename", t.doc.Filename, "error", err)
		return
	}
	if q.store != nil {
		q.store.Replace(res)
	}
	q.logger.Info("queue.job.ok", "worker_id", workerID, "job_id", t.id, "filename", t.doc.Filename, "projects", len(res.Projects))
}

func lastEvent(evs []pipeline.Event) (pipeline.Event, bool) {
	if len(evs) == 0 {
		return pipeline.Event{}, false
	}
	return evs[len(evs)-1], true
}

func (q *RunQueue) update(id string, fn func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok {
		fn(j)
	}
}

// Enqueue registers a job for doc and blocks while the queue is full.
func (q *RunQueue) Enqueue(ctx context.Context, doc entity.RawDocument) (Job, error) {
	q.sendMu.Lock()
	defer q.sendMu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "filename", doc.Filename)
		return Job{}, ErrQueueClosed
	}
	t := task{id: uuid.New().String(), doc: doc}
	job := Job{
		ID:          t.id,
		Filename:    doc.Filename,
		Status:      constants.JobStatusQueued,
		Stage:       constants.StageIdle,
		SubmittedAt: q.now(),
	}
	q.mu.Lock()
	q.jobs[t.id] = &job
	snapshot := job
	q.mu.Unlock()

	select {
	case q.ch <- t:
	default:
		q.logger.Warn("queue full, applying backpressure", "filename", doc.Filename)
		select {
		case q.ch <- t:
		case <-ctx.Done():
			q.mu.Lock()
			delete(q.jobs, t.id)
			q.mu.Unlock()
			return Job{}, ctx.Err()
		}
	}
	q.logger.Info("queue.enqueue.ok", "job_id", t.id, "filename", doc.Filename)
	return snapshot, nil
}

// Status returns a snapshot of the job.
func (q *RunQueue) Status(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (q *RunQueue) Shutdown(ctx context.Context) {
	q.sendMu.Lock()
	if q.closed {
		q.sendMu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.sendMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
