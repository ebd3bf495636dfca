package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// Run is a pipeline run executing in the background.
type Run struct {
	ID string

	out  chan Event
	done chan struct{}

	mu      sync.Mutex
	history []Event
	result  *entity.PipelineResult
	err     error
}

// Start runs Process in a goroutine. Events() delivers every event in order and
// is closed after the last one. Process never waits on the reader; buffered
// events are released once they are drained or ctx is cancelled.
func (p *Processor) Start(ctx context.Context, doc entity.RawDocument) *Run {
	id := common.RunIDFromContext(ctx)
	if id == "" {
		id = uuid.New().String()
		ctx = common.WithRunID(ctx, id)
	}
	r := &Run{ID: id, out: make(chan Event), done: make(chan struct{})}

	in := make(chan Event)
	go r.forward(ctx, in)
	go func() {
		res, err := p.Process(ctx, doc, in)
		close(in)
		r.mu.Lock()
		r.result, r.err = res, err
		r.mu.Unlock()
		close(r.done)
	}()
	return r
}

// forward buffers events without bound so that Process never waits on a slow reader.
func (r *Run) forward(ctx context.Context, in <-chan Event) {
	defer close(r.out)
	var (
		queue     []Event
		done      = ctx.Done()
		cancelled bool
	)
	for in != nil || (len(queue) > 0 && !cancelled) {
		var (
			send chan Event
			next Event
		)
		if len(queue) > 0 {
			send, next = r.out, queue[0]
		}
		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			r.mu.Lock()
			r.history = append(r.history, ev)
			r.mu.Unlock()
			queue = append(queue, ev)
		case send <- next:
			queue = queue[1:]
		case <-done:
			done, cancelled = nil, true
		}
	}
}

// Events returns the ordered event stream of the run.
func (r *Run) Events() <-chan Event {
	return r.out
}

// History returns the events received so far.
func (r *Run) History() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.history))
	copy(out, r.history)
	return out
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its outcome.
func (r *Run) Wait() (*entity.PipelineResult, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}
