package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agileflow/user-service/internal/api/metrics"
)

const channelBuffer = 256

// ErrStopped is returned by Run once the dispatcher's context is done.
var ErrStopped = errors.New("dispatcher stopped")

type job struct {
	ctx  context.Context
	fn   func()
	done chan struct{}
	ran  bool // set before done is closed
}

// Dispatcher runs CPU-bound jobs on a fixed set of workers so that at most
// numWorkers of them execute at once, regardless of request concurrency.
type Dispatcher struct {
	jobs    chan *job
	workers int
	stopped chan struct{}
	once    sync.Once
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, GOMAXPROCS is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{
		jobs:    make(chan *job, channelBuffer),
		workers: numWorkers,
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
// Calling Start more than once has no effect.
func (d *Dispatcher) Start(ctx context.Context) {
	d.once.Do(func() {
		for i := 0; i < d.workers; i++ {
			go d.runWorker(ctx, i)
		}
		go func() {
			<-ctx.Done()
			close(d.stopped)
		}()
	})
}

// Run queues fn and blocks until a worker has executed it, ctx is done, or
// the dispatcher stops. A job whose ctx is done by the time a worker picks it
// up is dropped without running. When Run returns an error the caller must
// not read anything fn writes: a job already picked up may still be running.
func (d *Dispatcher) Run(ctx context.Context, fn func()) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}

	j := &job{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	case d.jobs <- j:
		metrics.HashQueueDepth.Set(float64(len(d.jobs)))
	}

	select {
	case <-j.done:
		if !j.ran {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.jobs:
			metrics.HashQueueDepth.Set(float64(len(d.jobs)))
			d.exec(id, j)
		}
	}
}

func (d *Dispatcher) exec(id int, j *job) {
	defer close(j.done)
	if j.ctx.Err() != nil {
		return
	}
	j.ran = true
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Int("worker_id", id).
				Msg("dispatcher job panicked")
		}
	}()
	j.fn()
}
