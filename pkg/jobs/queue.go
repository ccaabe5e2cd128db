package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Enqueue once Close has been called.
var ErrClosed = errors.New("queue closed")

// Job is one unit of background work.
type Job struct {
	ID      string
	Payload interface{}
	Attempt int
}

// Handler processes a job. A returned error schedules a retry until MaxRetries is exhausted.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Stats counts terminal job results.
type Stats struct {
	Succeeded int64
	Failed    int64
}

// Queue fans jobs out to a fixed number of goroutines. Retries happen on the
// worker that picked the job up, so Close waits for them too.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs      chan Job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
	closed    bool
	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{name: name, handler: handler, cfg: cfg, jobs: make(chan Job, cfg.BufferSize)}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i+1)
	}
	q.cfg.Logger.Debug("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Enqueue blocks until the job is buffered, ctx is done, or the queue is closed.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("queue %s: %w", q.name, ErrClosed)
	}
	if !q.started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

// Close stops accepting jobs and waits until every buffered job reached a terminal result.
func (q *Queue) Close() Stats {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	started := q.started
	q.mu.Unlock()

	if started {
		q.wg.Wait()
	}
	stats := Stats{Succeeded: q.succeeded.Load(), Failed: q.failed.Load()}
	q.cfg.Logger.Debug("queue drained", zap.String("queue", q.name), zap.Int64("succeeded", stats.Succeeded), zap.Int64("failed", stats.Failed))
	return stats
}

func (q *Queue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()
	for job := range q.jobs {
		if ctx.Err() != nil {
			q.failed.Add(1)
			continue
		}
		q.process(ctx, workerID, job)
	}
}

func (q *Queue) process(ctx context.Context, workerID int, job Job) {
	for {
		err := q.handler(ctx, job)
		if err == nil {
			q.succeeded.Add(1)
			return
		}
		if job.Attempt >= q.cfg.MaxRetries || ctx.Err() != nil {
			q.failed.Add(1)
			q.cfg.Logger.Error("job failed",
				zap.String("queue", q.name),
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err),
			)
			return
		}
		job.Attempt++
		q.cfg.Logger.Warn("job failed, retrying",
			zap.String("queue", q.name),
			zap.Int("worker", workerID),
			zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)

		timer := time.NewTimer(q.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}
