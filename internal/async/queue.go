package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one discovered document waiting to be processed.
type Job struct {
	Document    entity.Document
	SubmittedAt time.Time
}

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	ProcessFile(ctx context.Context, doc entity.Document) entity.Outcome
}

// ProcessorQueue feeds documents to a processor from a buffered channel.
// A single worker drains it, so sink writes keep discovery order.
type ProcessorQueue struct {
	proc    DocumentProcessor
	logger  *slog.Logger
	timeout time.Duration
	report  func(entity.Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithReporter receives every outcome after processing.
func WithReporter(fn func(entity.Outcome)) Option {
	return func(q *ProcessorQueue) { q.report = fn }
}

func NewProcessorQueue(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Debug("async.worker.started")

			for job := range q.ch {
				ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
				out := q.proc.ProcessFile(ctx, job.Document)
				cancel()

				q.logger.Debug("async.job.done",
					"file", job.Document.Name,
					"status", out.Status,
					"elapsed_ms", out.Duration.Milliseconds(),
					"waited_ms", time.Since(job.SubmittedAt).Milliseconds(),
				)
				if q.report != nil {
					q.report(out)
				}
			}

			q.logger.Debug("async.worker.stopped")
		}()
	})
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "file", job.Document.Name)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("async.enqueue.ok", "file", job.Document.Name)
		return nil
	default:
	}
	q.logger.Warn("async.enqueue.backpressure", "file", job.Document.Name)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.drained")
	}
}
