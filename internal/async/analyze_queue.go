package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/docuvault/docintel/internal/intel"
)

// Analyzer is the subset of the intelligence engine the queue drives.
type Analyzer interface {
	GetIntelligence(ctx context.Context, path string, forceRefresh bool) (*intel.IntelligenceResult, error)
}

// AnalyzeQueue fans queued documents out to a bounded set of workers. The
// engine's own cache and single-flight layers make duplicate submissions
// cheap, so callers can enqueue freely.
type AnalyzeQueue struct {
	engine  Analyzer
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*AnalyzeQueue)

func WithWorkers(n int) Option {
	return func(q *AnalyzeQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *AnalyzeQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *AnalyzeQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewAnalyzeQueue(engine Analyzer, logger *slog.Logger, opts ...Option) *AnalyzeQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &AnalyzeQueue{
		engine:  engine,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *AnalyzeQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res, err := q.engine.GetIntelligence(ctx, job.Path, job.Force)
					cancel()

					if err != nil {
						q.logger.Error("async.analyze.failed",
							"worker_id", workerID, "path", job.Path, "error", err)
					} else {
						q.logger.Info("async.analyze.done",
							"worker_id", workerID, "path", job.Path, "mode", res.Metadata.Mode)
					}
					if job.OnDone != nil {
						job.OnDone(res, err)
					}
				}

				q.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *AnalyzeQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.rejected", "path", job.Path, "reason", "shutting down")
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("async.enqueue.ok", "path", job.Path, "force", job.Force)
	default:
		q.logger.Warn("async.enqueue.backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Shutdown closes the queue and waits for in-flight jobs, or gives up when
// the context expires.
func (q *AnalyzeQueue) Shutdown(ctx context.Context) {
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
		q.logger.Debug("async.shutdown.drained")
	}
}
