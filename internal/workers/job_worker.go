// Package workers drains the in-memory job queues on background goroutines.
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog-service/internal/metrics"
	"catalog-service/internal/queue"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultConcurrency is the number of goroutines per worker pool
const DefaultConcurrency = 2

// HandlerFunc processes a single job id
type HandlerFunc func(ctx context.Context, id uuid.UUID) error

// JobWorker runs a fixed pool of goroutines pulling ids from one queue.
// A failing or panicking job is logged and counted; the pool keeps going.
type JobWorker struct {
	kind        string
	queue       *queue.Queue[uuid.UUID]
	handler     HandlerFunc
	concurrency int
	logger      *logrus.Entry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stats   WorkerStats
}

// WorkerStats tracks job outcomes.
type WorkerStats struct {
	Processed   int64     `json:"processed"`
	Failed      int64     `json:"failed"`
	LastJobAt   time.Time `json:"lastJobAt,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	QueueLength int       `json:"queueLength"`
}

// NewJobWorker creates a worker pool for one job kind.
func NewJobWorker(kind string, q *queue.Queue[uuid.UUID], handler HandlerFunc, concurrency int, logger *logrus.Logger) *JobWorker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &JobWorker{
		kind:        kind,
		queue:       q,
		handler:     handler,
		concurrency: concurrency,
		logger:      logger.WithFields(logrus.Fields{"component": "job_worker", "kind": kind}),
	}
}

// Start launches the pool. It returns immediately.
func (w *JobWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(runCtx, i)
	}
	w.logger.WithField("concurrency", w.concurrency).Info("Job worker started")
}

// Stop cancels the pool and waits for in-flight jobs to return.
func (w *JobWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("Job worker stopped")
}

// IsRunning returns whether the pool is running.
func (w *JobWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns the current job statistics.
func (w *JobWorker) Stats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	stats := w.stats
	stats.QueueLength = w.queue.Len()
	return stats
}

func (w *JobWorker) run(ctx context.Context, slot int) {
	defer w.wg.Done()

	for {
		metrics.QueueDepth.WithLabelValues(w.kind).Set(float64(w.queue.Len()))

		id, err := w.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, queue.ErrClosed) {
				w.logger.WithError(err).WithField("slot", slot).Error("Dequeue failed")
			}
			return
		}

		err = w.handle(ctx, id)
		w.record(err)
		if err != nil && ctx.Err() == nil {
			w.logger.WithError(err).WithField("job_id", id).Error("Job failed")
		}
	}
}

// handle runs the handler, turning a panic into an error
func (w *JobWorker) handle(ctx context.Context, id uuid.UUID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return w.handler(ctx, id)
}

func (w *JobWorker) record(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastJobAt = time.Now()
	if err != nil {
		w.stats.Failed++
		w.stats.LastError = err.Error()
		return
	}
	w.stats.Processed++
}
