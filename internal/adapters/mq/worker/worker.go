// Package worker runs the pool that turns queued webhook deliveries into
// detection records.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/okian/wildwatch/internal/adapters/mq/queue"
	"github.com/okian/wildwatch/internal/domain/detection"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

const defaultWorkerCount = 4

// Event is what workers read off the queue.
type Event = queue.Event

// Ingester records an analysis that arrived asynchronously.
type Ingester interface {
	Ingest(ctx context.Context, res detection.Analysis, sourceURL string) model.DetectionRecord
}

// SourceResolver maps a job id to the livestream it watches.
type SourceResolver func(jobID string) string

// Queue defines how workers receive events.
type Queue interface {
	Dequeue() <-chan Event
}

// InMemoryWorker processes events from a queue until it is closed or the
// context ends.
type InMemoryWorker struct {
	queue    Queue
	ingester Ingester
	resolve  SourceResolver
	name     string
	logger   logger.Logger

	processed *atomic.Int64
	failed    *atomic.Int64
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, ing Ingester, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		ingester:  ing,
		name:      "worker",
		logger:    logger.Get().Named("worker"),
		processed: &atomic.Int64{},
		failed:    &atomic.Int64{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run consumes events until the queue closes or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	events := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if m, ok := w.queue.(interface{ MarkDequeued() }); ok {
				m.MarkDequeued()
			}
			if err := w.process(ctx, e); err != nil {
				w.failed.Add(1)
				metrics.RecordWorkerError()
				w.logger.Error(ctx, "error processing delivery", logger.Error(err))
				continue
			}
			w.processed.Add(1)
		}
	}
}

// process ingests one delivery. A panic in the ingester is turned into an
// error so one bad payload does not stop the worker.
func (w *InMemoryWorker) process(ctx context.Context, e Event) (err error) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			err = fmt.Errorf("ingest delivery %s: panic: %v", e.DeliveryID, r)
		}
	}()

	source := e.SourceURL
	if source == "" && w.resolve != nil && e.JobID != "" {
		source = w.resolve(e.JobID)
	}
	rec := w.ingester.Ingest(ctx, detection.Analysis{
		Triggered:   e.Triggered,
		Explanation: e.Explanation,
		Model:       e.Model,
		Frame:       e.Frame,
		At:          e.ScannedAt,
	}, source)

	w.logger.Debug(ctx, "delivery ingested",
		logger.String("delivery", e.DeliveryID),
		logger.String("job", e.JobID),
		logger.String("record", rec.ID),
	)
	return nil
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	wg      conc.WaitGroup
	cancel  context.CancelFunc
	started atomic.Bool

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates workerCount workers sharing q and ing.
func NewPool(workerCount int, q Queue, ing Ingester, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, ing, wopts...)
		w.processed = &p.processed
		w.failed = &p.failed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker. Calling it twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Go(func() { w.Run(ctx) })
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, lets workers drain what is left and waits for
// them. When ctx ends first the workers are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if r := p.wg.WaitAndRecover(); r != nil {
			p.logger.Error(context.Background(), "worker panicked", logger.String("panic", r.String()))
		}
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many deliveries were ingested.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many deliveries failed.
func (p *Pool) Failed() int64 { return p.failed.Load() }
