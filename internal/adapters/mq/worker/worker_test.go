package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/wildwatch/internal/adapters/mq/queue"
	worker "github.com/okian/wildwatch/internal/adapters/mq/worker"
	"github.com/okian/wildwatch/internal/domain/detection"
	model "github.com/okian/wildwatch/internal/domain/model"
	logging "github.com/okian/wildwatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type ingestCall struct {
	res    detection.Analysis
	source string
}

type mockIngester struct {
	mu    sync.Mutex
	calls []ingestCall
	panic string
}

func (m *mockIngester) Ingest(_ context.Context, res detection.Analysis, sourceURL string) model.DetectionRecord {
	if m.panic != "" && res.Explanation == m.panic {
		panic("bad payload")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ingestCall{res: res, source: sourceURL})
	return model.DetectionRecord{ID: "det_" + res.Explanation}
}

func (m *mockIngester) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockIngester) times() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Time, len(m.calls))
	for _, c := range m.calls {
		out[c.res.Explanation] = c.res.At
	}
	return out
}

func (m *mockIngester) sources() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.calls))
	for _, c := range m.calls {
		out[c.res.Explanation] = c.source
	}
	return out
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		ing := &mockIngester{}
		jobs := map[string]string{"job-1": "https://youtu.be/registered"}
		pool := worker.NewPool(3, q, ing,
			worker.WithLogger(logging.Nop()),
			worker.WithSourceResolver(func(id string) string { return jobs[id] }),
		)
		pool.Start(ctx)
		scanned := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

		convey.Convey("When deliveries are queued and the pool shuts down", func() {
			convey.So(q.Enqueue(ctx, model.WatchEvent{DeliveryID: "1", Explanation: "a", SourceURL: "https://youtu.be/own"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, model.WatchEvent{DeliveryID: "2", Explanation: "b", JobID: "job-1"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, model.WatchEvent{DeliveryID: "3", Explanation: "c", JobID: "unknown", ScannedAt: scanned}), convey.ShouldBeNil)

			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then every delivery is ingested before exit", func() {
				convey.So(ing.count(), convey.ShouldEqual, 3)
				convey.So(pool.Processed(), convey.ShouldEqual, 3)
				convey.So(pool.Size(), convey.ShouldEqual, 3)
			})

			convey.Convey("And the source URL falls back to the registered job", func() {
				src := ing.sources()
				convey.So(src["a"], convey.ShouldEqual, "https://youtu.be/own")
				convey.So(src["b"], convey.ShouldEqual, "https://youtu.be/registered")
				convey.So(src["c"], convey.ShouldEqual, "")
			})

			convey.Convey("And the upstream scan time is handed to the ingester", func() {
				at := ing.times()
				convey.So(at["c"].Equal(scanned), convey.ShouldBeTrue)
				convey.So(at["a"].IsZero(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPoolSurvivesPanics(t *testing.T) {
	convey.Convey("Given an ingester that panics on one payload", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		ing := &mockIngester{panic: "boom"}
		pool := worker.NewPool(1, q, ing, worker.WithLogger(logging.Nop()))
		pool.Start(ctx)

		_ = q.Enqueue(ctx, model.WatchEvent{DeliveryID: "1", Explanation: "boom"})
		_ = q.Enqueue(ctx, model.WatchEvent{DeliveryID: "2", Explanation: "fine"})
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then the worker keeps going", func() {
			convey.So(pool.Failed(), convey.ShouldEqual, 1)
			convey.So(pool.Processed(), convey.ShouldEqual, 1)
			convey.So(ing.count(), convey.ShouldEqual, 1)
		})
	})
}

func TestPoolContextCancel(t *testing.T) {
	convey.Convey("Given a started pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(2, q, &mockIngester{}, worker.WithLogger(logging.Nop()))
		pool.Start(ctx)
		pool.Start(ctx)

		convey.Convey("When the parent context is cancelled", func() {
			cancel()

			convey.Convey("Then shutdown returns promptly", func() {
				done := make(chan error, 1)
				go func() { done <- pool.Shutdown(context.Background()) }()
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(2 * time.Second):
					t.Fatal("shutdown did not return")
				}
			})
		})
	})
}

func TestShutdownWithoutStart(t *testing.T) {
	convey.Convey("Given a pool that never started", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, &mockIngester{}, worker.WithLogger(logging.Nop()))

		convey.Convey("Then shutdown only closes the queue", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
			convey.So(pool.Size(), convey.ShouldEqual, 4)
		})
	})
}
