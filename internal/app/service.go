// Package service wires storage, the analysis client and the webhook
// pipeline into the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/wildwatch/internal/adapters/kvstore"
	eventqueue "github.com/okian/wildwatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/wildwatch/internal/adapters/mq/worker"
	"github.com/okian/wildwatch/internal/adapters/mqtt"
	"github.com/okian/wildwatch/internal/adapters/repository"
	"github.com/okian/wildwatch/internal/adapters/vibestream"
	"github.com/okian/wildwatch/internal/domain/dedupe"
	"github.com/okian/wildwatch/internal/domain/detection"
	"github.com/okian/wildwatch/internal/domain/extract"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

const (
	defaultWorkerCount   = 4
	defaultQueueSize     = 1024
	defaultDedupeSize    = 10_000
	defaultWatchInterval = 30
	defaultWebhookURL    = "http://localhost:9080/api/webhooks/vibestream"
	stopTimeout          = 30 * time.Second
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrQueueFull    = errors.New("webhook queue is full")
	ErrInvalidWatch = errors.New("youtube_url is required")
)

// Upstream is the remote analysis service.
type Upstream interface {
	detection.Analyzer
	StartWatch(ctx context.Context, req vibestream.WatchRequest) (vibestream.WatchResponse, error)
	ListJobs(ctx context.Context) (vibestream.JobList, error)
	CancelJob(ctx context.Context, id string) error
}

// WatchParams starts a monitoring job. Empty fields take service defaults.
type WatchParams struct {
	SourceURL       string
	Condition       string
	WebhookURL      string
	IntervalSeconds int
	Model           string
}

// Service implements the API dependencies for the detection dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      kvstore.Store
	repo       *repository.DetectionRepository
	upstream   Upstream
	detector   *detection.Service
	publisher  mqtt.Publisher
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// job id -> livestream URL for jobs started here
	jobs sync.Map

	// Configuration
	storeSettings  kvstore.Settings
	storeKey       string
	historyLimit   int
	vibestreamOpts []vibestream.Option
	model          string
	workerCount    int
	queueSize      int
	dedupeSize     int
	webhookURL     string
	watchInterval  int
	mqttSettings   mqtt.Settings

	started bool
	logger  logger.Logger
}

// New constructs a Service; nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{
		storeSettings: kvstore.Settings{Driver: kvstore.DriverMemory},
		storeKey:      repository.DefaultKey,
		historyLimit:  repository.DefaultLimit,
		model:         detection.DefaultModel,
		workerCount:   defaultWorkerCount,
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		webhookURL:    defaultWebhookURL,
		watchInterval: defaultWatchInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage and the publisher and starts the ingest workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting detection service...")

	if s.store == nil {
		st, err := kvstore.Open(ctx, s.storeSettings)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = st
		s.logger.Info(ctx, "store opened", logger.String("driver", s.storeSettings.Driver))
	}
	s.repo = repository.NewDetectionRepository(s.store,
		repository.WithKey(s.storeKey),
		repository.WithLimit(s.historyLimit),
		repository.WithLogger(s.logger.Named("repository")),
	)

	if s.upstream == nil {
		opts := append([]vibestream.Option{vibestream.WithLogger(s.logger.Named("vibestream"))}, s.vibestreamOpts...)
		s.upstream = vibestream.New(opts...)
	}

	if s.publisher == nil {
		pub, err := mqtt.New(ctx, s.mqttSettings, mqtt.WithLogger(s.logger.Named("mqtt")))
		if err != nil {
			// publication is optional, scans keep working without it
			s.logger.Warn(ctx, "mqtt publisher disabled", logger.Error(err))
			pub = mqtt.Noop{}
		}
		s.publisher = pub
	}

	s.detector = detection.New(s.upstream, s.repo,
		detection.WithModel(s.model),
		detection.WithPublisher(s.publisher),
		detection.WithLogger(s.logger.Named("detection")),
	)

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.detector,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithSourceResolver(s.jobSource),
	)
	// workers live until Stop drains the queue, not until the start ctx ends
	s.workerPool.Start(context.WithoutCancel(ctx))

	metrics.UpdateRepositoryRecords(len(s.repo.List(ctx)))

	s.started = true
	s.logger.Info(ctx, "detection service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("historyLimit", s.historyLimit),
	)
	return nil
}

// Stop drains the webhook queue and closes external resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping detection service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn(ctx, "publisher close", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "detection service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// RunScan performs one synchronous wildlife scan.
func (s *Service) RunScan(ctx context.Context, sourceURL string) (model.DetectionRecord, error) {
	if err := s.ready(); err != nil {
		return model.DetectionRecord{}, err
	}
	return s.detector.RunScan(ctx, sourceURL)
}

// Detections returns history newest first.
func (s *Service) Detections(ctx context.Context) []model.DetectionRecord {
	if s.ready() != nil {
		return []model.DetectionRecord{}
	}
	return s.repo.List(ctx)
}

// ClearDetections removes all history.
func (s *Service) ClearDetections(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "detection history cleared")
	return nil
}

// Stats aggregates history.
func (s *Service) Stats(ctx context.Context) model.StatsSnapshot {
	if s.ready() != nil {
		return model.StatsSnapshot{AnimalCounts: map[string]int{}}
	}
	return s.repo.Stats(ctx)
}

// Vocabulary lists the recognised species terms.
func (s *Service) Vocabulary() []string {
	return extract.Vocabulary()
}

// StartWatch starts a monitoring job and remembers its livestream so
// webhook deliveries without a URL can still be attributed.
func (s *Service) StartWatch(ctx context.Context, p WatchParams) (vibestream.WatchResponse, error) {
	if err := s.ready(); err != nil {
		return vibestream.WatchResponse{}, err
	}
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	if p.SourceURL == "" {
		return vibestream.WatchResponse{}, ErrInvalidWatch
	}
	if p.Condition == "" {
		p.Condition = detection.WildlifeCondition
	}
	if p.WebhookURL == "" {
		p.WebhookURL = s.webhookURL
	}
	if p.IntervalSeconds <= 0 {
		p.IntervalSeconds = s.watchInterval
	}
	if p.Model == "" {
		p.Model = s.model
	}

	resp, err := s.upstream.StartWatch(ctx, vibestream.WatchRequest{
		YouTubeURL:      p.SourceURL,
		Condition:       p.Condition,
		WebhookURL:      p.WebhookURL,
		IntervalSeconds: p.IntervalSeconds,
		Model:           p.Model,
	})
	if err != nil {
		return vibestream.WatchResponse{}, err
	}
	if resp.JobID != "" {
		s.jobs.Store(resp.JobID, p.SourceURL)
	}
	s.logger.Info(ctx, "monitoring job started",
		logger.String("job", resp.JobID),
		logger.String("url", p.SourceURL),
		logger.Int("interval", p.IntervalSeconds),
	)
	return resp, nil
}

// Jobs lists upstream monitoring jobs.
func (s *Service) Jobs(ctx context.Context) (vibestream.JobList, error) {
	if err := s.ready(); err != nil {
		return vibestream.JobList{}, err
	}
	return s.upstream.ListJobs(ctx)
}

// CancelJob stops a monitoring job.
func (s *Service) CancelJob(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.upstream.CancelJob(ctx, id); err != nil {
		return err
	}
	s.jobs.Delete(id)
	s.logger.Info(ctx, "monitoring job cancelled", logger.String("job", id))
	return nil
}

func (s *Service) jobSource(jobID string) string {
	if v, ok := s.jobs.Load(jobID); ok {
		return v.(string)
	}
	return ""
}

// Deliver accepts one webhook delivery. It reports duplicate=true for an
// id seen before. A full queue forgets the id again so the sender can
// retry and returns ErrQueueFull.
func (s *Service) Deliver(ctx context.Context, e model.WatchEvent) (duplicate bool, err error) { //nolint:gocritic // hugeParam: value semantics match the queue
	if err := s.ready(); err != nil {
		return false, err
	}
	if s.deduper.SeenAndRecord(ctx, e.DeliveryID) {
		metrics.RecordWebhookDelivery("duplicate")
		s.logger.Debug(ctx, "duplicate delivery skipped", logger.String("delivery", e.DeliveryID))
		return true, nil
	}
	if err := s.eventQueue.Enqueue(ctx, e); err != nil {
		s.deduper.Unrecord(ctx, e.DeliveryID)
		if errors.Is(err, eventqueue.ErrFull) {
			metrics.RecordWebhookDelivery("rejected")
			return false, ErrQueueFull
		}
		metrics.RecordWebhookDelivery("failed")
		return false, err
	}
	metrics.RecordWebhookDelivery("accepted")
	return false, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"historyLimit": s.historyLimit,
		"storeDriver":  s.storeSettings.Driver,
	}
	if s.started {
		queueLen := s.eventQueue.Len()
		records := len(s.repo.List(context.Background()))
		stats["queueLength"] = queueLen
		stats["records"] = records
		stats["dedupeEntries"] = s.deduper.Size()
		stats["processed"] = s.workerPool.Processed()
		stats["failed"] = s.workerPool.Failed()

		jobs := 0
		s.jobs.Range(func(_, _ any) bool { jobs++; return true })
		stats["trackedJobs"] = jobs

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryRecords(records)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
