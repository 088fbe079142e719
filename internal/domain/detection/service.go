// Package detection runs wildlife scans: ask the analyzer about one frame,
// extract sightings and record the result.
package detection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/wildwatch/internal/domain/extract"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

// AnalyzeRequest is one single-frame analysis call.
type AnalyzeRequest struct {
	SourceURL string
	Condition string
	Model     string
}

// Analysis is what the analyzer said about a frame.
type Analysis struct {
	Triggered   bool
	Explanation string
	Model       string
	Frame       string
	At          time.Time // upstream analysis time, zero means now
}

// Analyzer inspects one frame of a livestream.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error)
}

// Repository is the slice of history storage a scan needs.
type Repository interface {
	Save(ctx context.Context, rec model.DetectionRecord) error
	NewID() string
}

// Publisher announces persisted records.
type Publisher interface {
	Publish(ctx context.Context, rec model.DetectionRecord) error
}

// Service turns analyses into detection records.
type Service struct {
	analyzer Analyzer
	repo     Repository
	pub      Publisher
	model    string
	now      func() time.Time
	log      logger.Logger
}

// New builds a Service.
func New(analyzer Analyzer, repo Repository, opts ...Option) *Service {
	s := &Service{
		analyzer: analyzer,
		repo:     repo,
		model:    DefaultModel,
		now:      time.Now,
		log:      logger.Get().Named("detection"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunScan analyses one frame of sourceURL and records the result. An empty
// URL fails with ErrInvalidURL before any network call. Analyzer failures
// are wrapped in ErrScanFailed and leave history untouched.
func (s *Service) RunScan(ctx context.Context, sourceURL string) (model.DetectionRecord, error) {
	start := time.Now()
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		metrics.RecordScan(metrics.ResultInvalid)
		return model.DetectionRecord{}, ErrInvalidURL
	}

	res, err := s.analyzer.Analyze(ctx, AnalyzeRequest{
		SourceURL: sourceURL,
		Condition: WildlifeCondition,
		Model:     s.model,
	})
	if err != nil {
		metrics.RecordScan(metrics.ResultFailed)
		metrics.RecordErrorByComponent("detection", "upstream")
		s.log.Error(ctx, "scan failed", logger.String("url", sourceURL), logger.Error(err))
		return model.DetectionRecord{}, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	rec := s.record(ctx, sourceURL, res)
	metrics.RecordScan(metrics.ResultSuccess)
	metrics.RecordScanLatency(float64(time.Since(start).Milliseconds()))
	return rec, nil
}

// Ingest records an analysis that arrived asynchronously, e.g. from a
// monitoring job webhook. A non-zero res.At becomes the record timestamp.
func (s *Service) Ingest(ctx context.Context, res Analysis, sourceURL string) model.DetectionRecord {
	return s.record(ctx, strings.TrimSpace(sourceURL), res)
}

func (s *Service) record(ctx context.Context, sourceURL string, res Analysis) model.DetectionRecord {
	sightings := extract.Extract(res.Explanation)
	at := res.At
	if at.IsZero() {
		at = s.now()
	}
	rec := model.DetectionRecord{
		ID:          s.repo.NewID(),
		Timestamp:   at.UTC(),
		SourceURL:   sourceURL,
		Sightings:   sightings,
		Triggered:   res.Triggered,
		Explanation: res.Explanation,
		Frame:       res.Frame,
		Model:       res.Model,
	}

	if rec.Triggered {
		metrics.RecordScanTriggered()
	}
	for _, a := range sightings {
		metrics.RecordSighting(a.Name, string(a.Confidence))
	}

	// storage trouble must not fail the scan
	if err := s.repo.Save(ctx, rec); err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		s.log.Warn(ctx, "detection not persisted", logger.String("id", rec.ID), logger.Error(err))
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, rec); err != nil {
			s.log.Warn(ctx, "detection not published", logger.String("id", rec.ID), logger.Error(err))
		}
	}

	s.log.Info(ctx, "detection recorded",
		logger.String("id", rec.ID),
		logger.Int("sightings", len(sightings)),
		logger.Bool("triggered", rec.Triggered),
	)
	return rec
}
