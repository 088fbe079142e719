package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/wildwatch/internal/adapters/kvstore"
	"github.com/okian/wildwatch/internal/domain/model"
	"github.com/okian/wildwatch/pkg/logger"
	"github.com/okian/wildwatch/pkg/metrics"
)

const (
	idPrefix       = "det_"
	idSuffixLength = 9
	base36Digits   = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// DetectionRepository keeps history as one JSON array under a single key.
// A nil store turns every write into a no-op and every read into empty.
type DetectionRepository struct {
	store kvstore.Store
	key   string
	limit int
	now   func() time.Time
	log   logger.Logger

	// serialises the read-modify-write cycle within this process
	mu sync.Mutex
}

var _ Store = (*DetectionRepository)(nil)

// NewDetectionRepository builds a repository over store.
func NewDetectionRepository(store kvstore.Store, opts ...Option) *DetectionRepository {
	r := &DetectionRepository{
		store: store,
		key:   DefaultKey,
		limit: DefaultLimit,
		now:   time.Now,
		log:   logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns history newest first, or empty on absent or unreadable data.
func (r *DetectionRepository) List(ctx context.Context) []model.DetectionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// load must be called with mu held.
func (r *DetectionRepository) load(ctx context.Context) []model.DetectionRecord {
	empty := []model.DetectionRecord{}
	if r.store == nil {
		return empty
	}
	start := time.Now()
	raw, err := r.store.Get(ctx, r.key)
	metrics.RecordRepositoryReadLatency(float64(time.Since(start).Milliseconds()))
	if errors.Is(err, kvstore.ErrNotFound) {
		return empty
	}
	if err != nil {
		metrics.RecordRepositoryReadError()
		r.log.Warn(ctx, "history read failed", logger.Error(err))
		return empty
	}

	var recs []model.DetectionRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		metrics.RecordRepositoryReadError()
		r.log.Warn(ctx, "history data is malformed", logger.Error(err))
		return empty
	}
	if recs == nil {
		return empty
	}
	for i := range recs {
		if recs[i].Sightings == nil {
			recs[i].Sightings = []model.AnimalSighting{}
		}
	}
	return recs
}

// Save prepends rec and rewrites the whole history.
func (r *DetectionRepository) Save(ctx context.Context, rec model.DetectionRecord) error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.load(ctx)
	next := make([]model.DetectionRecord, 0, min(len(prev)+1, r.limit))
	next = append(next, rec)
	next = append(next, prev...)
	if len(next) > r.limit {
		next = next[:r.limit]
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	start := time.Now()
	err = r.store.Set(ctx, r.key, raw)
	metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRepositoryWriteError()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	metrics.UpdateRepositoryRecords(len(next))
	return nil
}

// Clear removes the history key.
func (r *DetectionRepository) Clear(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Remove(ctx, r.key); err != nil {
		metrics.RecordRepositoryWriteError()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	metrics.UpdateRepositoryRecords(0)
	return nil
}

// Stats counts records and per-species animals. A sighting contributes its
// count when present, otherwise one.
func (r *DetectionRepository) Stats(ctx context.Context) model.StatsSnapshot {
	recs := r.List(ctx)
	snap := model.StatsSnapshot{Total: len(recs), AnimalCounts: make(map[string]int)}
	for _, rec := range recs {
		for _, s := range rec.Sightings {
			snap.AnimalCounts[s.Name] += s.Tally()
		}
	}
	return snap
}

// NewID returns det_<unix millis>_<9 random base36 chars>.
func (r *DetectionRepository) NewID() string {
	var b strings.Builder
	b.Grow(len(idPrefix) + 14 + 1 + idSuffixLength)
	b.WriteString(idPrefix)
	b.WriteString(strconv.FormatInt(r.now().UnixMilli(), 10))
	b.WriteByte('_')
	for range idSuffixLength {
		b.WriteByte(base36Digits[rand.IntN(len(base36Digits))])
	}
	return b.String()
}
