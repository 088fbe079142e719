package repository

import (
	"time"

	"github.com/okian/wildwatch/pkg/logger"
)

// Default repository settings.
const (
	DefaultKey   = "wildlife_detections"
	DefaultLimit = 100
)

// Option applies a configuration option to the DetectionRepository.
type Option func(*DetectionRepository)

// WithKey sets the storage key that holds the history.
func WithKey(key string) Option {
	return func(r *DetectionRepository) {
		if key != "" {
			r.key = key
		}
	}
}

// WithLimit sets the maximum number of retained records.
func WithLimit(n int) Option {
	return func(r *DetectionRepository) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithClock overrides the time source used by NewID.
func WithClock(now func() time.Time) Option {
	return func(r *DetectionRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *DetectionRepository) {
		if l != nil {
			r.log = l
		}
	}
}
