package detection

import (
	"time"

	"github.com/okian/wildwatch/pkg/logger"
)

// DefaultModel is requested when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModel sets the model requested from the analyzer.
func WithModel(m string) Option {
	return func(s *Service) {
		if m != "" {
			s.model = m
		}
	}
}

// WithPublisher announces every persisted record.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}
