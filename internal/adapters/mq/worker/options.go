package worker

import (
	"github.com/okian/wildwatch/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSourceResolver sets the job to livestream lookup used when a
// delivery carries no URL.
func WithSourceResolver(r SourceResolver) Option {
	return func(w *InMemoryWorker) {
		if r != nil {
			w.resolve = r
		}
	}
}
