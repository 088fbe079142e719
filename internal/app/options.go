package service

import (
	"github.com/okian/wildwatch/internal/adapters/kvstore"
	"github.com/okian/wildwatch/internal/adapters/mqtt"
	"github.com/okian/wildwatch/internal/adapters/vibestream"
	"github.com/okian/wildwatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStoreSettings selects the key-value backend opened on Start.
func WithStoreSettings(s kvstore.Settings) Option {
	return func(svc *Service) {
		svc.storeSettings = s
	}
}

// WithStore uses an already opened store. The service closes it on Stop.
func WithStore(st kvstore.Store) Option {
	return func(svc *Service) {
		if st != nil {
			svc.store = st
		}
	}
}

// WithStoreKey sets the key holding detection history.
func WithStoreKey(key string) Option {
	return func(svc *Service) {
		if key != "" {
			svc.storeKey = key
		}
	}
}

// WithHistoryLimit caps retained detections.
func WithHistoryLimit(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.historyLimit = n
		}
	}
}

// WithUpstream replaces the VibeStream client.
func WithUpstream(u Upstream) Option {
	return func(svc *Service) {
		if u != nil {
			svc.upstream = u
		}
	}
}

// WithVibeStreamOptions configures the default VibeStream client.
func WithVibeStreamOptions(opts ...vibestream.Option) Option {
	return func(svc *Service) {
		svc.vibestreamOpts = append(svc.vibestreamOpts, opts...)
	}
}

// WithModel sets the analysis model.
func WithModel(m string) Option {
	return func(svc *Service) {
		if m != "" {
			svc.model = m
		}
	}
}

// WithWorkerCount sets the number of webhook ingest workers.
func WithWorkerCount(count int) Option {
	return func(svc *Service) {
		if count > 0 {
			svc.workerCount = count
		}
	}
}

// WithQueueSize sets the webhook queue capacity.
func WithQueueSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.queueSize = size
		}
	}
}

// WithDedupeSize sets how many delivery ids are remembered.
func WithDedupeSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.dedupeSize = size
		}
	}
}

// WithWebhookURL sets the callback URL registered with new jobs.
func WithWebhookURL(u string) Option {
	return func(svc *Service) {
		if u != "" {
			svc.webhookURL = u
		}
	}
}

// WithWatchInterval sets the default sampling interval for new jobs.
func WithWatchInterval(seconds int) Option {
	return func(svc *Service) {
		if seconds > 0 {
			svc.watchInterval = seconds
		}
	}
}

// WithMQTT configures detection publication.
func WithMQTT(s mqtt.Settings) Option {
	return func(svc *Service) {
		svc.mqttSettings = s
	}
}

// WithPublisher replaces the MQTT publisher.
func WithPublisher(p mqtt.Publisher) Option {
	return func(svc *Service) {
		if p != nil {
			svc.publisher = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}
