// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// PublicURL is where VibeStream can reach this service; webhook URLs
	// for monitoring jobs are derived from it.
	PublicURL string `koanf:"public_url"`

	VibeStreamURL       string `koanf:"vibestream_url"`
	VibeStreamModel     string `koanf:"vibestream_model"`
	VibeStreamTimeoutMS int    `koanf:"vibestream_timeout_ms"`

	// StoreDriver selects memory, file, sqlite, redis or postgres.
	StoreDriver string `koanf:"store_driver"`
	StorePath   string `koanf:"store_path"`
	StoreDSN    string `koanf:"store_dsn"`
	StoreKey    string `koanf:"store_key"`
	// HistoryLimit caps retained detections.
	HistoryLimit int `koanf:"history_limit"`

	WebhookQueueSize   int `koanf:"webhook_queue_size"`
	WebhookWorkerCount int `koanf:"webhook_worker_count"`
	WebhookDedupeSize  int `koanf:"webhook_dedupe_size"`

	// WatchIntervalSeconds is the default sampling interval for new jobs.
	WatchIntervalSeconds int `koanf:"watch_interval_seconds"`

	// MQTT publication is disabled when MQTTBroker is empty.
	MQTTBroker   string `koanf:"mqtt_broker"`
	MQTTTopic    string `koanf:"mqtt_topic"`
	MQTTClientID string `koanf:"mqtt_client_id"`
	MQTTUsername string `koanf:"mqtt_username"`
	MQTTPassword string `koanf:"mqtt_password"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		PublicURL:            "http://localhost:9080",
		VibeStreamURL:        "https://vibestream.machinefi.com",
		VibeStreamModel:      "gemini-2.5-flash",
		VibeStreamTimeoutMS:  60_000,
		StoreDriver:          "sqlite",
		StorePath:            "wildwatch.db",
		StoreKey:             "wildlife_detections",
		HistoryLimit:         100,
		WebhookQueueSize:     1024,
		WebhookWorkerCount:   4,
		WebhookDedupeSize:    10_000,
		WatchIntervalSeconds: 30,
		MQTTTopic:            "wildwatch/detections",
		MQTTClientID:         "wildwatch",
	}
}

// VibeStreamTimeout returns the upstream timeout as a duration.
func (c *Config) VibeStreamTimeout() time.Duration {
	return time.Duration(c.VibeStreamTimeoutMS) * time.Millisecond
}

// WebhookURL is the callback URL registered with monitoring jobs.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.PublicURL, "/") + "/api/webhooks/vibestream"
}

var knownDrivers = map[string]bool{"memory": true, "file": true, "sqlite": true, "redis": true, "postgres": true}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case !knownDrivers[strings.ToLower(c.StoreDriver)]:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case (c.StoreDriver == "redis" || c.StoreDriver == "postgres") && c.StoreDSN == "":
		return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
	case c.StoreKey == "":
		return fmt.Errorf("%w: store_key must not be empty", ErrInvalidConfig)
	case c.HistoryLimit < 1:
		return fmt.Errorf("%w: history_limit must be positive", ErrInvalidConfig)
	case c.WebhookQueueSize < 1 || c.WebhookWorkerCount < 1:
		return fmt.Errorf("%w: webhook queue and worker count must be positive", ErrInvalidConfig)
	case c.VibeStreamTimeoutMS < 1:
		return fmt.Errorf("%w: vibestream_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(c.VibeStreamURL); err != nil {
		return fmt.Errorf("%w: vibestream_url: %w", ErrInvalidConfig, err)
	}
	if _, err := url.ParseRequestURI(c.PublicURL); err != nil {
		return fmt.Errorf("%w: public_url: %w", ErrInvalidConfig, err)
	}
	return nil
}
