package metrics

import (
	"maps"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace replaces the "wildwatch" namespace. Empty keeps it.
func WithNamespace(ns string) Option {
	return func(m *Manager) { setIfNotEmpty(&m.namespace, ns) }
}

// WithSubsystem inserts a subsystem between namespace and name.
func WithSubsystem(sub string) Option {
	return func(m *Manager) { setIfNotEmpty(&m.subsystem, sub) }
}

// WithMetricPrefix prepends prefix to every collector name.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) { setIfNotEmpty(&m.metricPrefix, prefix) }
}

// WithHistogramBuckets sets the millisecond buckets of every latency histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) == 0 {
			return
		}
		m.histogramBuckets = append([]float64(nil), buckets...)
	}
}

// WithCustomLabels adds constant labels, e.g. the deployment, to every collector.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if len(labels) == 0 {
			return
		}
		m.customLabels = maps.Clone(labels)
	}
}

// WithPrometheusRegistry registers collectors on r instead of the default registerer.
func WithPrometheusRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
