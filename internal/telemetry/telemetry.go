// Package telemetry exposes the service's prometheus instrumentation.
// A nil *Telemetry is a valid no-op recorder, which keeps tests and
// metrics-disabled deployments free of conditionals at call sites.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Telemetry struct {
	verifications    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	providerErrors   *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
}

// New registers the service collectors on the given registerer.
func New(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_verifications_total",
			Help: "Completed verification requests by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verity_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verity_provider_errors_total",
			Help: "Search connector failures by provider.",
		}, []string{"provider"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verity_provider_duration_seconds",
			Help:    "Search connector call duration by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verity_cache_hits_total",
			Help: "Aggregation cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verity_cache_misses_total",
			Help: "Aggregation cache misses.",
		}),
	}
	reg.MustRegister(t.verifications, t.stageDuration, t.providerErrors, t.providerDuration, t.cacheHits, t.cacheMisses)
	return t
}

func (t *Telemetry) RecordVerification(outcome string) {
	if t == nil {
		return
	}
	t.verifications.WithLabelValues(outcome).Inc()
}

func (t *Telemetry) ObserveStageDuration(stage string, d time.Duration) {
	if t == nil {
		return
	}
	t.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (t *Telemetry) RecordProviderError(provider string) {
	if t == nil {
		return
	}
	t.providerErrors.WithLabelValues(provider).Inc()
}

func (t *Telemetry) ObserveProviderDuration(provider string, d time.Duration) {
	if t == nil {
		return
	}
	t.providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (t *Telemetry) RecordCacheHit() {
	if t == nil {
		return
	}
	t.cacheHits.Inc()
}

func (t *Telemetry) RecordCacheMiss() {
	if t == nil {
		return
	}
	t.cacheMisses.Inc()
}
