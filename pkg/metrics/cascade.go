package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CascadeMetrics records metadata for category price cascades.
type CascadeMetrics struct {
	duration *prometheus.HistogramVec
	updated  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCascadeMetrics registers the cascade metrics on the provided registerer.
func NewCascadeMetrics(reg prometheus.Registerer) *CascadeMetrics {
	if reg == nil {
		return &CascadeMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_cascade_duration_seconds",
		Help:    "Duration of category price cascades in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	updated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_cascade_items_updated",
		Help: "Items whose cached price a cascade rewrote.",
	}, []string{"trigger"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_cascade_items_skipped",
		Help: "Items a cascade left unchanged (no policy or soft configuration error).",
	}, []string{"trigger"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_cascade_failures",
		Help: "Cascades that hit at least one persistence error.",
	}, []string{"trigger"})
	reg.MustRegister(duration, updated, skipped, failure)
	return &CascadeMetrics{
		duration: duration,
		updated:  updated,
		skipped:  skipped,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named trigger.
func (c *CascadeMetrics) ObserveDuration(trigger string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// AddUpdated counts items rewritten by a cascade.
func (c *CascadeMetrics) AddUpdated(trigger string, n int) {
	if c == nil || c.updated == nil {
		return
	}
	c.updated.WithLabelValues(normalizeLabel(trigger)).Add(float64(n))
}

// AddSkipped counts items a cascade left unchanged.
func (c *CascadeMetrics) AddSkipped(trigger string, n int) {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.WithLabelValues(normalizeLabel(trigger)).Add(float64(n))
}

// IncFailure counts cascades that hit persistence errors.
func (c *CascadeMetrics) IncFailure(trigger string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

func normalizeLabel(trigger string) string {
	if trigger == "" {
		return "unknown"
	}
	return trigger
}
