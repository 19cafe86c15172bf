// Package metrics collects Prometheus counters for the allocators, the reset
// token lifecycle, and HTTP responses, and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reset token outcomes recorded by RecordResetToken.
const (
	ResetIssued   = "issued"
	ResetRotated  = "rotated"
	ResetConsumed = "consumed"
	ResetExpired  = "expired"
)

// Collector holds the application's Prometheus metrics. All methods are safe
// to call on a nil *Collector so services can be built without metrics in
// tests.
type Collector struct {
	usernameProbes   *prometheus.CounterVec
	allocConflicts   *prometheus.CounterVec
	sequenceCollides *prometheus.CounterVec
	resetTokens      *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	httpLatency      prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		usernameProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualis_username_probes_total",
			Help: "Username existence lookups made by the allocator, by table.",
		}, []string{"table"}),
		allocConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualis_allocation_conflicts_total",
			Help: "Inserts that lost a unique-index race, by allocator.",
		}, []string{"allocator"}),
		sequenceCollides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualis_sequence_collisions_total",
			Help: "Requested record numbers that were already taken, by sleeve.",
		}, []string{"sleeve"}),
		resetTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualis_reset_tokens_total",
			Help: "Password reset token events, by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualis_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qualis_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.usernameProbes,
		c.allocConflicts,
		c.sequenceCollides,
		c.resetTokens,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// RecordUsernameProbe counts one existence lookup against table.
func (c *Collector) RecordUsernameProbe(table string) {
	if c == nil {
		return
	}
	c.usernameProbes.WithLabelValues(table).Inc()
}

// RecordAllocationConflict counts an insert that hit a duplicate key.
func (c *Collector) RecordAllocationConflict(allocator string) {
	if c == nil {
		return
	}
	c.allocConflicts.WithLabelValues(allocator).Inc()
}

// RecordSequenceCollision counts a requested number that was already used.
func (c *Collector) RecordSequenceCollision(sleeve string) {
	if c == nil {
		return
	}
	c.sequenceCollides.WithLabelValues(sleeve).Inc()
}

// RecordResetToken counts a reset token event; outcome is one of the Reset* constants.
func (c *Collector) RecordResetToken(outcome string) {
	if c == nil {
		return
	}
	c.resetTokens.WithLabelValues(outcome).Inc()
}

// RecordHTTP records one served request.
func (c *Collector) RecordHTTP(statusCode int, latency time.Duration) {
	if c == nil {
		return
	}
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(latency.Seconds())
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
