// Package metrics constructs the prometheus collectors used by the service
// to report request and ledger activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the set of collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        prometheus.Counter
	panics        prometheus.Counter
	blocks        *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// New constructs the collectors and registers them with a new registry
// along with the go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_requests_total",
			Help: "Total HTTP requests by method, route, and response status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_request_duration_seconds",
			Help:    "Request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_request_errors_total",
			Help: "Total requests that ended in an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_request_panics_total",
			Help: "Total requests that panicked.",
		}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_blocks_appended_total",
			Help: "Total blocks appended to the ledger by type.",
		}, []string{"type"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_verifications_total",
			Help: "Total chain verifications by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.errors,
		m.panics,
		m.blocks,
		m.verifications,
	)

	return &m
}

// WatchLedger registers gauges that read the chain length and the number
// of unpersisted blocks from the ledger at scrape time.
func (m *Metrics) WatchLedger(l *ledger.Ledger) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ledger_chain_blocks",
			Help: "Number of blocks in the chain including genesis.",
		}, func() float64 { return float64(l.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ledger_unpersisted_blocks",
			Help: "Number of blocks in memory that are not yet in storage.",
		}, func() float64 { return float64(l.Unpersisted()) }),
	)
}

// Handler returns the http handler that serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gather exposes the registry for tests.
func (m *Metrics) Gather() prometheus.Gatherer {
	return m.registry
}

// =============================================================================

// ObserveRequest records a completed request.
func (m *Metrics) ObserveRequest(method string, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Error records a request that ended in an error.
func (m *Metrics) Error() {
	m.errors.Inc()
}

// Panic records a request that panicked.
func (m *Metrics) Panic() {
	m.panics.Inc()
}

// BlockAppended records a block being added to the ledger.
func (m *Metrics) BlockAppended(typ string) {
	m.blocks.WithLabelValues(typ).Inc()
}

// Verified records the outcome of a chain verification.
func (m *Metrics) Verified(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.verifications.WithLabelValues(result).Inc()
}
