// Package metrics exposes Prometheus collectors for the journal.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Journal metrics
	TradeMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_trade_mutations_total",
			Help: "Total number of trade mutations",
		},
		[]string{"operation", "status"}, // operation: add|add_batch|delete, status: success|error
	)

	TradesStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "journal_trades_stored",
			Help: "Number of trades in the journal as of the last refresh",
		},
	)

	ReportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_report_duration_seconds",
			Help:    "Analytics computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"}, // kind: report|symbols
	)

	SymbolCacheRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_symbol_cache_refreshes_total",
			Help: "Total number of symbol statistics recomputations",
		},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(TradeMutations)
		prometheus.MustRegister(TradesStored)
		prometheus.MustRegister(ReportDuration)
		prometheus.MustRegister(SymbolCacheRefreshes)

		prometheus.MustRegister(HTTPRequests)
		prometheus.MustRegister(HTTPLatency)
		prometheus.MustRegister(HTTPRateLimited)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordMutation records a trade mutation
func RecordMutation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TradeMutations.WithLabelValues(operation, status).Inc()
}

// RecordReport records the duration of an analytics pass
func RecordReport(kind string, duration time.Duration) {
	ReportDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, route string, code int, latency time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}
