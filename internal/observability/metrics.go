// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	RPCCallLatency   *prometheus.HistogramVec
	ShardReads       *prometheus.CounterVec
	ShardsPerRead    prometheus.Histogram
	TickDecodeErrors prometheus.Counter
	AccountUpdates   prometheus.Counter

	// Histogram metrics
	HistogramBuildDuration prometheus.Histogram
	HistogramBins          prometheus.Gauge
	StaleResultsDiscarded  prometheus.Counter

	// Snapshot metrics
	SnapshotRefreshes *prometheus.CounterVec
	RangeCommits      *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "whirlpool_range_lab"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ShardReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "shard_reads_total",
			Help:      "Total number of batched tick array reads by status",
		}, []string{"status"}),
		ShardsPerRead: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "shards_per_read",
			Help:      "Number of tick arrays requested per batched read",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 50, 100},
		}),
		TickDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "tick_decode_errors_total",
			Help:      "Total number of ticks zero-filled after a decode failure",
		}),
		AccountUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "account_updates_total",
			Help:      "Total number of pool account notifications received",
		}),

		HistogramBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "histogram",
			Name:      "build_duration_seconds",
			Help:      "Time to fetch liquidity and build histogram bins",
			Buckets:   prometheus.DefBuckets,
		}),
		HistogramBins: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "histogram",
			Name:      "bins",
			Help:      "Number of bins in the current histogram",
		}),
		StaleResultsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "histogram",
			Name:      "stale_results_discarded_total",
			Help:      "Total number of histogram fetches discarded after the range moved",
		}),

		SnapshotRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "snapshot_refreshes_total",
			Help:      "Total number of pool snapshot refreshes by status",
		}, []string{"status"}),
		RangeCommits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "range",
			Name:      "commits_total",
			Help:      "Total number of user range commits by outcome",
		}, []string{"outcome"}),

		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful pool refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordShardRead records one batched tick array read.
func RecordShardRead(shards int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.ShardReads.WithLabelValues(status).Inc()
	DefaultMetrics.ShardsPerRead.Observe(float64(shards))
}

// RecordTickDecodeError increments the zero-filled tick counter.
func RecordTickDecodeError() {
	DefaultMetrics.TickDecodeErrors.Inc()
}

// RecordAccountUpdate increments the account notification counter.
func RecordAccountUpdate() {
	DefaultMetrics.AccountUpdates.Inc()
}

// RecordHistogramBuild records a completed histogram build.
func RecordHistogramBuild(seconds float64, bins int) {
	DefaultMetrics.HistogramBuildDuration.Observe(seconds)
	DefaultMetrics.HistogramBins.Set(float64(bins))
}

// RecordStaleDiscarded increments the stale result counter.
func RecordStaleDiscarded() {
	DefaultMetrics.StaleResultsDiscarded.Inc()
}

// RecordRefresh records a pool snapshot refresh.
func RecordRefresh(err error, unixSeconds float64) {
	if err != nil {
		DefaultMetrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return
	}
	DefaultMetrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
	DefaultMetrics.LastSuccessfulRefresh.Set(unixSeconds)
}

// RecordRangeCommit records a user range commit outcome.
func RecordRangeCommit(outcome string) {
	DefaultMetrics.RangeCommits.WithLabelValues(outcome).Inc()
}
