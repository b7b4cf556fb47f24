package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	DeltasAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "deltas_applied_total", Help: "Feed deltas applied to an order book"}, []string{"symbol"})
	ResyncsTotal       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "resyncs_total", Help: "Order book resets by symbol and reason"}, []string{"symbol", "reason"})
	SnapshotsTotal     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "snapshot_fetches_total", Help: "Snapshot fetches by symbol and result"}, []string{"symbol", "result"})
	SyncPhase          = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "sync_phase", Help: "Sync phase per worker and symbol (0 not synced, 1 fetching, 2 synced)"}, []string{"worker", "symbol"})

	QueriesTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "queries_total", Help: "Queries answered by method and status"}, []string{"method", "status"})
	CoalescedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "queries_coalesced_total", Help: "Queries served by an identical in-flight request"})
	QueryLatencyMs  = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "query_latency_ms", Help: "Query latency at the gateway", Buckets: prometheus.ExponentialBuckets(0.25, 2, 14)}, []string{"method"})
	InflightQueries = prometheus.NewGauge(prometheus.GaugeOpts{Name: "queries_inflight", Help: "Dispatched queries awaiting a worker response"})

	WSReconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ws_reconnects_total", Help: "Feed reconnects by reason"}, []string{"reason"})
	BreakerState      = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "breaker_state", Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)"}, []string{"name"})
	APIErrorsTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "api_errors_total", Help: "Exchange API errors by endpoint"}, []string{"endpoint"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		DeltasAppliedTotal, ResyncsTotal, SnapshotsTotal, SyncPhase,
		QueriesTotal, CoalescedTotal, QueryLatencyMs, InflightQueries,
		WSReconnectsTotal, BreakerState, APIErrorsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
