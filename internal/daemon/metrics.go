package daemon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Reloads         *prometheus.CounterVec
	SnapshotRecords *prometheus.GaugeVec
	SyncRuns        *prometheus.CounterVec
}

// NewMetrics creates collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mhouse_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"route", "code"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mhouse_http_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "mhouse_response_cache_hits_total",
			Help: "Responses served from the cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "mhouse_response_cache_misses_total",
			Help: "Responses computed because the cache had no entry",
		}),
		Reloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mhouse_snapshot_reloads_total",
				Help: "Snapshot reloads by result",
			},
			[]string{"result"},
		),
		SnapshotRecords: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mhouse_snapshot_records",
				Help: "Records in the current snapshot",
			},
			[]string{"kind"},
		),
		SyncRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mhouse_sync_runs_total",
				Help: "Finished sync runs by status",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument records request counts and latency by route pattern.
func (m *Metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next(rec, r)
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	}
}
