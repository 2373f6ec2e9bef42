package web

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/estatekit/internal/core"
	"github.com/JonMunkholm/estatekit/internal/web/middleware"
)

const namespace = "estatekit"

// Metrics holds the Prometheus collectors for the server. It implements
// core.Observer so pipeline runs are counted where they happen.
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	rowsLoaded  *prometheus.HistogramVec
	requests    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec

	limiterOnce sync.Once
}

var _ core.Observer = (*Metrics)(nil)

// NewMetrics registers all collectors on a private registry, plus the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by operation and outcome code.",
		}, []string{"op", "code"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline run latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		rowsLoaded: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rows_loaded",
			Help:      "Data rows loaded per successful run.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.runDuration, m.rowsLoaded, m.requests, m.reqDuration,
	)
	return m
}

// ObserveRun implements core.Observer.
func (m *Metrics) ObserveRun(op string, rows int, elapsed time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = core.MapError(err).Code
	}
	m.runs.WithLabelValues(op, code).Inc()
	m.runDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err == nil && rows > 0 {
		m.rowsLoaded.WithLabelValues(op).Observe(float64(rows))
	}
}

// TrackLimiter exports the analysis limiter as gauges. Only the first call
// registers.
func (m *Metrics) TrackLimiter(status func() core.LimiterStatus) {
	m.limiterOnce.Do(func() {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "analyses_active",
				Help:      "Analyses currently holding a slot.",
			}, func() float64 { return float64(status().Active) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "analyses_max_concurrent",
				Help:      "Configured analysis slots.",
			}, func() float64 { return float64(status().MaxConcurrent) }),
		)
	})
}

// Instrument counts requests by the chi route pattern, which keeps label
// cardinality bounded regardless of file names in the path.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := middleware.RoutePattern(r)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.reqDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
