package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are safe to call on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	scansTotal        *prometheus.CounterVec
	scanFailures      *prometheus.CounterVec
	estimateDegraded  *prometheus.CounterVec
	dishFallback      *prometheus.CounterVec
	ledgerAppend      prometheus.Histogram
	liveClients       prometheus.Gauge
	eventsDropped     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Scans recorded, by school and waste level.",
		}, []string{"school_id", "level"}),
		scanFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_failures_total",
			Help: "Scans rejected before reaching the ledger, by kind.",
		}, []string{"kind"}),
		estimateDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waste_estimate_degraded_total",
			Help: "Waste estimates that fell back to the neutral default, by reason.",
		}, []string{"reason"}),
		dishFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dish_classifier_fallback_total",
			Help: "Dish classifications that fell back to the default dish, by reason.",
		}, []string{"reason"}),
		ledgerAppend: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_append_duration_seconds",
			Help:    "Histogram of scan ledger append durations.",
			Buckets: prometheus.DefBuckets,
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "live_feed_clients",
			Help: "Connected live feed websocket clients.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scan_events_dropped_total",
			Help: "Scan events dropped because the publish queue was full.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.scansTotal,
		m.scanFailures,
		m.estimateDegraded,
		m.dishFallback,
		m.ledgerAppend,
		m.liveClients,
		m.eventsDropped,
	)

	return m
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ScanRecorded(schoolID, level string) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(schoolID, level).Inc()
}

func (m *Metrics) ScanFailed(kind string) {
	if m == nil {
		return
	}
	m.scanFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) EstimateDegraded(reason string) {
	if m == nil {
		return
	}
	m.estimateDegraded.WithLabelValues(reason).Inc()
}

func (m *Metrics) DishFallback(reason string) {
	if m == nil {
		return
	}
	m.dishFallback.WithLabelValues(reason).Inc()
}

func (m *Metrics) LedgerAppend(d time.Duration) {
	if m == nil {
		return
	}
	m.ledgerAppend.Observe(d.Seconds())
}

func (m *Metrics) LiveClientConnected() {
	if m == nil {
		return
	}
	m.liveClients.Inc()
}

func (m *Metrics) LiveClientDisconnected() {
	if m == nil {
		return
	}
	m.liveClients.Dec()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}
