package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the portal's collectors.
type Metrics struct {
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	toasts           *prometheus.CounterVec
	sweptSessions    prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "upstream_requests_total",
			Help:      "Calls to the organization API by endpoint and outcome.",
		}, []string{"method", "endpoint", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of calls to the organization API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "http_requests_total",
			Help:      "Portal HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "Portal HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		toasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "toasts_total",
			Help:      "Toasts queued by level.",
		}, []string{"level"}),
		sweptSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "sessions_swept_total",
			Help:      "Expired sessions removed by the sweeper.",
		}),
	}
	reg.MustRegister(m.upstreamCalls, m.upstreamDuration, m.httpRequests, m.httpDuration, m.toasts, m.sweptSessions)
	return m
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(method, endpoint, outcome string, elapsed time.Duration) {
	m.upstreamCalls.WithLabelValues(method, endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// Toast counts a queued toast.
func (m *Metrics) Toast(level string) {
	m.toasts.WithLabelValues(level).Inc()
}

// Swept counts sessions removed by the sweeper.
func (m *Metrics) Swept(n int64) {
	if n > 0 {
		m.sweptSessions.Add(float64(n))
	}
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
