// Package metrics holds the Prometheus collectors of the booking service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "appointments"

// Booking outcomes recorded by RecordBooking.
const (
	BookingCreated  = "created"
	BookingConflict = "conflict"
	BookingQuota    = "quota_exceeded"
	BookingInvalid  = "invalid"
	BookingFailed   = "error"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "status_changes_total",
			Help:      "Successful appointment status transitions.",
		},
		[]string{"from", "to"},
	)

	quotaDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "denials_total",
			Help:      "Bookings denied because the plan ceiling was reached.",
		},
		[]string{"tier"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "events_total",
			Help:      "Notification events by delivery result.",
		},
		[]string{"kind", "result"},
	)

	slotsServed = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "slots_returned",
			Help:      "Number of slots returned per availability query.",
			Buckets:   prometheus.LinearBuckets(0, 4, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		bookings,
		statusChanges,
		quotaDenials,
		notifications,
		slotsServed,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func RecordStatusChange(from, to string) {
	statusChanges.WithLabelValues(from, to).Inc()
}

func RecordQuotaDenied(tier string) {
	quotaDenials.WithLabelValues(tier).Inc()
}

// RecordNotification counts an event as "sent", "failed" or "dropped".
func RecordNotification(kind, result string) {
	notifications.WithLabelValues(kind, result).Inc()
}

func RecordSlots(n int) {
	slotsServed.Observe(float64(n))
}
