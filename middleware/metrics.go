package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ordersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed",
		},
		[]string{"delivery_method"},
	)

	checkoutRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_rejected_total",
			Help: "Total number of checkout submissions that did not create an order",
		},
		[]string{"reason"},
	)

	notificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of order notifications attempted",
		},
		[]string{"kind", "status"},
	)

	carrierLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrier_lookups_total",
			Help: "Total number of carrier address lookups",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(ordersPlacedTotal)
	prometheus.MustRegister(checkoutRejectedTotal)
	prometheus.MustRegister(notificationsSentTotal)
	prometheus.MustRegister(carrierLookupsTotal)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordOrderPlaced(deliveryMethod string) {
	ordersPlacedTotal.WithLabelValues(deliveryMethod).Inc()
}

func RecordCheckoutRejected(reason string) {
	checkoutRejectedTotal.WithLabelValues(reason).Inc()
}

func RecordNotificationSent(kind, status string) {
	notificationsSentTotal.WithLabelValues(kind, status).Inc()
}

func RecordCarrierLookup(op, outcome string) {
	carrierLookupsTotal.WithLabelValues(op, outcome).Inc()
}
