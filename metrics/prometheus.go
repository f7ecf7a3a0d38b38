package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bloom"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Storefront API requests by route and status class.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Storefront API latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
	supplierRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supplier",
			Name:      "requests_total",
			Help:      "Calls to the Nieuwkoop API by endpoint and result.",
		},
		[]string{"endpoint", "result"}, // ok | error
	)
	supplierRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "supplier",
			Name:      "request_duration_seconds",
			Help:      "Nieuwkoop API latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, supplierRequestsTotal, supplierRequestDuration)
}

// RecordRequest пишет метрики входящего HTTP-запроса.
// route - шаблон маршрута, не сырой путь.
func RecordRequest(method, route string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordSupplierRequest пишет метрики исходящего вызова поставщика.
func RecordSupplierRequest(endpoint string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	supplierRequestsTotal.WithLabelValues(endpoint, result).Inc()
	supplierRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func classifyStatus(statusCode int) string {
	if statusCode < 100 || statusCode >= 600 {
		return "unknown"
	}
	return string(rune('0'+statusCode/100)) + "xx"
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
