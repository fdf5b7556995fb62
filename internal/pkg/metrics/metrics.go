package metrics

import "github.com/prometheus/client_golang/prometheus"

var HTTPRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HTTPErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of failed HTTP requests (4xx/5xx)",
	},
	[]string{"endpoint", "status", "method"},
)

var NotificationsSentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notifications persisted, by type",
	},
	[]string{"type"},
)

var NotificationsPushedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_pushed_total",
		Help: "Realtime notification pushes, by delivery outcome",
	},
	[]string{"delivered"},
)

var WebsocketConnections = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Number of open WebSocket connections",
	},
)

func Init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPErrorsTotal)
	prometheus.MustRegister(NotificationsSentTotal)
	prometheus.MustRegister(NotificationsPushedTotal)
	prometheus.MustRegister(WebsocketConnections)
}
