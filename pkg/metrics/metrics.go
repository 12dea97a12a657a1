package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// DBOperationDuration records database operation duration in seconds
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"}, // operation can be "query", "insert", "update", "delete"
	)

	// TenantOperationCounter counts tenant operations
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"},
	)

	// ProjectOperationCounter counts project operations
	ProjectOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_operations_total",
			Help: "Total number of project operations",
		},
		[]string{"operation"},
	)

	// TaskOperationCounter counts task operations
	TaskOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_operations_total",
			Help: "Total number of task operations",
		},
		[]string{"operation"},
	)

	// AuthErrorCounter counts authentication errors by type
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// NotificationPushCounter counts realtime push attempts by outcome
	NotificationPushCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_push_total",
			Help: "Total number of realtime notification pushes",
		},
		[]string{"outcome"}, // "delivered" or "dropped"
	)

	// ActiveConnectionsGauge tracks open websocket connections
	ActiveConnectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_active_connections",
			Help: "Number of currently open websocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDurationHistogram)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(ProjectOperationCounter)
	prometheus.MustRegister(TaskOperationCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(NotificationPushCounter)
	prometheus.MustRegister(ActiveConnectionsGauge)
}

// HTTPMetrics holds configuration for HTTP metrics collection
type HTTPMetrics struct {
	ServiceName string
}

// NewHTTPMetrics creates a new HTTP metrics collector for a specific service
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	return &HTTPMetrics{ServiceName: serviceName}
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			path := c.Path()

			RequestCounter.WithLabelValues(m.ServiceName, method, path, status).Inc()

			duration := time.Since(start).Seconds()
			RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, status).Observe(duration)

			return err
		}
	}
}

// TrackDBOperation measures a database operation; use as
// defer metrics.TrackDBOperation(service, "query")(time.Now())
func TrackDBOperation(service, operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.WithLabelValues(service, operation).Observe(time.Since(startTime).Seconds())
	}
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.WithLabelValues(operation).Inc()
}

// RecordProjectOperation records a project operation
func RecordProjectOperation(operation string) {
	ProjectOperationCounter.WithLabelValues(operation).Inc()
}

// RecordTaskOperation records a task operation
func RecordTaskOperation(operation string) {
	TaskOperationCounter.WithLabelValues(operation).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordPush records a realtime push outcome
func RecordPush(outcome string) {
	NotificationPushCounter.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler for exposing Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
