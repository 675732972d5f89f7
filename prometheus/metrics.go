package prometheus

import (
	"errors"
	"net/http"
	"shop-service/pkg/config"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_register_total",
			Help: "Total number of user registrations",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "invalid_password", ...
	)

	CatalogOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_catalog_operations_total",
			Help: "Total number of catalog write operations",
		},
		[]string{"entity", "operation"},
	)

	OrdersCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	OTPOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_otp_operations_total",
			Help: "Total number of one-time code operations by result",
		},
		[]string{"operation", "result"},
	)

	CacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_cache_requests_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)

	OrderValueHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shop_order_value",
			Help:    "Total price of placed orders",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shop_info",
			Help: "Information about the shop service",
		},
		[]string{"version", "environment", "prefix"},
	)
)

// Version is reported by the shop_info gauge
const Version = "1.0.0"

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(CatalogOperationCounter)
	prometheus.MustRegister(OrdersCreatedCounter)
	prometheus.MustRegister(OTPOperationCounter)
	prometheus.MustRegister(CacheCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(OrderValueHistogram)

	prometheus.MustRegister(InfoGauge)
}

// InitMetrics publishes the service info gauge for the loaded configuration
func InitMetrics(cfg *config.Config) {
	InfoGauge.Reset()
	InfoGauge.With(prometheus.Labels{
		"version":     Version,
		"environment": cfg.Server.Env,
		"prefix":      cfg.Metrics.Prefix,
	}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations:
//
//	defer prometheus.TrackDBOperation("query")()
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			var coder interface{ StatusCode() int }
			var he *echo.HTTPError
			switch {
			case errors.As(err, &he):
				status = he.Code
			case errors.As(err, &coder):
				status = coder.StatusCode()
			case err != nil:
				status = http.StatusInternalServerError
			}
			labels := prometheus.Labels{
				"endpoint": c.Path(),
				"method":   c.Request().Method,
				"status":   strconv.Itoa(status),
			}

			RequestDuration.With(labels).Observe(time.Since(start).Seconds())
			HTTPRequestCounter.With(labels).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordCatalogOperation records a catalog write
func RecordCatalogOperation(entity, operation string) {
	CatalogOperationCounter.With(prometheus.Labels{"entity": entity, "operation": operation}).Inc()
}

// RecordOrder records a placed order and its value
func RecordOrder(total float64) {
	OrdersCreatedCounter.Inc()
	OrderValueHistogram.Observe(total)
}

// RecordOTP records the outcome of a one-time code operation
func RecordOTP(operation, result string) {
	OTPOperationCounter.With(prometheus.Labels{"operation": operation, "result": result}).Inc()
}

// RecordCache records a catalog cache lookup result
func RecordCache(result string) {
	CacheCounter.With(prometheus.Labels{"result": result}).Inc()
}
