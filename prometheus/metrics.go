package prometheus

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/victorcamacaro253/farmacia-web/pkg/config"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthFailureCounter  prometheus.Counter

	// Cart metrics
	CartOperationsCounter *prometheus.CounterVec

	// Order metrics
	OrdersCreatedCounter      *prometheus.CounterVec
	OrderValueHistogram       prometheus.Histogram
	OrderStatusUpdatesCounter *prometheus.CounterVec

	// Search metrics
	SearchCounter *prometheus.CounterVec

	// Persisted state metrics
	DiscardedStateCounter    *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Catalog metrics
	CatalogSizeGauge *prometheus.GaugeVec

	// Event metrics
	EventsPublishedCounter *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics registers all metrics under the configured prefix. Later calls are no-ops.
func InitMetrics(cfg *config.Config) {
	initOnce.Do(func() {
		register(cfg.Metrics.Prefix)
	})
}

func register(namespace string) {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts",
	})

	AuthSuccessCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_success_total",
		Help:      "Total number of successful logins",
	})

	AuthFailureCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failure_total",
		Help:      "Total number of rejected logins",
	})

	CartOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Total number of cart operations",
		},
		[]string{"operation", "result"},
	)

	OrdersCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders placed",
		},
		[]string{"delivery_method", "payment_method"},
	)

	OrderValueHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_value",
		Help:      "Order totals",
		Buckets:   []float64{1000, 2500, 5000, 10000, 15000, 25000, 50000, 100000},
	})

	OrderStatusUpdatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_updates_total",
			Help:      "Total number of order status changes",
		},
		[]string{"status"},
	)

	SearchCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)

	DiscardedStateCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_state_total",
			Help:      "Total number of corrupt persisted values that were discarded",
		},
		[]string{"key"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Duration of storage operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	CatalogSizeGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Number of entries in the loaded catalog",
		},
		[]string{"kind"},
	)

	EventsPublishedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of published events",
		},
		[]string{"topic", "result"},
	)
}

// HandlerFunc returns the /metrics handler
func HandlerFunc() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// The Record helpers below are no-ops until InitMetrics has run.

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if HTTPRequestsTotal == nil {
		return
	}
	s := strconv.Itoa(status)
	HTTPRequestsTotal.WithLabelValues(method, path, s).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, s).Observe(duration.Seconds())
}

// RecordAuthAttempt records a login attempt and its outcome
func RecordAuthAttempt(success bool) {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
	if success {
		AuthSuccessCounter.Inc()
	} else {
		AuthFailureCounter.Inc()
	}
}

// RecordCartOperation records a cart mutation
func RecordCartOperation(operation string, err error) {
	if CartOperationsCounter == nil {
		return
	}
	CartOperationsCounter.WithLabelValues(operation, result(err)).Inc()
}

// RecordOrderCreated records a placed order and its value
func RecordOrderCreated(deliveryMethod, paymentMethod string, total float64) {
	if OrdersCreatedCounter == nil {
		return
	}
	OrdersCreatedCounter.WithLabelValues(deliveryMethod, paymentMethod).Inc()
	OrderValueHistogram.Observe(total)
}

// RecordOrderStatusUpdate records a status change
func RecordOrderStatusUpdate(status string) {
	if OrderStatusUpdatesCounter == nil {
		return
	}
	OrderStatusUpdatesCounter.WithLabelValues(status).Inc()
}

// RecordSearch records how a search ended: completed, empty or superseded
func RecordSearch(outcome string) {
	if SearchCounter == nil {
		return
	}
	SearchCounter.WithLabelValues(outcome).Inc()
}

// RecordDiscardedState records a corrupt stored value being dropped
func RecordDiscardedState(key string, _ error) {
	if DiscardedStateCounter == nil {
		return
	}
	DiscardedStateCounter.WithLabelValues(key).Inc()
}

// ObserveStorageOperation records how long a storage call took
func ObserveStorageOperation(backend string) func(operation string, elapsed time.Duration) {
	return func(operation string, elapsed time.Duration) {
		if StorageOperationDuration == nil {
			return
		}
		StorageOperationDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
	}
}

// SetCatalogSize publishes the dataset sizes
func SetCatalogSize(categories, products, branches int) {
	if CatalogSizeGauge == nil {
		return
	}
	CatalogSizeGauge.WithLabelValues("categories").Set(float64(categories))
	CatalogSizeGauge.WithLabelValues("products").Set(float64(products))
	CatalogSizeGauge.WithLabelValues("branches").Set(float64(branches))
}

// RecordEventPublished records a publish attempt
func RecordEventPublished(topic string, err error) {
	if EventsPublishedCounter == nil {
		return
	}
	EventsPublishedCounter.WithLabelValues(topic, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
