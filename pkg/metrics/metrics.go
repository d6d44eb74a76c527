package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter compte toutes les requêtes HTTP.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram durée des requêtes en secondes.
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// TransitionsTotal transitions commitées par famille et statut cible.
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of committed status transitions",
		},
		[]string{"entity_type", "to_status"},
	)

	// TransitionRejectionsTotal tentatives rejetées par famille et cause.
	TransitionRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transition_rejections_total",
			Help: "Total number of rejected status transition attempts",
		},
		[]string{"entity_type", "reason"},
	)

	// ReservationsTotal réservations par issue (accepted / rejected).
	ReservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_reservations_total",
			Help: "Total number of stock reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ReleasesTotal libérations par issue (applied / noop / rejected).
	ReleasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_releases_total",
			Help: "Total number of stock release attempts by outcome",
		},
		[]string{"outcome"},
	)

	// NotificationsDroppedTotal publications abandonnées (abonné trop lent).
	NotificationsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_dropped_total",
			Help: "Total number of transition notifications dropped per entity type",
		},
		[]string{"entity_type"},
	)
)

// HTTPMetrics collecteur de métriques HTTP du service.
type HTTPMetrics struct {
	ServiceName string
	initialized bool
}

// NewHTTPMetrics crée le collecteur et enregistre les métriques.
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	m := &HTTPMetrics{ServiceName: serviceName}
	m.register()
	return m
}

func (m *HTTPMetrics) register() {
	if !m.initialized {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDurationHistogram)
		prometheus.MustRegister(TransitionsTotal)
		prometheus.MustRegister(TransitionRejectionsTotal)
		prometheus.MustRegister(ReservationsTotal)
		prometheus.MustRegister(ReleasesTotal)
		prometheus.MustRegister(NotificationsDroppedTotal)
		m.initialized = true
	}
}

// Middleware middleware Fiber qui enregistre compteur et durée par requête.
func (m *HTTPMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		statusCode := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				statusCode = e.Code
			}
		}
		method := c.Method()
		path := c.Route().Path
		statusStr := strconv.Itoa(statusCode)

		RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
		RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// GetPrometheusHandler handler HTTP standard pour exposer /metrics.
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
