package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics содержит Prometheus метрики каталога
// Регистрируются в собственном registry, чтобы несколько экземпляров не конфликтовали (например, в тестах)
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	operationsTotal     *prometheus.CounterVec
	inventarQuantity    *prometheus.GaugeVec
}

// New создаёт метрики с префиксом prefix (например, "vending")
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_product_operations_total",
				Help: "Total number of product operations by envelope status",
			},
			[]string{"operation", "status"},
		),
		inventarQuantity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_inventar_quantity",
				Help: "Current inventar quantity per product name",
			},
			[]string{"product_name"},
		),
	}
}

// RecordOperation увеличивает счётчик операций каталога
func (m *Metrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// SetBucketQuantity выставляет значение корзины
func (m *Metrics) SetBucketQuantity(name string, quantity int) {
	m.inventarQuantity.WithLabelValues(name).Set(float64(quantity))
}

// Handler возвращает HTTP handler для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает registry метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// unmatchedRoute - метка для запросов, которым chi не нашёл маршрут
const unmatchedRoute = "unmatched"

// HTTPMiddleware считает запросы и их длительность по шаблону маршрута chi
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
