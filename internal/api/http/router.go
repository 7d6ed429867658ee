package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformhealth "github.com/saliou-conde/vending-machine/platform/health/http"
	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"
)

// RouterOptions - необязательные части роутера
type RouterOptions struct {
	// Readiness используется health endpoint; false даёт 503
	Readiness func() bool
	// Metrics - handler для /metrics (nil - endpoint не регистрируется)
	Metrics http.Handler
	// Middlewares выполняются после observability middleware, например счётчики запросов
	Middlewares []func(http.Handler) http.Handler
}

// NewRouter создаёт и настраивает HTTP роутер каталога товаров
// logger используется для observability HTTP middleware (trace_id в логах)
func NewRouter(handler *Handler, opts RouterOptions, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("vending", logger))
	}
	for _, mw := range opts.Middlewares {
		router.Use(mw)
	}

	router.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Post("/", handler.CreateProduct)
		r.Get("/{id}", handler.GetProduct)
		r.Put("/{id}", handler.UpdateProduct)
		r.Delete("/{id}", handler.DeleteProduct)
	})

	router.Get("/health", platformhealth.Handler(opts.Readiness))
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return router
}
