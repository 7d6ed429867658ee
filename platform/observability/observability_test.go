package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false, ServiceName: "vending"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.NotNil(t, otel.GetTextMapPropagator())
}

func TestHTTPMiddleware_SpanAndLogger(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	router := chi.NewRouter()
	router.Use(HTTPMiddleware("vending", logger))
	router.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		L(r.Context(), zap.NewNop()).Info("handled")
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/5", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "HTTP GET /api/v1/products/{id}", spans[0].Name())
	require.Equal(t, "Error", spans[0].Status().Code.String())

	entries := logs.FilterMessage("handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, spans[0].SpanContext().TraceID().String(), fields["trace_id"])
}

func TestL_WithoutSpanReturnsBase(t *testing.T) {
	base := zap.NewNop()
	require.Same(t, base, L(context.Background(), base))
}
