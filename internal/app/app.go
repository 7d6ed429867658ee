package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	platformlogging "github.com/saliou-conde/vending-machine/platform/logging"
	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"
	platformshutdown "github.com/saliou-conde/vending-machine/platform/shutdown"

	httpapi "github.com/saliou-conde/vending-machine/internal/api/http"
	"github.com/saliou-conde/vending-machine/internal/config"
	kafkaevent "github.com/saliou-conde/vending-machine/internal/event/kafka"
	"github.com/saliou-conde/vending-machine/internal/metrics"
	"github.com/saliou-conde/vending-machine/internal/service"
)

const serviceName = "vending"

// App содержит все зависимости для запуска и корректного shutdown сервиса каталога
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	readiness   func() bool
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости сервиса каталога
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	logger.Info("Building vending service",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("storage_driver", string(cfg.StorageDriver)),
	)

	// OpenTelemetry (noop при OTEL_ENABLED=false)
	otelShutdown, err := platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, err
	}

	st, err := openStorage(cfg, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}

	// Kafka publisher событий товаров
	var (
		publisher      service.ProductEventPublisher = service.NopPublisher{}
		kafkaPublisher *kafkaevent.ProductEventPublisher
	)
	if cfg.KafkaEnabled {
		logger.Info("Kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
		kafkaPublisher = kafkaevent.NewProductEventPublisher(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publisher = kafkaPublisher
	}

	m := metrics.New(serviceName)

	productService := service.NewProductService(st.products, st.buckets, publisher, m, logger)

	handler := httpapi.NewHandler(productService, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		Readiness:   st.readiness,
		Metrics:     m.Handler(),
		Middlewares: []func(http.Handler) http.Handler{m.HTTPMiddleware},
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Регистрируем shutdown функции в обратном порядке выполнения
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	shutdownMgr.Add("otel", otelShutdown)
	for _, c := range st.closers {
		shutdownMgr.Add(c.name, c.fn)
	}
	if kafkaPublisher != nil {
		shutdownMgr.Add("kafka_publisher", platformshutdown.CloseCloser(kafkaPublisher))
	}
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
		readiness:   st.readiness,
	}, nil
}

// Handler возвращает HTTP handler сервиса
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Ready сообщает готовность хранилища (то же, что отдаёт /health)
func (a *App) Ready() bool {
	return a.readiness()
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext как Run, но shutdown также начинается при отмене ctx
func (a *App) RunContext(ctx context.Context) error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting vending service", zap.String("addr", a.httpServer.Addr))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.httpServer.Addr+"/health"))

	// Если сервер не поднялся (например, порт занят), shutdown начинается без ожидания сигнала
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	serverErr := make(chan error, 1)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
			serverErr <- err
			cancel()
		}
	}()

	a.shutdownMgr.WaitContext(ctx)

	a.wg.Wait()
	a.logger.Info("Vending service stopped")

	select {
	case err := <-serverErr:
		return err
	default:
		return nil
	}
}
