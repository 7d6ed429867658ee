package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager управляет graceful shutdown сервиса
// Перехватывает SIGINT/SIGTERM и выполняет зарегистрированные функции в обратном порядке
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger
	funcs   []shutdownFunc
	mu      sync.Mutex
}

type shutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// New создаёт новый Manager с таймаутом на каждую функцию
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Add регистрирует shutdown функцию; последняя добавленная выполнится первой
func (m *Manager) Add(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, shutdownFunc{name: name, fn: fn})
}

// Wait блокируется до SIGINT или SIGTERM, затем выполняет shutdown
func (m *Manager) Wait() {
	m.WaitContext(context.Background())
}

// WaitContext блокируется до сигнала или отмены ctx, затем выполняет shutdown
func (m *Manager) WaitContext(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.logger.Info("Received shutdown signal, starting graceful shutdown", zap.String("signal", sig.String()))
	case <-ctx.Done():
		m.logger.Info("Context cancelled, starting graceful shutdown")
	}

	m.Shutdown()
}

// Shutdown выполняет все зарегистрированные функции, каждую со своим context.WithTimeout
// Ошибка одной функции не останавливает остальные
func (m *Manager) Shutdown() {
	m.mu.Lock()
	funcs := make([]shutdownFunc, len(m.funcs))
	copy(funcs, m.funcs)
	m.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		fn := funcs[i]
		m.logger.Info("Executing shutdown function", zap.String("name", fn.name))

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		start := time.Now()
		err := fn.fn(ctx)
		cancel()

		duration := time.Since(start)
		if err != nil {
			m.logger.Error("Shutdown function failed",
				zap.String("name", fn.name),
				zap.Error(err),
				zap.Duration("duration", duration))
		} else {
			m.logger.Info("Shutdown function completed",
				zap.String("name", fn.name),
				zap.Duration("duration", duration))
		}
	}

	m.logger.Info("Graceful shutdown completed")
}

// ShutdownHTTPServer возвращает shutdown функцию для http.Server
func ShutdownHTTPServer(srv interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}
}

// DisconnectMongo возвращает shutdown функцию для MongoDB клиента
func DisconnectMongo(client interface {
	Disconnect(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Disconnect(ctx)
	}
}

// ClosePool возвращает shutdown функцию для pgxpool.Pool
func ClosePool(pool interface {
	Close()
}) func(context.Context) error {
	return func(ctx context.Context) error {
		pool.Close()
		return nil
	}
}

// CloseCloser возвращает shutdown функцию для io.Closer (Kafka writer, Redis client, *sql.DB)
func CloseCloser(c interface {
	Close() error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.Close()
	}
}
