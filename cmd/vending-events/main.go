// Package main - утилита, печатающая события каталога товаров из Kafka.
//
// Брокеры и топик берутся из KAFKA_BROKERS и KAFKA_TOPIC (по умолчанию localhost:19092 и vending.products).
// Группа consumer-а задаётся KAFKA_GROUP_ID, по умолчанию vending-events.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	platformkafka "github.com/saliou-conde/vending-machine/platform/kafka"
	platformlogging "github.com/saliou-conde/vending-machine/platform/logging"
	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"

	kafkaevent "github.com/saliou-conde/vending-machine/internal/event/kafka"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "vending-events",
		Env:         "local",
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer platformlogging.Sync(logger)

	// propagator нужен, чтобы trace_id из заголовков попадал в логи
	if _, err := platformobservability.Init(ctx, platformobservability.Config{Enabled: false}); err != nil {
		logger.Fatal("failed to init observability", zap.Error(err))
	}

	cfg := platformkafka.DefaultConfig()
	if err := platformkafka.LoadEnv(&cfg); err != nil {
		logger.Fatal("failed to load kafka config", zap.Error(err))
	}
	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "vending-events"
	}

	logger.Info("kafka config loaded",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", groupID),
	)

	consumer := kafkaevent.NewProductEventConsumer(logger, cfg.Brokers, groupID, cfg.Topic,
		func(ctx context.Context, event kafkaevent.ProductEventMessage) error {
			platformobservability.L(ctx, logger).Info("product event",
				zap.String("event_type", event.EventType),
				zap.String("occurred_at", event.OccurredAt),
				zap.Int("product_id", event.ProductID),
				zap.String("product_name", event.ProductName),
				zap.Int("product_price", event.ProductPrice),
				zap.String("inventar_id", event.InventarID),
				zap.Int("inventar_quantity", event.InventarQuantity),
			)
			return nil
		})
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		logger.Error("consumer stopped", zap.Error(err))
		return
	}
	logger.Info("consumer stopped")
}
