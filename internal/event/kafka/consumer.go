package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"
)

// ProductEventHandler обрабатывает одно событие; ctx несёт trace context из заголовков сообщения
type ProductEventHandler func(ctx context.Context, event ProductEventMessage) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProductEventConsumer читает события товаров из Kafka
// Семантика at-least-once: commit только после успешной обработки
type ProductEventConsumer struct {
	logger  *zap.Logger
	reader  messageReader
	handler ProductEventHandler
}

// NewProductEventConsumer создаёт consumer в группе groupID
func NewProductEventConsumer(logger *zap.Logger, brokers []string, groupID, topic string, handler ProductEventHandler) *ProductEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(logger, reader, handler)
}

func newConsumer(logger *zap.Logger, reader messageReader, handler ProductEventHandler) *ProductEventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductEventConsumer{logger: logger, reader: reader, handler: handler}
}

// Start обрабатывает сообщения до отмены ctx
// Битое сообщение логируется и коммитится, ошибка handler останавливает consumer без commit
func (c *ProductEventConsumer) Start(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		msgCtx := platformobservability.ExtractKafkaHeaders(ctx, &m)
		log := platformobservability.L(msgCtx, c.logger).With(
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)

		event, err := decodeProductEvent(m)
		if err != nil {
			log.Warn("skipping malformed product event", zap.Error(err))
		} else if err := c.handler(msgCtx, event); err != nil {
			return fmt.Errorf("handle %s for product %d: %w", event.EventType, event.ProductID, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit offset %d: %w", m.Offset, err)
		}
	}
}

// Close закрывает Kafka reader
func (c *ProductEventConsumer) Close() error {
	return c.reader.Close()
}

func decodeProductEvent(m kafka.Message) (ProductEventMessage, error) {
	var event ProductEventMessage
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return ProductEventMessage{}, err
	}
	if event.EventType == "" {
		return ProductEventMessage{}, errors.New("event_type is empty")
	}
	return event, nil
}
