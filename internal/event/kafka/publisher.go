package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"

	"github.com/saliou-conde/vending-machine/internal/service"
)

// messageWriter - часть kafka.Writer, которой пользуется publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProductEventPublisher реализует service.ProductEventPublisher используя Kafka
// Запись идёт через circuit breaker: при недоступном брокере запросы не висят на каждом вызове
type ProductEventPublisher struct {
	logger  *zap.Logger
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	topic   string
	now     func() time.Time
}

// NewProductEventPublisher создаёт новый Kafka publisher для событий каталога
func NewProductEventPublisher(logger *zap.Logger, brokers []string, topic string) *ProductEventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return newPublisher(logger, writer, topic)
}

func newPublisher(logger *zap.Logger, writer messageWriter, topic string) *ProductEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductEventPublisher{
		logger:  logger,
		writer:  writer,
		breaker: newCircuitBreaker("kafka-" + topic),
		topic:   topic,
		now:     time.Now,
	}
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	return gobreaker.NewCircuitBreaker[struct{}](st)
}

// Close закрывает Kafka writer
func (p *ProductEventPublisher) Close() error {
	return p.writer.Close()
}

// PublishProductEvent публикует событие изменения товара; ключ сообщения - ID товара
func (p *ProductEventPublisher) PublishProductEvent(ctx context.Context, event service.ProductEvent) error {
	valueBytes, err := json.Marshal(p.payload(event))
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.Itoa(event.ProductID)),
		Value: valueBytes,
	}
	platformobservability.InjectKafkaHeaders(ctx, &message)

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, message)
	})
	if err != nil {
		p.logger.Error("failed to publish product event",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("event_type", event.Type),
			zap.Int("product_id", event.ProductID),
		)
		return err
	}

	p.logger.Debug("product event published",
		zap.String("topic", p.topic),
		zap.String("event_type", event.Type),
		zap.Int("product_id", event.ProductID),
	)
	return nil
}

func (p *ProductEventPublisher) payload(event service.ProductEvent) ProductEventMessage {
	return ProductEventMessage{
		EventID:          uuid.New().String(),
		EventType:        event.Type,
		EventVersion:     1,
		OccurredAt:       p.now().UTC().Format(time.RFC3339),
		ProductID:        event.ProductID,
		ProductName:      event.ProductName,
		ProductPrice:     event.ProductPrice,
		InventarID:       event.InventarID,
		InventarQuantity: event.InventarQuantity,
	}
}
