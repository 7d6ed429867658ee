package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saliou-conde/vending-machine/internal/service"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	calls    int
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishProductEvent_Payload(t *testing.T) {
	writer := &fakeWriter{}
	p := newPublisher(zap.NewNop(), writer, "vending.products")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.PublishProductEvent(context.Background(), service.ProductEvent{
		Type:             service.EventProductCreated,
		ProductID:        7,
		ProductName:      "Cola",
		ProductPrice:     2,
		InventarID:       "b-1",
		InventarQuantity: 3,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	require.Equal(t, "7", string(msg.Key))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	require.Equal(t, "product.created", payload["event_type"])
	require.Equal(t, float64(1), payload["event_version"])
	require.Equal(t, "2024-05-01T12:00:00Z", payload["occurred_at"])
	require.Equal(t, float64(7), payload["product_id"])
	require.Equal(t, "Cola", payload["product_name"])
	require.Equal(t, float64(2), payload["product_price"])
	require.Equal(t, "b-1", payload["inventar_id"])
	require.Equal(t, float64(3), payload["inventar_quantity"])
	require.NotEmpty(t, payload["event_id"])
}

func TestPublishProductEvent_BreakerOpensAfterFailures(t *testing.T) {
	brokerDown := errors.New("dial tcp: connection refused")
	writer := &fakeWriter{err: brokerDown}
	p := newPublisher(zap.NewNop(), writer, "vending.products")

	event := service.ProductEvent{Type: service.EventProductDeleted, ProductID: 1}
	for i := 0; i < 3; i++ {
		err := p.PublishProductEvent(context.Background(), event)
		require.ErrorIs(t, err, brokerDown)
	}

	err := p.PublishProductEvent(context.Background(), event)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, 3, writer.calls)
}

func TestClose(t *testing.T) {
	writer := &fakeWriter{}
	p := newPublisher(nil, writer, "vending.products")
	require.NoError(t, p.Close())
	require.True(t, writer.closed)
}

func productEvent(eventType string, id int) service.ProductEvent {
	return service.ProductEvent{Type: eventType, ProductID: id, ProductName: "Cola", ProductPrice: 2}
}
