package observability

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// kafkaHeaderCarrier адаптирует заголовки kafka.Message к propagation.TextMapCarrier
type kafkaHeaderCarrier struct {
	msg *kafka.Message
}

func (c kafkaHeaderCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c kafkaHeaderCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c kafkaHeaderCarrier) Keys() []string {
	out := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		out = append(out, h.Key)
	}
	return out
}

// InjectKafkaHeaders записывает trace context из ctx в заголовки сообщения (traceparent, baggage)
func InjectKafkaHeaders(ctx context.Context, msg *kafka.Message) {
	otel.GetTextMapPropagator().Inject(ctx, kafkaHeaderCarrier{msg: msg})
}

// ExtractKafkaHeaders восстанавливает trace context из заголовков сообщения
func ExtractKafkaHeaders(ctx context.Context, msg *kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, kafkaHeaderCarrier{msg: msg})
}
