package observability

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaders_RoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg := kafka.Message{Headers: []kafka.Header{{Key: "content-type", Value: []byte("application/json")}}}
	InjectKafkaHeaders(ctx, &msg)
	InjectKafkaHeaders(ctx, &msg)

	require.Len(t, msg.Headers, 2)
	require.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", kafkaHeaderCarrier{msg: &msg}.Get("traceparent"))

	extracted := trace.SpanContextFromContext(ExtractKafkaHeaders(context.Background(), &msg))
	require.Equal(t, traceID, extracted.TraceID())
	require.Equal(t, spanID, extracted.SpanID())
	require.True(t, extracted.IsRemote())
}
