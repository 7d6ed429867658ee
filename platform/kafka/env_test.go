package kafka

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Run("keeps defaults when env is empty", func(t *testing.T) {
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("KAFKA_TOPIC")

		cfg := DefaultConfig()
		require.NoError(t, LoadEnv(&cfg))
		require.Equal(t, []string{"localhost:19092"}, cfg.Brokers)
		require.Equal(t, "vending.products", cfg.Topic)
	})

	t.Run("splits brokers by comma", func(t *testing.T) {
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("KAFKA_TOPIC", "catalog")

		cfg := DefaultConfig()
		require.NoError(t, LoadEnv(&cfg))
		require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
		require.Equal(t, "catalog", cfg.Topic)
	})
}
