package kafka

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// LoadEnv дополняет cfg значениями из KAFKA_BROKERS и KAFKA_TOPIC
// Незаданные переменные оставляют текущие значения cfg (кроме Topic с envDefault)
func LoadEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse kafka env: %w", err)
	}
	return nil
}
