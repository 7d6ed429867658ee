package kafka

// Config содержит конфигурацию подключения к Kafka
type Config struct {
	// Brokers - список брокеров через запятую: "broker1:9092,broker2:9092"
	//   - локально (go run): localhost:19092
	//   - в Docker: kafka:9092
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// Topic - топик событий каталога товаров
	Topic string `env:"KAFKA_TOPIC" envDefault:"vending.products"`
}

// DefaultConfig возвращает конфигурацию для локальной разработки
func DefaultConfig() Config {
	return Config{
		Brokers: []string{"localhost:19092"},
		Topic:   "vending.products",
	}
}
