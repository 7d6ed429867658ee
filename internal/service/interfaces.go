package service

import "context"

// Типы событий жизненного цикла товара
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent - событие изменения товара для внешних подписчиков
type ProductEvent struct {
	Type             string
	ProductID        int
	ProductName      string
	ProductPrice     int
	InventarID       string
	InventarQuantity int
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=ProductEventPublisher --dir=. --output=./mocks --outpkg=mocks

// ProductEventPublisher публикует события товара
// Service не знает о Kafka: реализация подставляется в app
type ProductEventPublisher interface {
	PublishProductEvent(ctx context.Context, event ProductEvent) error
}

// MetricsRecorder собирает бизнес-метрики каталога
type MetricsRecorder interface {
	// RecordOperation считает выполненную операцию с итоговым статусом конверта
	RecordOperation(operation, status string)
	// SetBucketQuantity выставляет текущее значение корзины
	SetBucketQuantity(name string, quantity int)
}

// NopPublisher ничего не публикует (Kafka выключена)
type NopPublisher struct{}

func (NopPublisher) PublishProductEvent(context.Context, ProductEvent) error { return nil }

// NopMetrics ничего не записывает
type NopMetrics struct{}

func (NopMetrics) RecordOperation(string, string) {}

func (NopMetrics) SetBucketQuantity(string, int) {}
