package repository

import (
	"context"
	"errors"
)

// Product представляет товар каталога
// Связь с корзиной инвентаря хранится явно через BucketID, без ленивой подгрузки
type Product struct {
	ID       int
	Name     string
	Price    int // в минимальных единицах валюты
	BucketID string
}

// Bucket представляет корзину инвентаря (Inventar) для одного имени товара
// Name уникален в хранилище, Quantity - число живых товаров с этим именем
type Bucket struct {
	ID       string
	Name     string
	Quantity int
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=ProductRepository --dir=. --output=./mocks --outpkg=mocks

// ProductRepository определяет интерфейс для работы с хранилищем товаров
// Service слой зависит от этого интерфейса, а не от конкретной реализации
type ProductRepository interface {
	// List возвращает все товары
	List(ctx context.Context) ([]Product, error)

	// GetByID получает товар по ID
	// Возвращает ErrNotFound, если товар не найден
	GetByID(ctx context.Context, id int) (Product, error)

	// Save сохраняет товар
	// ID == 0 - вставка с присвоением нового ID, иначе полная замена существующей записи
	// Возвращает ErrNotFound, если заменяемой записи нет
	Save(ctx context.Context, product Product) (Product, error)

	// Delete удаляет товар по ID
	// Возвращает ErrNotFound, если товар не найден
	Delete(ctx context.Context, id int) error
}

// BucketMutation получает текущую корзину (nil, если её нет) и возвращает корзину для записи
// nil без ошибки означает "ничего не записывать"
// Функция должна быть чистой: оптимистичные реализации могут вызвать её повторно
type BucketMutation func(existing *Bucket) (*Bucket, error)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=BucketRepository --dir=. --output=./mocks --outpkg=mocks

// BucketRepository определяет интерфейс для работы с корзинами инвентаря
type BucketRepository interface {
	// GetByName получает корзину по имени товара
	// Возвращает ErrNotFound, если корзины нет
	GetByName(ctx context.Context, name string) (Bucket, error)

	// GetByID получает корзину по её ID
	// Возвращает ErrNotFound, если корзины нет
	GetByID(ctx context.Context, id string) (Bucket, error)

	// Mutate атомарно читает корзину по имени, применяет fn и сохраняет результат
	// Изменения одной и той же корзины сериализуются реализацией
	// Возвращает записанную корзину или nil, если fn ничего не вернула
	Mutate(ctx context.Context, name string, fn BucketMutation) (*Bucket, error)
}

// ErrNotFound возвращается, когда запись не найдена в хранилище
var ErrNotFound = errors.New("not found")
