package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformobservability "github.com/saliou-conde/vending-machine/platform/observability"

	"github.com/saliou-conde/vending-machine/internal/inventory"
	"github.com/saliou-conde/vending-machine/internal/repository"
)

// Имена операций для метрик
const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opDelete = "delete"
	opUpdate = "update"
)

// ProductService содержит бизнес-логику каталога товаров
// Каждая мутация товара синхронно согласуется с корзиной инвентаря через BucketRepository.Mutate
type ProductService struct {
	products  repository.ProductRepository
	buckets   repository.BucketRepository
	publisher ProductEventPublisher
	metrics   MetricsRecorder
	logger    *zap.Logger

	newBucketID func() string
	now         func() time.Time
}

// NewProductService создаёт новый экземпляр ProductService
// publisher, metrics и logger могут быть nil - тогда используются no-op реализации
func NewProductService(
	products repository.ProductRepository,
	buckets repository.BucketRepository,
	publisher ProductEventPublisher,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *ProductService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:    products,
		buckets:     buckets,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		newBucketID: uuid.NewString,
		now:         time.Now,
	}
}

// ProductInput содержит входные данные для создания и обновления товара
type ProductInput struct {
	Name  string
	Price int
}

// ListProducts возвращает все товары с их корзинами
func (s *ProductService) ListProducts(ctx context.Context) ([]ProductView, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	buckets := make(map[string]*repository.Bucket)
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		bucket, seen := buckets[p.BucketID]
		if !seen {
			bucket, err = s.resolveBucket(ctx, p)
			if err != nil {
				return nil, err
			}
			buckets[p.BucketID] = bucket
		}
		views = append(views, ProductView{Product: p, Bucket: bucket})
	}

	s.metrics.RecordOperation(opList, StatusName(http.StatusOK))
	return views, nil
}

// GetProduct получает товар по ID
// Отсутствие товара - бизнес-результат NOT_FOUND, а не ошибка
func (s *ProductService) GetProduct(ctx context.Context, id int) (*Result, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(opGet, s.notFound(id)), nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	if p.ID != id {
		return s.finish(opGet, s.notFound(id)), nil
	}

	bucket, err := s.resolveBucket(ctx, p)
	if err != nil {
		return nil, err
	}

	r := s.result(http.StatusOK, productPath(id), ProductView{Product: p, Bucket: bucket})
	r.Message = msgProductFoundByID + strconv.Itoa(id)
	return s.finish(opGet, r), nil
}

// CreateProduct создаёт товар и увеличивает корзину с тем же именем
// Переполненная корзина - бизнес-результат BAD_REQUEST, в data возвращается входной товар
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*Result, error) {
	log := platformobservability.L(ctx, s.logger)

	bucket, err := s.buckets.Mutate(ctx, input.Name, inventory.CreateMutation(input.Name, s.newBucketID))
	if err != nil {
		if errors.Is(err, inventory.ErrMaxStockExceeded) {
			log.Info("product rejected: inventar is full", zap.String("product_name", input.Name))
			r := s.result(http.StatusBadRequest, ProductAPIPath, ProductView{
				Product: repository.Product{Name: input.Name, Price: input.Price},
			})
			r.Error = errProductNotAdded
			r.Message = msgMaxStockExceeded
			return s.finish(opCreate, r), nil
		}
		return nil, fmt.Errorf("failed to update inventar for %q: %w", input.Name, err)
	}
	if bucket == nil {
		return nil, fmt.Errorf("inventar for %q was not written", input.Name)
	}
	s.metrics.SetBucketQuantity(bucket.Name, bucket.Quantity)

	saved, err := s.products.Save(ctx, repository.Product{
		Name:     input.Name,
		Price:    input.Price,
		BucketID: bucket.ID,
	})
	if err != nil {
		s.compensateCreate(ctx, input.Name)
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	log.Info("product created",
		zap.Int("product_id", saved.ID),
		zap.String("product_name", saved.Name),
		zap.Int("inventar_quantity", bucket.Quantity),
	)
	s.publish(ctx, EventProductCreated, saved, bucket)

	return s.finish(opCreate, s.result(http.StatusCreated, ProductAPIPath, ProductView{Product: saved, Bucket: bucket})), nil
}

// DeleteProduct удаляет товар и уменьшает корзину с его именем
// Товар удаляется до декремента: из конкурентных удалений корзину уменьшит только успешное
// Если декремент упал, товар уже удалён и корзина остаётся на единицу больше (ошибка в логе и 500)
func (s *ProductService) DeleteProduct(ctx context.Context, id int) (*Result, error) {
	log := platformobservability.L(ctx, s.logger)

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(opDelete, s.notFound(id)), nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.finish(opDelete, s.notFound(id)), nil
		}
		return nil, fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	bucket, err := s.buckets.Mutate(ctx, p.Name, inventory.DeleteMutation(p.Name))
	if err != nil {
		log.Error("product deleted but inventar was not decremented",
			zap.Error(err),
			zap.Int("product_id", id),
			zap.String("product_name", p.Name),
		)
		return nil, fmt.Errorf("failed to update inventar for %q: %w", p.Name, err)
	}
	if bucket != nil {
		s.metrics.SetBucketQuantity(bucket.Name, bucket.Quantity)
	}

	log.Info("product deleted", zap.Int("product_id", id), zap.String("product_name", p.Name))
	s.publish(ctx, EventProductDeleted, p, bucket)

	return s.finish(opDelete, s.result(http.StatusOK, productPath(id), ProductView{Product: p, Bucket: bucket})), nil
}

// UpdateProduct полностью заменяет имя и цену товара
// Связь с корзиной сохраняется и не пересчитывается, даже если имя изменилось
// Если товара нет или ID не совпадает, возвращает (nil, nil)
func (s *ProductService) UpdateProduct(ctx context.Context, id int, input ProductInput) (*Result, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordOperation(opUpdate, "ABSENT")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	if p.ID != id {
		s.metrics.RecordOperation(opUpdate, "ABSENT")
		return nil, nil
	}

	saved, err := s.products.Save(ctx, repository.Product{
		ID:       id,
		Name:     input.Name,
		Price:    input.Price,
		BucketID: p.BucketID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordOperation(opUpdate, "ABSENT")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	bucket, err := s.resolveBucket(ctx, saved)
	if err != nil {
		return nil, err
	}

	platformobservability.L(ctx, s.logger).Info("product updated", zap.Int("product_id", id))
	s.publish(ctx, EventProductUpdated, saved, bucket)

	return s.finish(opUpdate, s.result(http.StatusOK, productPath(id), ProductView{Product: saved, Bucket: bucket})), nil
}

// resolveBucket находит корзину товара по явной ссылке BucketID
func (s *ProductService) resolveBucket(ctx context.Context, p repository.Product) (*repository.Bucket, error) {
	if p.BucketID == "" {
		return nil, nil
	}
	b, err := s.buckets.GetByID(ctx, p.BucketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get inventar %s: %w", p.BucketID, err)
	}
	return &b, nil
}

// compensateCreate откатывает инкремент корзины, если товар не удалось сохранить
func (s *ProductService) compensateCreate(ctx context.Context, name string) {
	bucket, err := s.buckets.Mutate(ctx, name, inventory.DeleteMutation(name))
	if err != nil {
		platformobservability.L(ctx, s.logger).Error("failed to roll back inventar increment",
			zap.Error(err),
			zap.String("product_name", name),
		)
		return
	}
	if bucket != nil {
		s.metrics.SetBucketQuantity(bucket.Name, bucket.Quantity)
	}
}

// publish отправляет событие; ошибка публикации не меняет результат операции
func (s *ProductService) publish(ctx context.Context, eventType string, p repository.Product, bucket *repository.Bucket) {
	event := ProductEvent{
		Type:         eventType,
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductPrice: p.Price,
		InventarID:   p.BucketID,
	}
	if bucket != nil {
		event.InventarQuantity = bucket.Quantity
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		platformobservability.L(ctx, s.logger).Warn("failed to publish product event",
			zap.Error(err),
			zap.String("event_type", eventType),
			zap.Int("product_id", p.ID),
		)
	}
}

func (s *ProductService) finish(op string, r *Result) *Result {
	s.metrics.RecordOperation(op, r.Status())
	return r
}
