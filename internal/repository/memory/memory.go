package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/saliou-conde/vending-machine/internal/repository"
)

// ProductRepository реализует repository.ProductRepository используя in-memory хранилище
// Используется для локальной разработки и тестов
type ProductRepository struct {
	mu       sync.RWMutex
	nextID   int
	products map[int]repository.Product
}

// NewProductRepository создаёт новый in-memory репозиторий товаров
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[int]repository.Product),
	}
}

// List возвращает все товары в порядке возрастания ID
func (r *ProductRepository) List(ctx context.Context) ([]repository.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]repository.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID получает товар по ID из памяти
func (r *ProductRepository) GetByID(ctx context.Context, id int) (repository.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return repository.Product{}, repository.ErrNotFound
	}
	return p, nil
}

// Save вставляет новый товар (ID == 0) или заменяет существующий
func (r *ProductRepository) Save(ctx context.Context, product repository.Product) (repository.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		r.nextID++
		product.ID = r.nextID
		r.products[product.ID] = product
		return product, nil
	}

	if _, ok := r.products[product.ID]; !ok {
		return repository.Product{}, repository.ErrNotFound
	}
	r.products[product.ID] = product
	return product, nil
}

// Delete удаляет товар по ID
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// BucketRepository реализует repository.BucketRepository в памяти
// Мутации одной корзины сериализуются отдельным мьютексом на имя товара
type BucketRepository struct {
	mu      sync.RWMutex
	buckets map[string]repository.Bucket // name -> bucket

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewBucketRepository создаёт новый in-memory репозиторий корзин
func NewBucketRepository() *BucketRepository {
	return &BucketRepository{
		buckets: make(map[string]repository.Bucket),
		locks:   make(map[string]*sync.Mutex),
	}
}

// GetByName получает корзину по имени товара
func (r *BucketRepository) GetByName(ctx context.Context, name string) (repository.Bucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buckets[name]
	if !ok {
		return repository.Bucket{}, repository.ErrNotFound
	}
	return b, nil
}

// GetByID получает корзину по её ID
func (r *BucketRepository) GetByID(ctx context.Context, id string) (repository.Bucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.buckets {
		if b.ID == id {
			return b, nil
		}
	}
	return repository.Bucket{}, repository.ErrNotFound
}

// Mutate применяет fn к корзине под блокировкой её имени
func (r *BucketRepository) Mutate(ctx context.Context, name string, fn repository.BucketMutation) (*repository.Bucket, error) {
	lock := r.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	var existing *repository.Bucket
	r.mu.RLock()
	if b, ok := r.buckets[name]; ok {
		existing = &b
	}
	r.mu.RUnlock()

	next, err := fn(existing)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, nil
	}

	r.mu.Lock()
	r.buckets[name] = *next
	r.mu.Unlock()

	return next, nil
}

func (r *BucketRepository) lockFor(name string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}
