package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saliou-conde/vending-machine/internal/repository"
)

const (
	hashFieldName       = "product_name"  // имя товара
	hashFieldPrice      = "product_price" // цена товара
	hashFieldInventarID = "inventar_id"   // ID корзины инвентаря

	// generationTTL должен пережить любое чтение из хранилища
	generationTTL = 24 * time.Hour
)

// errStaleRead - товар изменился, пока его читали из хранилища
var errStaleRead = errors.New("product changed during read")

// ProductCache - read-through кеш товаров поверх любого repository.ProductRepository
// Товар хранится в Redis hash с TTL, запись и удаление инвалидируют ключ
// Ошибки Redis не ломают запрос: чтение уходит в основное хранилище
//
// Save и Delete увеличивают поколение ключа. Промах кеша запоминает поколение до чтения
// хранилища и кладёт товар в Redis только если поколение не изменилось (WATCH)
type ProductCache struct {
	next   repository.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProductCache создаёт кеширующий декоратор
func NewProductCache(next repository.ProductRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	return &ProductCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func generationKey(id int) string {
	return fmt.Sprintf("product:%d:gen", id)
}

// List всегда читает из основного хранилища
func (c *ProductCache) List(ctx context.Context) ([]repository.Product, error) {
	return c.next.List(ctx)
}

// GetByID сначала ищет товар в Redis, при промахе читает хранилище и кладёт результат в кеш
func (c *ProductCache) GetByID(ctx context.Context, id int) (repository.Product, error) {
	if p, ok := c.get(ctx, id); ok {
		return p, nil
	}

	gen, genOK := c.generation(ctx, id)

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return repository.Product{}, err
	}
	if genOK {
		c.put(ctx, p, gen)
	}
	return p, nil
}

// Save пишет в хранилище и инвалидирует кеш
func (c *ProductCache) Save(ctx context.Context, product repository.Product) (repository.Product, error) {
	saved, err := c.next.Save(ctx, product)
	if err != nil {
		return repository.Product{}, err
	}
	c.invalidate(ctx, saved.ID)
	return saved, nil
}

// Delete удаляет из хранилища и инвалидирует кеш
func (c *ProductCache) Delete(ctx context.Context, id int) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *ProductCache) get(ctx context.Context, id int) (repository.Product, bool) {
	fields, err := c.client.HGetAll(ctx, productKey(id)).Result()
	if err != nil {
		c.logger.Warn("failed to read product hash from redis",
			zap.Error(err),
			zap.Int("product_id", id),
		)
		return repository.Product{}, false
	}
	// HGETALL на отсутствующем ключе возвращает пустую карту, а не redis.Nil
	if len(fields) == 0 {
		return repository.Product{}, false
	}

	price, err := strconv.Atoi(fields[hashFieldPrice])
	if err != nil {
		c.logger.Warn("corrupted product hash in redis",
			zap.Error(err),
			zap.Int("product_id", id),
		)
		return repository.Product{}, false
	}

	return repository.Product{
		ID:       id,
		Name:     fields[hashFieldName],
		Price:    price,
		BucketID: fields[hashFieldInventarID],
	}, true
}

// generation читает текущее поколение ключа товара; отсутствующий ключ - поколение 0
func (c *ProductCache) generation(ctx context.Context, id int) (int64, bool) {
	gen, err := c.client.Get(ctx, generationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("failed to read product generation from redis",
			zap.Error(err),
			zap.Int("product_id", id),
		)
		return 0, false
	}
	return gen, true
}

func (c *ProductCache) put(ctx context.Context, p repository.Product, gen int64) {
	key := productKey(p.ID)
	genKey := generationKey(p.ID)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleRead
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				hashFieldName, p.Name,
				hashFieldPrice, p.Price,
				hashFieldInventarID, p.BucketID,
			)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("skip caching stale product",
			zap.Int("product_id", p.ID),
		)
	default:
		c.logger.Warn("failed to cache product hash in redis",
			zap.Error(err),
			zap.Int("product_id", p.ID),
		)
	}
}

func (c *ProductCache) invalidate(ctx context.Context, id int) {
	genKey := generationKey(id)

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, generationTTL)
	pipe.Del(ctx, productKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to invalidate product hash in redis",
			zap.Error(err),
			zap.Int("product_id", id),
		)
	}
}
