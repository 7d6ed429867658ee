package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saliou-conde/vending-machine/internal/repository"
)

const (
	productsCollection = "products"
	inventarCollection = "inventar"
	countersCollection = "counters"

	// productSequence - ключ счётчика целочисленных ID товаров
	productSequence = "products"

	// maxOptimisticRetries ограничивает число попыток при конфликте версий корзины
	maxOptimisticRetries = 64
)

// ProductDocument представляет документ товара в MongoDB
type ProductDocument struct {
	ID         int    `bson:"_id"`
	Name       string `bson:"product_name"`
	Price      int    `bson:"product_price"`
	InventarID string `bson:"inventar_id,omitempty"`
}

// InventarDocument представляет документ корзины инвентаря
// Version увеличивается при каждой записи и используется для оптимистичной блокировки
type InventarDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"product_name"`
	Quantity  int       `bson:"quantity"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int    `bson:"seq"`
}

// ProductRepository реализует repository.ProductRepository используя MongoDB
type ProductRepository struct {
	products *mongo.Collection
	counters *mongo.Collection
}

// NewProductRepository создаёт новый MongoDB репозиторий товаров
func NewProductRepository(client *mongo.Client, dbName string) *ProductRepository {
	db := client.Database(dbName)
	return &ProductRepository{
		products: db.Collection(productsCollection),
		counters: db.Collection(countersCollection),
	}
}

// List возвращает все товары в порядке возрастания ID
func (r *ProductRepository) List(ctx context.Context) ([]repository.Product, error) {
	cur, err := r.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := make([]repository.Product, 0)
	for cur.Next(ctx) {
		var doc ProductDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		products = append(products, toProduct(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID получает товар по ID
func (r *ProductRepository) GetByID(ctx context.Context, id int) (repository.Product, error) {
	var doc ProductDocument
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.Product{}, repository.ErrNotFound
		}
		return repository.Product{}, err
	}
	return toProduct(doc), nil
}

// Save вставляет товар с ID из счётчика или заменяет существующий документ
func (r *ProductRepository) Save(ctx context.Context, product repository.Product) (repository.Product, error) {
	if product.ID == 0 {
		id, err := r.nextID(ctx)
		if err != nil {
			return repository.Product{}, fmt.Errorf("next product id: %w", err)
		}
		product.ID = id
		if _, err := r.products.InsertOne(ctx, toProductDocument(product)); err != nil {
			return repository.Product{}, err
		}
		return product, nil
	}

	res, err := r.products.ReplaceOne(ctx, bson.M{"_id": product.ID}, toProductDocument(product))
	if err != nil {
		return repository.Product{}, err
	}
	if res.MatchedCount == 0 {
		return repository.Product{}, repository.ErrNotFound
	}
	return product, nil
}

// Delete удаляет товар по ID
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	res, err := r.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// nextID атомарно увеличивает счётчик товаров через FindOneAndUpdate с upsert
func (r *ProductRepository) nextID(ctx context.Context) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDocument
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": productSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// BucketRepository реализует repository.BucketRepository используя MongoDB
type BucketRepository struct {
	col *mongo.Collection
}

// NewBucketRepository создаёт новый MongoDB репозиторий корзин
// Создаёт уникальный индекс на product_name при инициализации
func NewBucketRepository(client *mongo.Client, dbName string) *BucketRepository {
	col := client.Database(dbName).Collection(inventarCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "product_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Создаём индекс (если уже существует - игнорируем ошибку)
	_, _ = col.Indexes().CreateOne(ctx, indexModel)

	return &BucketRepository{col: col}
}

// GetByName получает корзину по имени товара
func (r *BucketRepository) GetByName(ctx context.Context, name string) (repository.Bucket, error) {
	doc, err := r.findOne(ctx, bson.M{"product_name": name})
	if err != nil {
		return repository.Bucket{}, err
	}
	return toBucket(doc), nil
}

// GetByID получает корзину по её ID
func (r *BucketRepository) GetByID(ctx context.Context, id string) (repository.Bucket, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return repository.Bucket{}, err
	}
	return toBucket(doc), nil
}

func (r *BucketRepository) findOne(ctx context.Context, filter bson.M) (InventarDocument, error) {
	var doc InventarDocument
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return InventarDocument{}, repository.ErrNotFound
		}
		return InventarDocument{}, err
	}
	return doc, nil
}

// Mutate применяет fn с оптимистичной проверкой версии
// Обновление проходит, только если version не изменилась с момента чтения
// Первая вставка опирается на уникальный индекс: duplicate key означает, что конкурент успел раньше
func (r *BucketRepository) Mutate(ctx context.Context, name string, fn repository.BucketMutation) (*repository.Bucket, error) {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		var existing *repository.Bucket
		current, err := r.findOne(ctx, bson.M{"product_name": name})
		switch {
		case err == nil:
			b := toBucket(current)
			existing = &b
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, err
		}

		next, err := fn(existing)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}

		if existing == nil {
			_, err := r.col.InsertOne(ctx, InventarDocument{
				ID:        next.ID,
				Name:      next.Name,
				Quantity:  next.Quantity,
				Version:   1,
				UpdatedAt: time.Now(),
			})
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return next, nil
		}

		filter := bson.M{
			"_id":     current.ID,
			"version": current.Version,
		}
		update := bson.M{
			"$set": bson.M{"quantity": next.Quantity, "updated_at": time.Now()},
			"$inc": bson.M{"version": 1},
		}
		res, err := r.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			// Версия изменилась - перечитываем
			continue
		}
		return next, nil
	}
	return nil, fmt.Errorf("mutate inventar %q: optimistic retries exhausted", name)
}

func toProduct(doc ProductDocument) repository.Product {
	return repository.Product{
		ID:       doc.ID,
		Name:     doc.Name,
		Price:    doc.Price,
		BucketID: doc.InventarID,
	}
}

func toProductDocument(p repository.Product) ProductDocument {
	return ProductDocument{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		InventarID: p.BucketID,
	}
}

func toBucket(doc InventarDocument) repository.Bucket {
	return repository.Bucket{
		ID:       doc.ID,
		Name:     doc.Name,
		Quantity: doc.Quantity,
	}
}
