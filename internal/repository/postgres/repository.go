package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saliou-conde/vending-machine/internal/repository"
)

// maxInsertRetries ограничивает повторы, когда первую вставку корзины опередила конкурентная транзакция
const maxInsertRetries = 3

// ProductRepository реализует repository.ProductRepository используя PostgreSQL
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository создаёт новый PostgreSQL репозиторий товаров
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List возвращает все товары в порядке возрастания ID
func (r *ProductRepository) List(ctx context.Context) ([]repository.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, product_name, product_price, COALESCE(inventar_id, '')
		 FROM products
		 ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]repository.Product, 0)
	for rows.Next() {
		var p repository.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.BucketID); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID получает товар по ID из PostgreSQL
func (r *ProductRepository) GetByID(ctx context.Context, id int) (repository.Product, error) {
	var p repository.Product
	err := r.pool.QueryRow(ctx,
		`SELECT product_id, product_name, product_price, COALESCE(inventar_id, '')
		 FROM products
		 WHERE product_id = $1`,
		id).Scan(&p.ID, &p.Name, &p.Price, &p.BucketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Product{}, repository.ErrNotFound
		}
		return repository.Product{}, err
	}
	return p, nil
}

// Save вставляет товар (ID присваивает SERIAL) или полностью заменяет существующий
func (r *ProductRepository) Save(ctx context.Context, product repository.Product) (repository.Product, error) {
	if product.ID == 0 {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO products (product_name, product_price, inventar_id)
			 VALUES ($1, $2, NULLIF($3, ''))
			 RETURNING product_id`,
			product.Name, product.Price, product.BucketID).Scan(&product.ID)
		if err != nil {
			return repository.Product{}, err
		}
		return product, nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET product_name = $2, product_price = $3, inventar_id = NULLIF($4, '')
		 WHERE product_id = $1`,
		product.ID, product.Name, product.Price, product.BucketID)
	if err != nil {
		return repository.Product{}, err
	}
	if tag.RowsAffected() == 0 {
		return repository.Product{}, repository.ErrNotFound
	}
	return product, nil
}

// Delete удаляет товар по ID
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// BucketRepository реализует repository.BucketRepository используя PostgreSQL
type BucketRepository struct {
	pool *pgxpool.Pool
}

// NewBucketRepository создаёт новый PostgreSQL репозиторий корзин
func NewBucketRepository(pool *pgxpool.Pool) *BucketRepository {
	return &BucketRepository{pool: pool}
}

// GetByName получает корзину по имени товара
func (r *BucketRepository) GetByName(ctx context.Context, name string) (repository.Bucket, error) {
	return r.getOne(ctx, `SELECT id, product_name, quantity FROM inventar WHERE product_name = $1`, name)
}

// GetByID получает корзину по её ID
func (r *BucketRepository) GetByID(ctx context.Context, id string) (repository.Bucket, error) {
	return r.getOne(ctx, `SELECT id, product_name, quantity FROM inventar WHERE id = $1`, id)
}

func (r *BucketRepository) getOne(ctx context.Context, query string, arg any) (repository.Bucket, error) {
	var b repository.Bucket
	err := r.pool.QueryRow(ctx, query, arg).Scan(&b.ID, &b.Name, &b.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Bucket{}, repository.ErrNotFound
		}
		return repository.Bucket{}, err
	}
	return b, nil
}

// Mutate применяет fn к корзине внутри транзакции
// Существующая строка блокируется через SELECT ... FOR UPDATE
// Первая вставка идёт через ON CONFLICT DO NOTHING: если конкурентная транзакция успела раньше, цикл повторяется
func (r *BucketRepository) Mutate(ctx context.Context, name string, fn repository.BucketMutation) (*repository.Bucket, error) {
	for attempt := 0; attempt < maxInsertRetries; attempt++ {
		bucket, retry, err := r.mutateOnce(ctx, name, fn)
		if err != nil {
			return nil, err
		}
		if !retry {
			return bucket, nil
		}
	}
	return nil, fmt.Errorf("mutate inventar %q: concurrent insert retries exhausted", name)
}

func (r *BucketRepository) mutateOnce(ctx context.Context, name string, fn repository.BucketMutation) (*repository.Bucket, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	// Гарантируем откат транзакции в случае ошибки
	defer tx.Rollback(ctx)

	var existing *repository.Bucket
	var current repository.Bucket
	err = tx.QueryRow(ctx,
		`SELECT id, product_name, quantity
		 FROM inventar
		 WHERE product_name = $1
		 FOR UPDATE`,
		name).Scan(&current.ID, &current.Name, &current.Quantity)
	switch {
	case err == nil:
		existing = &current
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, false, err
	}

	next, err := fn(existing)
	if err != nil {
		return nil, false, err
	}
	if next == nil {
		return nil, false, nil
	}

	if existing == nil {
		tag, err := tx.Exec(ctx,
			`INSERT INTO inventar (id, product_name, quantity)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (product_name) DO NOTHING`,
			next.ID, next.Name, next.Quantity)
		if err != nil {
			return nil, false, err
		}
		if tag.RowsAffected() == 0 {
			return nil, true, nil
		}
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE inventar
			 SET quantity = $2, updated_at = now()
			 WHERE id = $1`,
			next.ID, next.Quantity)
		if err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return next, false, nil
}
