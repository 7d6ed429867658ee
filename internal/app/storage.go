package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // драйвер pgx для goose миграций
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	platformshutdown "github.com/saliou-conde/vending-machine/platform/shutdown"

	"github.com/saliou-conde/vending-machine/internal/config"
	"github.com/saliou-conde/vending-machine/internal/repository"
	"github.com/saliou-conde/vending-machine/internal/repository/memory"
	mongorepo "github.com/saliou-conde/vending-machine/internal/repository/mongo"
	"github.com/saliou-conde/vending-machine/internal/repository/postgres"
	redisrepo "github.com/saliou-conde/vending-machine/internal/repository/redis"
	"github.com/saliou-conde/vending-machine/migrations"
)

// storage - выбранное хранилище товаров и корзин
type storage struct {
	products  repository.ProductRepository
	buckets   repository.BucketRepository
	readiness func() bool
	closers   []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

func (s *storage) closeAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].fn(ctx)
	}
}

// openStorage подключает хранилище по STORAGE_DRIVER и, если включено, Redis кэш товаров
func openStorage(cfg config.Config, logger *zap.Logger) (*storage, error) {
	var (
		st  *storage
		err error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		st, err = openPostgres(cfg, logger)
	case config.StorageMongo:
		st, err = openMongo(cfg, logger)
	default:
		logger.Info("Using in-memory storage")
		st = &storage{
			products:  memory.NewProductRepository(),
			buckets:   memory.NewBucketRepository(),
			readiness: func() bool { return true },
		}
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisEnabled {
		if err := st.withRedisCache(cfg, logger); err != nil {
			st.closeAll()
			return nil, err
		}
	}
	return st, nil
}

func openPostgres(cfg config.Config, logger *zap.Logger) (*storage, error) {
	logger.Info("Connecting to PostgreSQL")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	logger.Info("PostgreSQL connection established")

	logger.Info("Applying database migrations")
	if err := migrate(ctx, cfg.PostgresDSN); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("Database migrations applied successfully")

	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}

	return &storage{
		products:  postgres.NewProductRepository(pool),
		buckets:   postgres.NewBucketRepository(pool),
		readiness: readiness,
		closers:   []closer{{name: "postgres_pool", fn: platformshutdown.ClosePool(pool)}},
	}, nil
}

// migrate применяет встроенные в бинарник goose миграции
func migrate(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migrations db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func openMongo(cfg config.Config, logger *zap.Logger) (*storage, error) {
	logger.Info("Connecting to MongoDB")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("MongoDB connection established")

	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx, nil) == nil
	}

	return &storage{
		products:  mongorepo.NewProductRepository(client, cfg.MongoDBName),
		buckets:   mongorepo.NewBucketRepository(client, cfg.MongoDBName),
		readiness: readiness,
		closers:   []closer{{name: "mongodb", fn: platformshutdown.DisconnectMongo(client)}},
	}, nil
}

// withRedisCache оборачивает репозиторий товаров read-through кэшем
// Корзины не кэшируются: их значение меняется при каждом create/delete
func (s *storage) withRedisCache(cfg config.Config, logger *zap.Logger) error {
	logger.Info("Connecting to Redis", zap.String("addr", cfg.RedisAddr))
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Redis connection established")

	s.products = redisrepo.NewProductCache(s.products, client, cfg.ProductCacheTTL, logger)
	s.closers = append(s.closers, closer{name: "redis", fn: platformshutdown.CloseCloser(client)})
	return nil
}
