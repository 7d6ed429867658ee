//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/saliou-conde/vending-machine/internal/repository"
	"github.com/saliou-conde/vending-machine/internal/repository/mocks"
)

func TestProductCache_Integration(t *testing.T) {
	ctx := context.Background()

	// Поднимаем Redis через generic контейнер
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, redisC.Terminate(ctx)) }()

	addr, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	repo := mocks.NewProductRepository(t)
	cache := NewProductCache(repo, client, time.Minute, zap.NewNop())

	product := repository.Product{ID: 5, Name: "Cola", Price: 350, BucketID: "bucket-1"}

	// Первый GetByID идёт в хранилище, второй отдаётся из Redis
	repo.On("GetByID", ctx, 5).Return(product, nil).Once()

	got, err := cache.GetByID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, product, got)

	got, err = cache.GetByID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, product, got)

	ttl, err := client.TTL(ctx, productKey(5)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	// Save инвалидирует ключ, следующий GetByID снова идёт в хранилище
	updated := product
	updated.Price = 400
	repo.On("Save", ctx, updated).Return(updated, nil).Once()
	_, err = cache.Save(ctx, updated)
	require.NoError(t, err)

	exists, err := client.Exists(ctx, productKey(5)).Result()
	require.NoError(t, err)
	require.Zero(t, exists)

	repo.On("GetByID", ctx, 5).Return(updated, nil).Once()
	got, err = cache.GetByID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 400, got.Price)

	// Delete тоже инвалидирует
	repo.On("Delete", ctx, 5).Return(nil).Once()
	require.NoError(t, cache.Delete(ctx, 5))
	exists, err = client.Exists(ctx, productKey(5)).Result()
	require.NoError(t, err)
	require.Zero(t, exists)

	repo.AssertExpectations(t)
}
