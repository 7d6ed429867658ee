//go:build integration

package mongo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saliou-conde/vending-machine/internal/inventory"
	"github.com/saliou-conde/vending-machine/internal/repository"
)

func TestRepository_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := mongodb.RunContainer(ctx, tc.WithImage("mongo:6"))
	require.NoError(t, err)
	defer func() { require.NoError(t, mongoC.Terminate(context.Background())) }()

	mongoURI, err := mongoC.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	// Ждём готовности MongoDB (ping с retry)
	var pingErr error
	for i := 0; i < 20; i++ {
		pingErr = client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		if pingErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, pingErr, "MongoDB did not become ready in time")

	const dbName = "vending"
	products := NewProductRepository(client, dbName)
	buckets := NewBucketRepository(client, dbName)

	t.Run("product ids come from counter", func(t *testing.T) {
		first, err := products.Save(ctx, repository.Product{Name: "Cola", Price: 350})
		require.NoError(t, err)
		second, err := products.Save(ctx, repository.Product{Name: "Cola", Price: 350})
		require.NoError(t, err)
		require.Equal(t, first.ID+1, second.ID)

		list, err := products.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)

		first.Price = 500
		_, err = products.Save(ctx, first)
		require.NoError(t, err)
		got, err := products.GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, 500, got.Price)

		require.NoError(t, products.Delete(ctx, first.ID))
		require.ErrorIs(t, products.Delete(ctx, first.ID), repository.ErrNotFound)
		_, err = products.Save(ctx, repository.Product{ID: first.ID, Name: "Cola"})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("bucket create, increment, decrement", func(t *testing.T) {
		created, err := buckets.Mutate(ctx, "Sprite", inventory.CreateMutation("Sprite", uuid.NewString))
		require.NoError(t, err)
		require.Equal(t, 1, created.Quantity)

		next, err := buckets.Mutate(ctx, "Sprite", inventory.CreateMutation("Sprite", uuid.NewString))
		require.NoError(t, err)
		require.Equal(t, 2, next.Quantity)

		next, err = buckets.Mutate(ctx, "Sprite", inventory.DeleteMutation("Sprite"))
		require.NoError(t, err)
		require.Equal(t, 1, next.Quantity)

		byID, err := buckets.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, 1, byID.Quantity)
	})

	t.Run("concurrent creates honor cap", func(t *testing.T) {
		const attempts = 20
		var wg sync.WaitGroup
		errs := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := buckets.Mutate(ctx, "Fanta", inventory.CreateMutation("Fanta", uuid.NewString))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		accepted := 0
		for err := range errs {
			if err == nil {
				accepted++
				continue
			}
			require.ErrorIs(t, err, inventory.ErrMaxStockExceeded)
		}
		require.Equal(t, inventory.MaxQuantity+1, accepted)

		got, err := buckets.GetByName(ctx, "Fanta")
		require.NoError(t, err)
		require.Equal(t, inventory.MaxQuantity+1, got.Quantity)
	})
}
