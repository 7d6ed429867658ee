//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saliou-conde/vending-machine/internal/app"
	"github.com/saliou-conde/vending-machine/internal/config"
)

type inventar struct {
	ID          string `json:"id"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

type product struct {
	ProductID    *int      `json:"productId"`
	ProductName  string    `json:"productName"`
	ProductPrice int       `json:"productPrice"`
	Inventar     *inventar `json:"inventar"`
}

type envelope struct {
	Status     string             `json:"status"`
	StatusCode int                `json:"statusCode"`
	Message    string             `json:"message"`
	Error      string             `json:"error"`
	Path       string             `json:"path"`
	Data       map[string]product `json:"data"`
}

func TestVending_E2E_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// 1) Поднимаем PostgreSQL контейнер
	pgC, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:14-alpine"),
		postgres.WithDatabase("vending"),
		postgres.WithUsername("vending_user"),
		postgres.WithPassword("vending_password"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, pgC.Terminate(ctx)) }()

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// 2) Собираем приложение целиком: миграции применяются в Build
	application, err := app.Build(config.Config{
		AppEnv:          config.EnvLocal,
		HTTPAddr:        "127.0.0.1:0",
		StorageDriver:   config.StoragePostgres,
		PostgresDSN:     dsn,
		ShutdownTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	// 3) Сценарий Cola: create x2, delete, get
	first := call(t, srv, http.MethodPost, "/api/v1/products", `{"productName":"Cola","productPrice":2}`)
	require.Equal(t, "CREATED", first.Status)
	require.Equal(t, 1, first.Data["product"].Inventar.Quantity)

	second := call(t, srv, http.MethodPost, "/api/v1/products", `{"productName":"Cola","productPrice":2}`)
	require.Equal(t, 2, second.Data["product"].Inventar.Quantity)
	require.Equal(t, first.Data["product"].Inventar.ID, second.Data["product"].Inventar.ID)

	firstID := *first.Data["product"].ProductID
	deleted := call(t, srv, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", firstID), "")
	require.Equal(t, "OK", deleted.Status)
	require.Equal(t, 1, deleted.Data["product"].Inventar.Quantity)

	missing := call(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", firstID), "")
	require.Equal(t, "NOT_FOUND", missing.Status)

	// 4) Конкурентные create не проходят через лимит корзины
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		denied  int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env, err := tryCall(srv, http.MethodPost, "/api/v1/products", `{"productName":"Water","productPrice":1}`)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				return
			}
			switch env.Status {
			case "CREATED":
				created++
			case "BAD_REQUEST":
				denied++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, created)
	require.Equal(t, 10, denied)

	resp, err := http.Get(srv.URL + "/api/v1/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 11)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) envelope {
	t.Helper()
	env, err := tryCall(srv, method, path, body)
	require.NoError(t, err)
	return env
}

func tryCall(srv *httptest.Server, method, path, body string) (envelope, error) {
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	}
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return envelope{}, fmt.Errorf("unexpected protocol status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, err
	}
	return env, nil
}
