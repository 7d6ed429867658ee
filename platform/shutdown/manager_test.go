package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloser struct {
	closed bool
	err    error
}

func (c *fakeCloser) Close() error {
	c.closed = true
	return c.err
}

func (c *fakeCloser) Shutdown(ctx context.Context) error {
	return c.Close()
}

func TestManager_RunsInReverseOrder(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var order []string
	for _, name := range []string{"postgres_pool", "kafka_publisher", "http_server"} {
		name := name
		m.Add(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	m.Shutdown()
	require.Equal(t, []string{"http_server", "kafka_publisher", "postgres_pool"}, order)
}

func TestManager_ContinuesAfterError(t *testing.T) {
	m := New(time.Second, nil)

	first := &fakeCloser{}
	failing := &fakeCloser{err: errors.New("boom")}
	m.Add("first", CloseCloser(first))
	m.Add("failing", ShutdownHTTPServer(failing))

	m.Shutdown()
	require.True(t, failing.closed)
	require.True(t, first.closed)
}

func TestManager_WaitContext(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var gotDeadline bool
	m.Add("check_deadline", func(ctx context.Context) error {
		_, gotDeadline = ctx.Deadline()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.WaitContext(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitContext did not return after cancel")
	}
	require.True(t, gotDeadline)
}
