package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/getmockd/routemock/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStore_RequiresDSN(t *testing.T) {
	s := New(store.Config{Enabled: true, Backend: store.BackendPostgres})
	require.Error(t, s.Open(context.Background()))
	assert.False(t, s.Initialized())

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}

func TestStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "routemock",
				"POSTGRES_PASSWORD": "routemock",
				"POSTGRES_DB":       "routemock",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	}
	container, err := testcontainers.GenericContainer(ctx, req)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	s := New(store.Config{
		Enabled: true,
		Backend: store.BackendPostgres,
		DSN:     fmt.Sprintf("postgres://routemock:routemock@%s:%s/routemock?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, s.Open(ctx))
	defer s.Close()

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	_, err = s.Get(ctx, "overrides")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "overrides", []byte(`[{"routePath":"/users","methodType":"get","name":"a"}]`)))
	require.NoError(t, s.Set(ctx, "overrides", []byte(`[{"routePath":"/users","methodType":"get","name":"b"}]`)))

	got, err := s.Get(ctx, "overrides")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"routePath":"/users","methodType":"get","name":"b"}]`, string(got))

	empty, err = s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)
}
