//go:build integration

package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresBackendForTest connects to POSTGRES_HOST when set, otherwise
// starts a throwaway postgres container.
func newPostgresBackendForTest(t *testing.T) *PostgresBackend {
	t.Helper()
	ctx := context.Background()

	cfg := types.PostgresConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		User:     "s3meta",
		Password: "s3meta",
		Database: "s3meta_test",
	}

	if cfg.Host == "" {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_DB":       cfg.Database,
					"POSTGRES_USER":     cfg.User,
					"POSTGRES_PASSWORD": cfg.Password,
				},
				WaitingFor: wait.ForAll(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(60*time.Second),
					wait.ForListeningPort("5432/tcp"),
				),
			},
			Started: true,
		})
		require.NoError(t, err)
		t.Cleanup(func() { container.Terminate(context.Background()) })

		cfg.Host, err = container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "5432")
		require.NoError(t, err)
		cfg.Port = port.Int()
	} else if p := os.Getenv("POSTGRES_PORT"); p != "" {
		cfg.Port, _ = strconv.Atoi(p)
	}

	backend, err := NewPostgresBackend(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	require.NoError(t, backend.RunMigrations())
	_, err = backend.DB().ExecContext(ctx, `TRUNCATE s3_query_permission`)
	require.NoError(t, err)
	return backend
}

func TestPostgresPermissionStore(t *testing.T) {
	testPermissionAdmin(t, newPostgresBackendForTest(t))
}
