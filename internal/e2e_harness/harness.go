package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHarness holds lightweight runners for dependencies used by E2E tests.
type TestHarness struct {
	PGContainer testcontainers.Container
	PGDSN       string
	PGDB        *sql.DB
	PGPool      *pgxpool.Pool
	S3Container testcontainers.Container
	S3Endpoint  string
}

// StartPostgres starts a postgres container and returns a DSN.
// It waits until Postgres is reachable. Caller is responsible for calling StopPostgres.
func (h *TestHarness) StartPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.PGContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	h.PGDSN = dsn

	// Open DB connection
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", err
	}
	h.PGDB = db

	// Wait for the server to actually accept queries, the listening port
	// comes up slightly before postgres finishes init.
	deadline := time.Now().Add(20 * time.Second)
	for {
		if err := db.PingContext(ctx); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("postgres did not become ready: ping timeout")
		}
		time.Sleep(200 * time.Millisecond)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("open pgx pool: %w", err)
	}
	h.PGPool = pool

	return dsn, nil
}

// StopPostgres terminates the postgres container and closes connections.
func (h *TestHarness) StopPostgres(ctx context.Context) error {
	if h.PGPool != nil {
		h.PGPool.Close()
		h.PGPool = nil
	}
	if h.PGDB != nil {
		h.PGDB.Close()
		h.PGDB = nil
	}
	if h.PGContainer != nil {
		err := h.PGContainer.Terminate(ctx)
		h.PGContainer = nil
		return err
	}
	return nil
}

// StartS3 starts a RustFS container exposing an S3-compatible endpoint for
// attachment storage. Caller is responsible for calling StopS3.
func (h *TestHarness) StartS3(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "rustfs/rustfs:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": "minio",
			"RUSTFS_SECRET_KEY": "minio",
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.S3Container = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "9000")
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("http://%s:%s", host, mapped.Port())
	h.S3Endpoint = endpoint
	return endpoint, nil
}

// StopS3 terminates the RustFS container.
func (h *TestHarness) StopS3(ctx context.Context) error {
	if h.S3Container != nil {
		err := h.S3Container.Terminate(ctx)
		h.S3Container = nil
		return err
	}
	return nil
}
