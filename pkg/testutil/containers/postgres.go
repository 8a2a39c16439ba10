//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance with an open
// database/sql handle.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T, schema string) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kiosk_test"),
		tcpostgres.WithUsername("kiosk"),
		tcpostgres.WithPassword("kiosk"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if schema != "" {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			_ = db.Close()
			_ = container.Terminate(ctx)
			t.Fatalf("failed to apply schema: %v", err)
		}
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	t.Cleanup(func() {
		_ = pc.DB.Close()
		_ = pc.Container.Terminate(context.Background())
	})

	return pc
}

// TruncateTables clears the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
