package database

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// barStore is a migrated price_data_daily database running in a throwaway container
type barStore struct {
	*DB
}

// newBarStore starts postgres, applies the bar schema and registers teardown with t
func newBarStore(t *testing.T) *barStore {
	t.Helper()
	ctx := context.Background()

	pg, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("charts"),
		tcpostgres.WithUsername("charts"),
		tcpostgres.WithPassword("charts"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Errorf("terminate postgres: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}
	db, err := New(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := &barStore{DB: db}
	if err := s.migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

// migrate applies db/migrations from the repository root
func (s *barStore) migrate() error {
	_, file, _, _ := runtime.Caller(0)
	return s.Migrate(filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations"))
}

// clearBars empties price_data_daily so each subtest starts from no bars
func (s *barStore) clearBars(t *testing.T) {
	t.Helper()
	if _, err := s.conn.Exec("TRUNCATE TABLE price_data_daily RESTART IDENTITY"); err != nil {
		t.Fatalf("clear bars: %v", err)
	}
}
