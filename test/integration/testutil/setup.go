//go:build integration

package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/playtestbot/roster/internal/app"
	"github.com/playtestbot/roster/internal/infra"
	"github.com/playtestbot/roster/internal/repository"
	"github.com/playtestbot/roster/internal/service"
)

const (
	TestDBHost = "localhost"
	TestDBPort = 5435
	TestDBUser = "playtest"
	TestDBPass = "playtest"
	TestDBName = "playtest_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server  *httptest.Server
	Pool    *pgxpool.Pool
	Players repository.PlaytesterRepository
	History repository.HistoryRepository
	t       *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "playtest")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		if _, err := bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func quietLogger() *slog.Logger {
	if os.Getenv("TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SharedPool returns the migrated test database pool, creating it once.
func SharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}
		if err := infra.RunMigrations(testDSN(), quietLogger()); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the real
// router and test DB. Options pin the service clock and seed.
func NewTestEnv(t *testing.T, opts ...service.Option) *TestEnv {
	t.Helper()

	pool := SharedPool(t)
	players := repository.NewPgPlaytesterRepository(pool)
	history := repository.NewPgHistoryRepository(pool)

	cfg := &infra.Config{
		StoreBackend:       infra.StoreBackendPostgres,
		ResetHourUTC:       5,
		HistoryWindowWeeks: 4,
		DefaultRosterSize:  3,
		MaxRosterSize:      10,
	}

	router := app.NewRouter(app.RouterDeps{
		Players:        players,
		History:        history,
		DB:             pool,
		Logger:         quietLogger(),
		Config:         cfg,
		ServiceOptions: opts,
	})
	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:  server,
		Pool:    pool,
		Players: players,
		History: history,
		t:       t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	env.CleanAll()
	return env
}
