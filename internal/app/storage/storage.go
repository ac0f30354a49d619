// Package storage opens the configured repository backend for the binaries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/aadish-25/todo-backend/internal/repository"
	"github.com/aadish-25/todo-backend/internal/repository/postgres"
	"github.com/aadish-25/todo-backend/internal/repository/sqlite"
	"github.com/aadish-25/todo-backend/pkg/config"
)

// Handle is an open backend: the repository plus the database/sql view of the
// same connections used by the migration runner.
type Handle struct {
	Driver string
	Store  repository.Store
	SQL    *sql.DB
	closer func() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (*Handle, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		db := stdlib.OpenDBFromPool(pool)
		repo := postgres.New(pool)
		return &Handle{
			Driver: cfg.Driver,
			Store:  repo,
			SQL:    db,
			closer: func() error {
				return errors.Join(db.Close(), repo.Close())
			},
		}, nil
	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, Store: repo, SQL: repo.DB(), closer: repo.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Close releases the backend connections.
func (h *Handle) Close() error {
	if h == nil || h.closer == nil {
		return nil
	}
	return h.closer()
}
