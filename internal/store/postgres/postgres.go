// Package postgres stores configuration records in PostgreSQL, one table per
// model.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool limits applied by New.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// records implements the record operations of store.Store on top of either
// the pool or an open transaction.
type records struct {
	db executor
}

func (r records) GetRecord(ctx context.Context, m *model.Model, data string) (*model.Record, error) {
	return queryGetRecord(ctx, r.db, m, data)
}

func (r records) ListRecords(ctx context.Context, m *model.Model) ([]*model.Record, error) {
	return queryListRecords(ctx, r.db, m)
}

func (r records) InsertRecordIfAbsent(ctx context.Context, rec *model.Record) (bool, error) {
	return queryInsertRecordIfAbsent(ctx, r.db, rec)
}

func (r records) DeleteRecord(ctx context.Context, m *model.Model, data string) error {
	return queryDeleteRecord(ctx, r.db, m, data)
}

// PostgresStore is a store.Store over a *sql.DB pool.
type PostgresStore struct {
	records
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New connects to databaseURL, applies the connection pool limits and
// migrates the schema to the latest version.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewFromDB(db), nil
}

// NewFromDB wraps an open pool. The schema is assumed current.
func NewFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{records: records{db: db}, db: db}
}

// migrateUp applies the embedded migrations.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PostgresStore) Close() error { return s.db.Close() }

// RunInTransaction calls fn with a store bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(txStore{records{db: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore is the store handed to a RunInTransaction callback. Nested calls
// join the open transaction. The pool stays owned by the parent, so Ping
// and Close do nothing.
type txStore struct {
	records
}

var _ store.Store = txStore{}

func (t txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (txStore) Ping(context.Context) error { return nil }

func (txStore) Close() error { return nil }
