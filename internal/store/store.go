package store

import (
	"context"

	"github.com/groblegark/configstore/internal/model"
)

// Store defines the persistence interface for configuration records.
// Lookups of a missing record return sql.ErrNoRows.
type Store interface {
	// Records
	GetRecord(ctx context.Context, m *model.Model, data string) (*model.Record, error)
	ListRecords(ctx context.Context, m *model.Model) ([]*model.Record, error) // ordered by key
	InsertRecordIfAbsent(ctx context.Context, r *model.Record) (bool, error)  // reports whether a row was inserted
	DeleteRecord(ctx context.Context, m *model.Model, data string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
