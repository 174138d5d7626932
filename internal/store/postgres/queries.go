package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/groblegark/configstore/internal/model"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// columnList returns the quoted key and field columns of m, comma separated.
// Table and column names come from a validated model, and are quoted on top.
func columnList(m *model.Model) string {
	cols := m.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func queryGetRecord(ctx context.Context, db executor, m *model.Model, data string) (*model.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+columnList(m)+` FROM `+pq.QuoteIdentifier(m.Table)+
			` WHERE `+pq.QuoteIdentifier(m.KeyColumn)+` = $1`, data)
	return scanRecord(row, m)
}

func queryListRecords(ctx context.Context, db executor, m *model.Model) ([]*model.Record, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+columnList(m)+` FROM `+pq.QuoteIdentifier(m.Table)+
			` ORDER BY `+pq.QuoteIdentifier(m.KeyColumn))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.Name, err)
	}
	defer rows.Close()
	return scanRecords(rows, m)
}

// queryInsertRecordIfAbsent inserts r unless a row with the same key exists.
// Operator-managed tables may lack a unique key, so existence is checked
// explicitly instead of relying on ON CONFLICT.
func queryInsertRecordIfAbsent(ctx context.Context, db executor, r *model.Record) (bool, error) {
	m := r.Model
	if err := model.ValidateRecord(r); err != nil {
		return false, err
	}

	var one int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM `+pq.QuoteIdentifier(m.Table)+
			` WHERE `+pq.QuoteIdentifier(m.KeyColumn)+` = $1`, r.Data).Scan(&one)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("check %s/%s: %w", m.Name, r.Data, err)
	}

	args := make([]any, 0, len(m.Fields)+1)
	placeholders := make([]string, 0, len(m.Fields)+1)
	args = append(args, r.Data)
	placeholders = append(placeholders, "$1")
	for i, f := range m.Fields {
		args = append(args, columnValue(f, r.Values[f.Name]))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO `+pq.QuoteIdentifier(m.Table)+` (`+columnList(m)+`) VALUES (`+
			strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s/%s: %w", m.Name, r.Data, err)
	}
	return true, nil
}

func queryDeleteRecord(ctx context.Context, db executor, m *model.Model, data string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM `+pq.QuoteIdentifier(m.Table)+
			` WHERE `+pq.QuoteIdentifier(m.KeyColumn)+` = $1`, data)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
