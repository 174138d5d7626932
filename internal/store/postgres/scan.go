package postgres

import (
	"database/sql"

	"github.com/groblegark/configstore/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a model.Record.
// The row must contain columns in the order returned by m.Columns().
func scanRecord(row scannable, m *model.Model) (*model.Record, error) {
	var data string
	dest := make([]any, 0, len(m.Fields)+1)
	dest = append(dest, &data)
	for _, f := range m.Fields {
		switch f.Type {
		case model.FieldTypeInteger:
			dest = append(dest, new(sql.NullInt64))
		default:
			dest = append(dest, new(sql.NullString))
		}
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	r := model.NewRecord(m, data)
	for i, f := range m.Fields {
		switch v := dest[i+1].(type) {
		case *sql.NullInt64:
			if v.Valid {
				r.Values[f.Name] = v.Int64
			} else {
				r.Values[f.Name] = nil
			}
		case *sql.NullString:
			if v.Valid {
				r.Values[f.Name] = v.String
			} else {
				r.Values[f.Name] = nil
			}
		}
	}
	return r, nil
}

// scanRecords scans multiple rows into a slice of model.Record pointers.
func scanRecords(rows *sql.Rows, m *model.Model) ([]*model.Record, error) {
	var records []*model.Record
	for rows.Next() {
		r, err := scanRecord(rows, m)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// columnValue converts a record value to a driver argument; nil becomes NULL.
func columnValue(f model.Field, v any) any {
	if v == nil {
		switch f.Type {
		case model.FieldTypeInteger:
			return sql.NullInt64{}
		default:
			return sql.NullString{}
		}
	}
	return v
}
