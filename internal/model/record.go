package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a single row of a model's table, identified within the model by Data.
// Values is keyed by column name; integer columns hold int64.
type Record struct {
	Model  *Model
	Data   string
	Values map[string]any
}

// NewRecord returns an empty record of model m keyed by data.
func NewRecord(m *Model, data string) *Record {
	return &Record{Model: m, Data: data, Values: make(map[string]any, len(m.Fields))}
}

// Set assigns a column value and returns the record for chaining.
func (r *Record) Set(column string, value any) *Record {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	r.Values[column] = value
	return r
}

// WireFields returns the record as it appears on the wire: "Data" plus each
// field under its response key.
func (r *Record) WireFields() map[string]any {
	out := make(map[string]any, len(r.Model.Fields)+1)
	out["Data"] = r.Data
	for _, f := range r.Model.Fields {
		out[f.WireName()] = r.Values[f.Name]
	}
	return out
}

// MarshalJSON encodes the record with keys in model order, "Data" first.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "Data", r.Data); err != nil {
		return nil, err
	}
	for _, f := range r.Model.Fields {
		buf.WriteByte(',')
		if err := writeMember(&buf, f.WireName(), r.Values[f.Name]); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
