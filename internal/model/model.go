// Package model defines configuration models, the records stored under them,
// and the lookup request that resolves a record by {Type, Data}.
package model

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultKeyColumn is the column that holds a record's Data key.
const DefaultKeyColumn = "data"

// FieldType identifies the storage type of a model field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
)

// IsValid checks whether the field type is a known value.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeString, FieldTypeInteger:
		return true
	}
	return false
}

// Field describes a single column of a model's table.
type Field struct {
	Name     string    `json:"name" toml:"name"`
	Type     FieldType `json:"type" toml:"type"`
	JSONName string    `json:"json_name,omitempty" toml:"json_name"`
}

// WireName returns the key used for the field in lookup responses.
func (f Field) WireName() string {
	if f.JSONName != "" {
		return f.JSONName
	}
	return capitalize(f.Name)
}

// Model is a named configuration schema backed by one table.
type Model struct {
	Name      string  `json:"name"`
	Table     string  `json:"table"`
	KeyColumn string  `json:"key_column"`
	Fields    []Field `json:"fields"`
}

// DefaultTable derives the backing table name from a model name:
// "Develop.mr_robot" becomes "develop_mr_robot_configs".
func DefaultTable(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, ".", "_")) + "_configs"
}

// Field returns the field with the given column name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the key column followed by every field column, in order.
func (m *Model) Columns() []string {
	cols := make([]string, 0, len(m.Fields)+1)
	cols = append(cols, m.KeyColumn)
	for _, f := range m.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// normalize fills in derived defaults.
func (m *Model) normalize() {
	if m.Table == "" {
		m.Table = DefaultTable(m.Name)
	}
	if m.KeyColumn == "" {
		m.KeyColumn = DefaultKeyColumn
	}
}

// Registry is the set of known models, keyed by exact name.
// A Registry must not be modified once it is shared between goroutines.
type Registry struct {
	models map[string]*Model
}

// NewRegistry returns a registry holding the given models.
func NewRegistry(models ...*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if err := r.Add(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add validates and registers a model.
func (r *Registry) Add(m *Model) error {
	m.normalize()
	if err := ValidateModel(m); err != nil {
		return err
	}
	if _, ok := r.models[m.Name]; ok {
		return fmt.Errorf("model %q already registered", m.Name)
	}
	for _, other := range r.models {
		if other.Table == m.Table {
			return fmt.Errorf("model %q: table %q already used by %q", m.Name, m.Table, other.Name)
		}
	}
	r.models[m.Name] = m
	return nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns all registered models sorted by name.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.models)
}

// capitalize upper-cases the first letter of a column name.
// Casers carry state, so one is built per call.
func capitalize(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// ModelInfo is the published description of a model.
type ModelInfo struct {
	Name   string      `json:"name"`
	Table  string      `json:"table"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one field of a published model.
type FieldInfo struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	JSONName string    `json:"json_name"`
}

// Info returns the model's published description.
func (m *Model) Info() ModelInfo {
	info := ModelInfo{Name: m.Name, Table: m.Table, Fields: make([]FieldInfo, 0, len(m.Fields))}
	for _, f := range m.Fields {
		info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Type: f.Type, JSONName: f.WireName()})
	}
	return info
}
