package model

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	modelNamePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)
	identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateModel checks a Model for constraint violations.
// Table and column names end up in SQL, so they are restricted to plain
// lower-case identifiers.
func ValidateModel(m *Model) error {
	var ve ValidationError

	if !modelNamePattern.MatchString(m.Name) {
		ve.add("name", "invalid model name %q", m.Name)
	}
	if !identifierPattern.MatchString(m.Table) {
		ve.add("table", "invalid table name %q", m.Table)
	}
	if !identifierPattern.MatchString(m.KeyColumn) {
		ve.add("key_column", "invalid column name %q", m.KeyColumn)
	}
	if len(m.Fields) == 0 {
		ve.add("fields", "at least one field is required")
	}

	seen := map[string]bool{m.KeyColumn: true}
	wire := map[string]bool{"Data": true}
	for i, f := range m.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		if !identifierPattern.MatchString(f.Name) {
			ve.add(path+".name", "invalid column name %q", f.Name)
		} else if seen[f.Name] {
			ve.add(path+".name", "duplicate column %q", f.Name)
		}
		seen[f.Name] = true
		if !f.Type.IsValid() {
			ve.add(path+".type", "invalid value %q", f.Type)
		}
		if wire[f.WireName()] {
			ve.add(path+".json_name", "duplicate response key %q", f.WireName())
		}
		wire[f.WireName()] = true
	}

	if ve.HasErrors() {
		return fmt.Errorf("model %q: %w", m.Name, &ve)
	}
	return nil
}

// ValidateRecord checks that a record's values match its model's schema.
// Nil values are allowed and stored as NULL.
func ValidateRecord(r *Record) error {
	if r.Model == nil {
		return &ValidationError{Errors: []FieldError{{Field: "model", Message: "is required"}}}
	}
	var ve ValidationError
	if r.Data == "" {
		ve.add("data", "is required")
	}
	for _, f := range r.Model.Fields {
		v, ok := r.Values[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Type {
		case FieldTypeString:
			if _, ok := v.(string); !ok {
				ve.add(f.Name, "expected string, got %T", v)
			}
		case FieldTypeInteger:
			if _, ok := v.(int64); !ok {
				ve.add(f.Name, "expected int64, got %T", v)
			}
		}
	}
	for name := range r.Values {
		if _, ok := r.Model.Field(name); !ok {
			ve.add(name, "not a field of model %q", r.Model.Name)
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
