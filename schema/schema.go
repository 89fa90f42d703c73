// Package schema describes the filterable fields of a record type: name,
// declared type, enumerated tokens and where the value lives in a stored
// record.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmespath/go-jmespath"

	"github.com/lytics/qlpredicate/value"
)

var (
	// ErrNoName is returned for a field or schema without a name.
	ErrNoName = errors.New("schema: name is required")
	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("schema: duplicate field")
	// ErrUnsupportedType is returned for declared types a filter can't compare.
	ErrUnsupportedType = errors.New("schema: unsupported field type")
)

type (
	// Field is one filterable field.
	Field struct {
		Name string
		Type value.ValueType
		// Enum, if non-empty, restricts a string field to these tokens.
		Enum []string
		// Column is the backend column/document field name, defaults to Name.
		Column string
		// Source is a JMESPath expression locating the value inside a
		// document record, defaults to the field name at the top level.
		Source string

		path *jmespath.JMESPath
	}

	// Schema is an immutable set of fields for one record type.
	Schema struct {
		Name   string
		fields map[string]*Field
		sorted []*Field
	}
)

// NewField is a field of the given type.
func NewField(name string, t value.ValueType) *Field {
	return &Field{Name: name, Type: t}
}

// NewEnumField is a string field limited to tokens.
func NewEnumField(name string, tokens ...string) *Field {
	return &Field{Name: name, Type: value.StringType, Enum: tokens}
}

// IsEnum is true for enumerated fields.
func (m *Field) IsEnum() bool { return len(m.Enum) > 0 }

// HasToken reports whether tok is one of the field's enum tokens.
// Matching is exact.
func (m *Field) HasToken(tok string) bool {
	for _, t := range m.Enum {
		if t == tok {
			return true
		}
	}
	return false
}

// ColumnName is the backend column for this field.
func (m *Field) ColumnName() string {
	if m.Column != "" {
		return m.Column
	}
	return m.Name
}

// Path is the compiled Source expression, nil if the field has none.
func (m *Field) Path() *jmespath.JMESPath { return m.path }

func (m *Field) String() string {
	if m.IsEnum() {
		return fmt.Sprintf("%s enum(%s)", m.Name, strings.Join(m.Enum, ","))
	}
	return fmt.Sprintf("%s %s", m.Name, m.Type)
}

// New validates the fields and builds a schema. Fields are copied, later
// changes to the arguments are not seen by the schema.
func New(name string, fields ...*Field) (*Schema, error) {
	if name == "" {
		return nil, ErrNoName
	}
	s := &Schema{Name: name, fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		if f == nil || f.Name == "" {
			return nil, fmt.Errorf("%w: field in %q", ErrNoName, name)
		}
		if _, exists := s.fields[f.Name]; exists {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateField, f.Name, name)
		}
		if !f.Type.IsScalar() {
			return nil, fmt.Errorf("%w: %s for %q", ErrUnsupportedType, f.Type, f.Name)
		}
		if len(f.Enum) > 0 && f.Type != value.StringType {
			return nil, fmt.Errorf("%w: enum field %q must be string, got %s", ErrUnsupportedType, f.Name, f.Type)
		}
		fc := *f
		fc.Enum = append([]string(nil), f.Enum...)
		if fc.Source != "" {
			p, err := jmespath.Compile(fc.Source)
			if err != nil {
				return nil, fmt.Errorf("schema: invalid source %q for field %q: %w", fc.Source, f.Name, err)
			}
			fc.path = p
		}
		s.fields[fc.Name] = &fc
		s.sorted = append(s.sorted, &fc)
	}
	sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i].Name < s.sorted[j].Name })
	return s, nil
}

// MustNew is New that panics on error, for package level schema vars.
func MustNew(name string, fields ...*Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field resolves a field by exact, case-sensitive name.
func (m *Schema) Field(name string) (*Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Column is the declared type of a field.
func (m *Schema) Column(name string) (value.ValueType, bool) {
	f, ok := m.fields[name]
	if !ok {
		return value.UnknownType, false
	}
	return f.Type, true
}

// Fields sorted by name.
func (m *Schema) Fields() []*Field {
	return append([]*Field(nil), m.sorted...)
}

// Len is the number of fields.
func (m *Schema) Len() int { return len(m.sorted) }

// TypeFromString maps a declared type name to a value type. Besides the
// value package names it accepts common aliases (integer, decimal, date...).
func TypeFromString(s string) value.ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer", "int64", "long":
		return value.IntType
	case "decimal", "float", "double", "float64":
		return value.NumberType
	case "boolean":
		return value.BoolType
	case "date", "datetime", "timestamp":
		return value.TimeType
	case "enum", "text":
		return value.StringType
	}
	return value.ValueFromString(strings.ToLower(strings.TrimSpace(s)))
}
