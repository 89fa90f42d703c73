package gentypes

import (
	"errors"
	"fmt"

	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

var (
	// MaxDepth specifies the depth at which we are certain the generator is
	// walking a malformed predicate.
	MaxDepth = 1000

	ErrMaxDepth = errors.New("hit max depth on filter generation. bad predicate?")

	_ SchemaColumns = (*schemaColumns)(nil)
)

type (
	// SchemaColumns provides info on fields/columns to help a generator
	// understand how to map predicate fields to backend fields.
	SchemaColumns interface {
		// Underlying data type of column
		Column(col string) (value.ValueType, bool)
		// ColumnInfo explains how a predicate field maps to a backend field
		// or false if the field doesn't exist.
		ColumnInfo(col string) (*FieldType, bool)
	}
	// FieldType describes a field's usage within a backend.
	FieldType struct {
		Field    string // backend field/column name
		Type     value.ValueType
		TypeName string
	}
	// Payload is the top level request to a backend. Filter is a backend
	// specific query value; Args holds bind parameters for backends that
	// use them.
	Payload struct {
		Size   *int                   `json:"size,omitempty"`
		Filter any                    `json:"filter,omitempty"`
		Fields []string               `json:"fields,omitempty"`
		Sort   []map[string]SortOrder `json:"sort,omitempty"`
		Args   []any                  `json:"-"`
	}
	// SortOrder of the query request
	SortOrder struct {
		Order string `json:"order"`
	}

	schemaColumns struct {
		s *schema.Schema
	}
)

// SchemaMapper maps predicate fields onto the columns declared by a schema.
func SchemaMapper(s *schema.Schema) SchemaColumns {
	return &schemaColumns{s: s}
}

func (m *schemaColumns) Column(col string) (value.ValueType, bool) { return m.s.Column(col) }
func (m *schemaColumns) ColumnInfo(col string) (*FieldType, bool) {
	f, ok := m.s.Field(col)
	if !ok {
		return nil, false
	}
	return &FieldType{Field: f.ColumnName(), Type: f.Type, TypeName: f.Type.String()}, true
}

// ColumnFor resolves the backend field for f. A nil mapper uses the column
// already carried by the predicate field.
func ColumnFor(s SchemaColumns, f predicate.Field) (*FieldType, error) {
	if s == nil {
		return &FieldType{Field: f.Column, Type: f.Type, TypeName: f.Type.String()}, nil
	}
	ft, ok := s.ColumnInfo(f.Name)
	if !ok {
		return nil, MissingField(f.Name)
	}
	return ft, nil
}

// Numeric returns true if field type has numeric values.
func (f *FieldType) Numeric() bool {
	return f.Type == value.NumberType || f.Type == value.IntType
}

func (f *FieldType) String() string {
	return fmt.Sprintf("<ft field=%q type=%q >", f.Field, f.Type.String())
}

func (p *Payload) SortAsc(field string) {
	p.Sort = append(p.Sort, map[string]SortOrder{field: {"asc"}})
}

func (p *Payload) SortDesc(field string) {
	p.Sort = append(p.Sort, map[string]SortOrder{field: {"desc"}})
}

// Scalar returns the native go form of a constant for use in a backend
// query: int64, float64, bool, string or time.Time.
func Scalar(v value.Value) (any, bool) {
	switch vt := v.(type) {
	case value.IntValue:
		return vt.Val(), true
	case value.NumberValue:
		return vt.Val(), true
	case value.BoolValue:
		return vt.Val(), true
	case value.StringValue:
		return vt.Val(), true
	case value.TimeValue:
		return vt.Val(), true
	}
	return nil, false
}
