package predicate

import (
	"encoding/json"

	"github.com/jmespath/go-jmespath"

	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

var (
	_ Record   = (MapRecord)(nil)
	_ Record   = (ValueRecord)(nil)
	_ Record   = (Document)(nil)
	_ Searcher = (Document)(nil)
)

type (
	// Record is anything a predicate can read field values from.
	Record interface {
		Get(field string) (value.Value, bool)
	}
	// Searcher is a record that can also resolve JMESPath expressions,
	// used for fields declared with a Source.
	Searcher interface {
		Search(path *jmespath.JMESPath) (value.Value, bool)
	}

	// MapRecord wraps native go values.
	MapRecord map[string]interface{}
	// ValueRecord wraps already typed values.
	ValueRecord map[string]value.Value
	// Document is a decoded JSON object.
	Document map[string]interface{}

	// Field is a resolved field accessor. It carries a copy of everything
	// needed from the schema field so a predicate is self contained.
	Field struct {
		Name   string
		Column string
		Type   value.ValueType
		path   *jmespath.JMESPath
	}
)

// FieldOf resolves a schema field into an accessor.
func FieldOf(f *schema.Field) Field {
	return Field{Name: f.Name, Column: f.ColumnName(), Type: f.Type, path: f.Path()}
}

// NewField is an accessor reading name from the top level of a record.
func NewField(name string, t value.ValueType) Field {
	return Field{Name: name, Column: name, Type: t}
}

// Value reads the field from r.
func (f Field) Value(r Record) (value.Value, bool) {
	if r == nil {
		return nil, false
	}
	if f.path != nil {
		if s, ok := r.(Searcher); ok {
			return s.Search(f.path)
		}
	}
	v, ok := r.Get(f.Name)
	if !ok || v == nil || v.Type() == value.NilType {
		return nil, false
	}
	return v, true
}

func (m MapRecord) Get(field string) (value.Value, bool) {
	v, ok := m[field]
	if !ok {
		return nil, false
	}
	return value.NewValue(v), true
}

func (m ValueRecord) Get(field string) (value.Value, bool) {
	v, ok := m[field]
	return v, ok
}

// NewDocument decodes a JSON object.
func NewDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func (m Document) Get(field string) (value.Value, bool) {
	v, ok := m[field]
	if !ok {
		return nil, false
	}
	return value.NewValue(v), true
}

func (m Document) Search(path *jmespath.JMESPath) (value.Value, bool) {
	res, err := path.Search(map[string]interface{}(m))
	if err != nil || res == nil {
		return nil, false
	}
	return value.NewValue(res), true
}
