// Package generators translates compiled predicates into queries for an
// execution backend.
package generators

import (
	"github.com/lytics/qlpredicate/generators/blevegen"
	"github.com/lytics/qlpredicate/generators/esgen"
	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/generators/sqlgen"
	"github.com/lytics/qlpredicate/predicate"
)

var (
	_ Generator = (*blevegen.FilterGenerator)(nil)
	_ Generator = (*esgen.FilterGenerator)(nil)
	_ Generator = (*sqlgen.FilterGenerator)(nil)
)

type (
	// Generator accepts a compiled predicate and walks it generating a
	// backend payload.
	Generator interface {
		Generate(p predicate.Predicate) (*gentypes.Payload, error)
	}

	// SearchBackend indicates which backend to generate queries for
	SearchBackend int

	// Option configures NewGenerator.
	Option func(*config)

	config struct {
		mapper  gentypes.SchemaColumns
		dialect sqlgen.Dialect
	}
)

func (b SearchBackend) String() string {
	switch b {
	case BackendElasticsearch:
		return "elasticsearch"
	case BackendBleve:
		return "bleve"
	case BackendSQL:
		return "sql"
	}
	return "unknown"
}

const (
	// BackendElasticsearch generates queries for Elasticsearch
	BackendElasticsearch SearchBackend = iota
	// BackendBleve generates queries for Bleve
	BackendBleve
	// BackendSQL generates a parameterized WHERE clause
	BackendSQL
)

// WithMapper maps predicate fields onto backend fields. Fields the mapper
// doesn't know translate to a query matching nothing.
func WithMapper(m gentypes.SchemaColumns) Option {
	return func(c *config) { c.mapper = m }
}

// WithDialect selects the SQL dialect for BackendSQL, default SQLite.
func WithDialect(d sqlgen.Dialect) Option {
	return func(c *config) { c.dialect = d }
}

// NewGenerator creates a new query generator for the specified backend
func NewGenerator(backend SearchBackend, opts ...Option) Generator {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	switch backend {
	case BackendBleve:
		return blevegen.NewGenerator(c.mapper)
	case BackendSQL:
		return sqlgen.NewGenerator(c.mapper, c.dialect)
	default: // Default to Elasticsearch
		return esgen.NewGenerator(c.mapper)
	}
}
