// Package blevegen translates compiled predicates into bleve queries.
package blevegen

import (
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/value"
)

const backend = "bleve"

type FilterGenerator struct {
	schema gentypes.SchemaColumns
}

// NewGenerator creates a bleve generator. A nil schema maps every predicate
// field onto its own column.
func NewGenerator(s gentypes.SchemaColumns) *FilterGenerator {
	return &FilterGenerator{schema: s}
}

func (fg *FilterGenerator) fieldType(f predicate.Field) (*gentypes.FieldType, error) {
	return gentypes.ColumnFor(fg.schema, f)
}

// Generate returns a payload whose Filter is a bleve query.Query.
func (fg *FilterGenerator) Generate(p predicate.Predicate) (*gentypes.Payload, error) {
	payload := &gentypes.Payload{Size: new(int)}
	q, err := fg.walk(p, 0)
	if err != nil {
		return nil, err
	}
	payload.Filter = q
	return payload, nil
}

// walk dispatches to node-type-specific methods
func (fg *FilterGenerator) walk(p predicate.Predicate, depth int) (query.Query, error) {
	if depth > gentypes.MaxDepth {
		return nil, gentypes.ErrMaxDepth
	}

	var err error
	var q query.Query
	switch n := p.(type) {
	case *predicate.And:
		q, err = fg.booleanExpr(n.Left, n.Right, true, depth+1)
	case *predicate.Or:
		q, err = fg.booleanExpr(n.Left, n.Right, false, depth+1)
	case *predicate.Not:
		q, err = fg.walk(n.Arg, depth+1)
		if err == nil {
			q = NotFilter(q)
		}
	case *predicate.Compare:
		q, err = fg.compareExpr(n)
	case *predicate.Between:
		var ft *gentypes.FieldType
		if ft, err = fg.fieldType(n.Field); err == nil {
			q, err = makeBetween(ft, n.Lower, n.Upper)
		}
	case *predicate.In:
		q, err = fg.inExpr(n)
	case *predicate.Match:
		q, err = fg.matchExpr(n)
	case *predicate.FieldCompare:
		return nil, gentypes.Unsupported(backend, p)
	default:
		if p != nil && p.Kind() == predicate.KindMatchAll {
			return MatchAll(), nil
		}
		return nil, fmt.Errorf("unsupported predicate: %v", p)
	}
	if err != nil {
		// Convert MissingField errors to a logical `false`
		var errMissingField *gentypes.ErrorMissingField
		if errors.As(err, &errMissingField) {
			return MatchNone(), nil
		}
		return nil, err
	}
	return q, nil
}

func (fg *FilterGenerator) booleanExpr(left, right predicate.Predicate, and bool, depth int) (query.Query, error) {
	if depth > gentypes.MaxDepth {
		return nil, gentypes.ErrMaxDepth
	}
	qs := make([]query.Query, 0, 2)
	for _, arg := range []predicate.Predicate{left, right} {
		q, err := fg.walk(arg, depth+1)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	if and {
		return AndFilter(qs), nil
	}
	return OrFilter(qs), nil
}

func (fg *FilterGenerator) compareExpr(n *predicate.Compare) (query.Query, error) {
	ft, err := fg.fieldType(n.Field)
	if err != nil {
		return nil, err
	}
	if n.Op != predicate.EQ {
		if n.Value.Type() == value.BoolType {
			return nil, gentypes.Unsupported(backend, n)
		}
		return makeRange(ft, n.Op, n.Value)
	}
	val, ok := gentypes.Scalar(n.Value)
	if !ok {
		return nil, fmt.Errorf("unsupported type for comparison: %T", n.Value)
	}
	return Equal(ft.Field, val), nil
}

func (fg *FilterGenerator) inExpr(n *predicate.In) (query.Query, error) {
	ft, err := fg.fieldType(n.Field)
	if err != nil {
		return nil, err
	}
	vals := make([]any, 0, n.Len())
	for _, v := range n.Values() {
		val, ok := gentypes.Scalar(v)
		if !ok {
			return nil, fmt.Errorf("unsupported type in set: %T", v)
		}
		vals = append(vals, val)
	}
	return In(ft.Field, vals), nil
}

// matchExpr only applies to fields indexed as text; bleve has no string
// form of a numeric or date field to test a pattern against.
func (fg *FilterGenerator) matchExpr(n *predicate.Match) (query.Query, error) {
	ft, err := fg.fieldType(n.Field)
	if err != nil {
		return nil, err
	}
	if ft.Type != value.StringType {
		return nil, gentypes.Unsupported(backend, n)
	}
	return Wildcard(ft.Field, n.Pattern), nil
}
