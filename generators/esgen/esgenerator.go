// Package esgen translates compiled predicates into the Elasticsearch
// filter DSL.
package esgen

import (
	"errors"
	"fmt"

	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/value"
)

const backend = "elasticsearch"

type FilterGenerator struct {
	schema gentypes.SchemaColumns
}

// NewGenerator creates an Elasticsearch generator. A nil schema maps every
// predicate field onto its own column.
func NewGenerator(s gentypes.SchemaColumns) *FilterGenerator {
	return &FilterGenerator{schema: s}
}

// Generate returns a payload whose Filter marshals to an Elasticsearch
// filter.
func (fg *FilterGenerator) Generate(p predicate.Predicate) (*gentypes.Payload, error) {
	payload := &gentypes.Payload{Size: new(int)}
	f, err := fg.walk(p, 0)
	if err != nil {
		return nil, err
	}
	payload.Filter = f
	return payload, nil
}

func (fg *FilterGenerator) walk(p predicate.Predicate, depth int) (any, error) {
	if depth > gentypes.MaxDepth {
		return nil, gentypes.ErrMaxDepth
	}

	var err error
	var filter any
	switch n := p.(type) {
	case *predicate.And:
		var args []any
		if args, err = fg.walkArgs(depth, n.Left, n.Right); err == nil {
			filter = AndFilter(args)
		}
	case *predicate.Or:
		var args []any
		if args, err = fg.walkArgs(depth, n.Left, n.Right); err == nil {
			filter = OrFilter(args)
		}
	case *predicate.Not:
		var arg any
		if arg, err = fg.walk(n.Arg, depth+1); err == nil {
			filter = NotFilter(arg)
		}
	case *predicate.Compare:
		filter, err = fg.compareExpr(n)
	case *predicate.FieldCompare:
		filter, err = fg.fieldCompareExpr(n)
	case *predicate.Between:
		filter, err = fg.betweenExpr(n)
	case *predicate.In:
		filter, err = fg.inExpr(n)
	case *predicate.Match:
		filter, err = fg.matchExpr(n)
	default:
		if p != nil && p.Kind() == predicate.KindMatchAll {
			return MatchAll, nil
		}
		return nil, fmt.Errorf("unsupported predicate: %v", p)
	}
	if err != nil {
		// Convert MissingField errors to a logical `false`
		var errMissingField *gentypes.ErrorMissingField
		if errors.As(err, &errMissingField) {
			return MatchNone, nil
		}
		return nil, err
	}
	return filter, nil
}

func (fg *FilterGenerator) walkArgs(depth int, preds ...predicate.Predicate) ([]any, error) {
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		f, err := fg.walk(p, depth+1)
		if err != nil {
			return nil, err
		}
		args = append(args, f)
	}
	return args, nil
}

func (fg *FilterGenerator) compareExpr(n *predicate.Compare) (any, error) {
	ft, err := gentypes.ColumnFor(fg.schema, n.Field)
	if err != nil {
		return nil, err
	}
	val, ok := gentypes.Scalar(n.Value)
	if !ok {
		return nil, fmt.Errorf("unsupported type for comparison: %T", n.Value)
	}
	if n.Op == predicate.EQ {
		return Term(ft.Field, val), nil
	}
	if n.Value.Type() == value.BoolType {
		return nil, gentypes.Unsupported(backend, n)
	}
	return Range(ft.Field, n.Op, val)
}

// fieldCompareExpr requires both fields to exist before running the script,
// a missing field never matches.
func (fg *FilterGenerator) fieldCompareExpr(n *predicate.FieldCompare) (any, error) {
	lft, err := gentypes.ColumnFor(fg.schema, n.Left)
	if err != nil {
		return nil, err
	}
	rft, err := gentypes.ColumnFor(fg.schema, n.Right)
	if err != nil {
		return nil, err
	}
	return AndFilter([]any{
		Exists(lft.Field),
		Exists(rft.Field),
		FieldCompare(lft.Field, n.Op, rft.Field),
	}), nil
}

func (fg *FilterGenerator) betweenExpr(n *predicate.Between) (any, error) {
	ft, err := gentypes.ColumnFor(fg.schema, n.Field)
	if err != nil {
		return nil, err
	}
	lower, ok := gentypes.Scalar(n.Lower)
	if !ok {
		return nil, fmt.Errorf("unsupported type for range start: %T", n.Lower)
	}
	upper, ok := gentypes.Scalar(n.Upper)
	if !ok {
		return nil, fmt.Errorf("unsupported type for range end: %T", n.Upper)
	}
	return Between(ft.Field, lower, upper), nil
}

func (fg *FilterGenerator) inExpr(n *predicate.In) (any, error) {
	ft, err := gentypes.ColumnFor(fg.schema, n.Field)
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

func (fg *FilterGenerator) matchExpr(n *predicate.Match) (any, error) {
	ft, err := gentypes.ColumnFor(fg.schema, n.Field)
	if err != nil {
		return nil, err
	}
	if ft.Type != value.StringType {
		return nil, gentypes.Unsupported(backend, n)
	}
	return Wildcard(ft.Field, n.Pattern), nil
}
