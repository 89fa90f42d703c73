package blevegen

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/value"
)

// bound is one end of a range; a nil val leaves that end open.
type bound struct {
	val       any
	inclusive bool
}

// makeRange returns a range query for a single sided comparison.
func makeRange(lhs *gentypes.FieldType, op predicate.Op, rhs value.Value) (query.Query, error) {
	rhsval, ok := gentypes.Scalar(rhs)
	if !ok {
		return nil, fmt.Errorf("unsupported type for comparison: %T", rhs)
	}
	var lo, hi bound
	switch op {
	case predicate.GE:
		lo = bound{rhsval, true}
	case predicate.GT:
		lo = bound{rhsval, false}
	case predicate.LE:
		hi = bound{rhsval, true}
	case predicate.LT:
		hi = bound{rhsval, false}
	default:
		return nil, fmt.Errorf("blevegen: unsupported range operator %s", op)
	}
	return rangeQuery(lhs.Field, lo, hi)
}

// makeBetween returns the closed range query lower <= field <= upper.
func makeBetween(lhs *gentypes.FieldType, lower, upper value.Value) (query.Query, error) {
	lo, ok := gentypes.Scalar(lower)
	if !ok {
		return nil, fmt.Errorf("unsupported type for range start: %T", lower)
	}
	hi, ok := gentypes.Scalar(upper)
	if !ok {
		return nil, fmt.Errorf("unsupported type for range end: %T", upper)
	}
	return rangeQuery(lhs.Field, bound{lo, true}, bound{hi, true})
}

// rangeQuery picks numeric, date or term range by the type of whichever
// bound is set. Both bounds always share a type.
func rangeQuery(fieldName string, lo, hi bound) (query.Query, error) {
	v := lo.val
	if v == nil {
		v = hi.val
	}
	switch v.(type) {
	case int64, float64:
		min, max := toFloat(lo.val), toFloat(hi.val)
		q := query.NewNumericRangeInclusiveQuery(min, max, &lo.inclusive, &hi.inclusive)
		q.SetField(fieldName)
		return q, nil
	case time.Time:
		var start, end time.Time
		if t, ok := lo.val.(time.Time); ok {
			start = t
		}
		if t, ok := hi.val.(time.Time); ok {
			end = t
		}
		q := query.NewDateRangeInclusiveQuery(start, end, &lo.inclusive, &hi.inclusive)
		q.SetField(fieldName)
		return q, nil
	case string:
		min, _ := lo.val.(string)
		max, _ := hi.val.(string)
		q := query.NewTermRangeInclusiveQuery(min, max, &lo.inclusive, &hi.inclusive)
		q.SetField(fieldName)
		return q, nil
	}
	return nil, fmt.Errorf("blevegen: no range query for %T", v)
}

func toFloat(v any) *float64 {
	switch n := v.(type) {
	case int64:
		f := float64(n)
		return &f
	case float64:
		return &n
	}
	return nil
}
