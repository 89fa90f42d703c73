package filterqlvm

import (
	"fmt"
	"strings"
	"time"

	"github.com/lytics/datemath"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/filterqlvm/compiler"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

// relativeTest is a test of a time field against relative dates
// ("now-3d"). A between window carries two dates, a comparison one.
type relativeTest struct {
	field predicate.Field
	op    expr.Operator
	dates []string
}

// DateBoundary holds the relative date tests of a filter. It answers when
// the result of the filter for a record may next change as "now" moves
// forward, so callers can schedule a re-evaluation instead of polling.
//
// The boundary is only a possible flip: with or/not logic the overall
// result may stay the same.
type DateBoundary struct {
	tests []relativeTest
}

// NewDateBoundary collects the relative date tests of n against time
// fields of s. Tests on fields s does not declare as time are ignored.
func NewDateBoundary(n expr.Node, s *schema.Schema) *DateBoundary {
	m := &DateBoundary{}
	m.collect(n, s)
	return m
}

// HasDateMath is true when the filter compares a time field to a relative date.
func (m *DateBoundary) HasDateMath() bool { return len(m.tests) > 0 }

// Next returns the earliest instant after at when the filter result for r
// may change. Zero time means it never will.
func (m *DateBoundary) Next(at time.Time, r predicate.Record) (time.Time, error) {
	var next time.Time
	for _, t := range m.tests {
		v, ok := t.field.Value(r)
		if !ok {
			continue
		}
		bt, err := t.next(at, v)
		if err != nil {
			return time.Time{}, err
		}
		next = earliest(next, bt)
	}
	return next, nil
}

// NextBoundary is a one shot NewDateBoundary(n, s).Next(at, r).
func NextBoundary(n expr.Node, s *schema.Schema, r predicate.Record, at time.Time) (time.Time, error) {
	return NewDateBoundary(n, s).Next(at, r)
}

func (m *DateBoundary) collect(node expr.Node, s *schema.Schema) {
	switch n := node.(type) {
	case *expr.Logical:
		for _, arg := range n.Args {
			m.collect(arg, s)
		}
	case *expr.Comparison:
		f, ok := timeField(n.Left, s)
		if !ok {
			return
		}
		if d, ok := relativeDate(n.Right); ok {
			m.tests = append(m.tests, relativeTest{field: f, op: n.Op, dates: []string{d}})
		}
	case *expr.MethodCall:
		// a window only moves when both ends are relative
		if n.Name != expr.MethodBetween || len(n.Args) < 3 {
			return
		}
		f, ok := timeField(n.Args[0], s)
		if !ok {
			return
		}
		lo, lok := relativeDate(n.Args[1])
		hi, hok := relativeDate(n.Args[2])
		if lok && hok {
			m.tests = append(m.tests, relativeTest{field: f, dates: []string{lo, hi}})
		}
	}
}

// next is the boundary of the test for field value v, multi-valued
// fields flip at the earliest of their values.
func (t relativeTest) next(at time.Time, v value.Value) (time.Time, error) {
	if sv, ok := v.(value.SliceValue); ok {
		var next time.Time
		for _, item := range sv.SliceValue() {
			bt, err := t.next(at, item)
			if err != nil {
				return time.Time{}, fmt.Errorf("converting slice value: %w", err)
			}
			next = earliest(next, bt)
		}
		return next, nil
	}

	ct, ok := value.ValueToTime(v)
	if !ok {
		return time.Time{}, fmt.Errorf("could not convert %T: %v to time.Time", v, v)
	}
	rts := make([]time.Time, len(t.dates))
	for i, d := range t.dates {
		rt, err := datemath.EvalAnchor(at, d)
		if err != nil {
			return time.Time{}, err
		}
		rts[i] = rt
	}
	// A relative date rt moves with at, so a record time ct crosses it
	// at at + (ct - rt).
	crossing := func(rt time.Time) time.Time { return at.Add(ct.Sub(rt)) }

	if len(rts) == 2 {
		lower, upper := rts[0], rts[1]
		if lower.After(upper) {
			lower, upper = upper, lower
		}
		switch {
		case ct.Before(lower):
			// behind the window, it never catches up
			return time.Time{}, nil
		case !ct.Before(upper):
			return crossing(upper), nil
		}
		return crossing(lower), nil
	}

	rt := rts[0]
	switch t.op {
	case expr.OpGT, expr.OpGE:
		if rt.Before(ct) {
			return crossing(rt), nil
		}
	case expr.OpLT, expr.OpLE:
		if !ct.Before(rt) {
			return crossing(rt), nil
		}
	}
	return time.Time{}, nil
}

func earliest(a, b time.Time) time.Time {
	if a.IsZero() || (!b.IsZero() && b.Before(a)) {
		return b
	}
	return a
}

// timeField is the time field of s that n refers to.
func timeField(n expr.Node, s *schema.Schema) (predicate.Field, bool) {
	ref, ok := n.(*expr.FieldRef)
	if !ok {
		return predicate.Field{}, false
	}
	f, ok := s.Field(ref.Name)
	if !ok || f.Type != value.TimeType {
		return predicate.Field{}, false
	}
	return predicate.FieldOf(f), true
}

// relativeDate is the unquoted date math text of a literal.
func relativeDate(n expr.Node) (string, bool) {
	lit, ok := n.(*expr.Literal)
	if !ok || !compiler.IsDateMath(lit.Text) {
		return "", false
	}
	return strings.TrimSpace(lit.Unquoted()), true
}
