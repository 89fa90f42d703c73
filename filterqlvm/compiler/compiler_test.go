package compiler

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

var peopleSchema = schema.MustNew("people",
	schema.NewField("age", value.IntType),
	schema.NewField("min_age", value.IntType),
	schema.NewField("name", value.StringType),
	schema.NewField("nickname", value.StringType),
	schema.NewEnumField("status", "A", "B", "C"),
	schema.NewField("score", value.NumberType),
	schema.NewField("active", value.BoolType),
	schema.NewField("born", value.TimeType),
)

var anchor = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func person(age int) predicate.MapRecord {
	return predicate.MapRecord{
		"age":      age,
		"min_age":  18,
		"name":     "Ada Lovelace",
		"nickname": "Ada Lovelace",
		"status":   "A",
		"score":    91.5,
		"active":   true,
		"born":     time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
	}
}

func f(name string) *expr.FieldRef { return expr.Field(name) }

func lit(text string) *expr.Literal { return expr.NewLiteralText(nil, text) }

func mustCompile(t *testing.T, n expr.Node, opts ...Option) predicate.Predicate {
	t.Helper()
	p, err := Compile(n, peopleSchema, append([]Option{WithAnchorTime(anchor)}, opts...)...)
	require.NoError(t, err, "compile %s", n)
	require.NotNil(t, p)
	return p
}

func TestNilTreeMatchesAll(t *testing.T) {
	p, err := Compile(nil, peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, predicate.KindMatchAll, p.Kind())
	assert.True(t, p.Eval(person(1)))
	assert.True(t, p.Eval(predicate.MapRecord{}))

	other := schema.MustNew("empty")
	p, err = Compile(nil, other)
	require.NoError(t, err)
	assert.True(t, p.Eval(nil))
}

func TestNilSchemaPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Compile(expr.Compare(expr.OpEQ, f("age"), 1), nil)
	})
	assert.Panics(t, func() {
		_, _ = Compile(nil, nil)
	})
	assert.Panics(t, func() {
		_, _ = NewDirectCompiler().Compile(nil, nil)
	})
}

func TestCompileEval(t *testing.T) {
	tests := []struct {
		name   string
		node   expr.Node
		accept []predicate.Record
		reject []predicate.Record
	}{
		{
			name:   "int eq",
			node:   expr.Compare(expr.OpEQ, f("age"), lit("30")),
			accept: []predicate.Record{person(30)},
			reject: []predicate.Record{person(31), predicate.MapRecord{}},
		},
		{
			name:   "int ge",
			node:   expr.Compare(expr.OpGE, f("age"), 18),
			accept: []predicate.Record{person(18), person(40)},
			reject: []predicate.Record{person(17)},
		},
		{
			name:   "int gt",
			node:   expr.Compare(expr.OpGT, f("age"), 18),
			accept: []predicate.Record{person(19)},
			reject: []predicate.Record{person(18)},
		},
		{
			name:   "int le",
			node:   expr.Compare(expr.OpLE, f("age"), 18),
			accept: []predicate.Record{person(18)},
			reject: []predicate.Record{person(19)},
		},
		{
			name:   "int lt",
			node:   expr.Compare(expr.OpLT, f("age"), 18),
			accept: []predicate.Record{person(17)},
			reject: []predicate.Record{person(18)},
		},
		{
			name:   "decimal",
			node:   expr.Compare(expr.OpGT, f("score"), lit("90.25")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"score": 90.0}},
		},
		{
			name:   "bool",
			node:   expr.Compare(expr.OpEQ, f("active"), lit("true")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"active": false}},
		},
		{
			name:   "date",
			node:   expr.Compare(expr.OpLT, f("born"), lit("'2000-01-01'")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"born": time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)}},
		},
		{
			name:   "relative date",
			node:   expr.Compare(expr.OpGT, f("born"), lit("'now-3d'")),
			accept: []predicate.Record{predicate.MapRecord{"born": anchor.Add(-24 * time.Hour)}},
			reject: []predicate.Record{predicate.MapRecord{"born": anchor.Add(-96 * time.Hour)}},
		},
		{
			name:   "quoted string",
			node:   expr.Compare(expr.OpEQ, f("name"), lit("'Ada Lovelace'")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"name": "Grace Hopper"}},
		},
		{
			name:   "enum",
			node:   expr.Compare(expr.OpEQ, f("status"), lit("'A'")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"status": "B"}},
		},
		{
			name:   "matches",
			node:   expr.Compare(expr.OpMatches, f("name"), lit("'%Love%'")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"name": "Grace Hopper"}},
		},
		{
			name:   "matches non string casts",
			node:   expr.Compare(expr.OpMatches, f("age"), lit("'4%'")),
			accept: []predicate.Record{person(42)},
			reject: []predicate.Record{person(24)},
		},
		{
			name:   "field to field ge",
			node:   expr.Compare(expr.OpGE, f("age"), f("min_age")),
			accept: []predicate.Record{person(18), person(30)},
			reject: []predicate.Record{person(17)},
		},
		{
			name:   "field to field eq",
			node:   expr.Compare(expr.OpEQ, f("name"), f("nickname")),
			accept: []predicate.Record{person(1)},
			reject: []predicate.Record{predicate.MapRecord{"name": "a", "nickname": "b"}},
		},
		{
			name:   "between",
			node:   expr.Between("age", 18, 30),
			accept: []predicate.Record{person(18), person(24), person(30)},
			reject: []predicate.Record{person(17), person(31)},
		},
		{
			name:   "between extra args ignored",
			node:   expr.Call("Between", f("age"), 18, 30, 99),
			accept: []predicate.Record{person(30)},
			reject: []predicate.Record{person(31)},
		},
		{
			name:   "in",
			node:   expr.In("status", "A", "B"),
			accept: []predicate.Record{predicate.MapRecord{"status": "A"}, predicate.MapRecord{"status": "B"}},
			reject: []predicate.Record{predicate.MapRecord{"status": "C"}},
		},
		{
			name:   "not",
			node:   expr.Not(expr.Compare(expr.OpLT, f("age"), 18)),
			accept: []predicate.Record{person(18)},
			reject: []predicate.Record{person(17)},
		},
		{
			name: "and",
			node: expr.And(
				expr.Compare(expr.OpEQ, f("age"), 1),
				expr.Compare(expr.OpEQ, f("status"), "A"),
			),
			accept: []predicate.Record{predicate.MapRecord{"age": 1, "status": "A"}},
			reject: []predicate.Record{
				predicate.MapRecord{"age": 1, "status": "B"},
				predicate.MapRecord{"age": 2, "status": "A"},
			},
		},
		{
			name: "or",
			node: expr.Or(
				expr.Compare(expr.OpEQ, f("age"), 1),
				expr.Compare(expr.OpEQ, f("status"), "A"),
			),
			accept: []predicate.Record{
				predicate.MapRecord{"age": 1, "status": "B"},
				predicate.MapRecord{"age": 2, "status": "A"},
			},
			reject: []predicate.Record{predicate.MapRecord{"age": 2, "status": "B"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.node)
			for _, r := range tt.accept {
				assert.Truef(t, p.Eval(r), "%s should accept %v", p, r)
			}
			for _, r := range tt.reject {
				assert.Falsef(t, p.Eval(r), "%s should reject %v", p, r)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		node expr.Node
		kind ErrorKind
		msg  string
	}{
		{"literal left", expr.Compare(expr.OpEQ, lit("1"), lit("1")), InvalidLeftOperand, "left-hand side must be a field"},
		{"literal left matches", expr.Compare(expr.OpMatches, lit("'a'"), f("name")), InvalidLeftOperand, ""},
		{"comparison left", expr.Compare(expr.OpEQ, expr.Compare(expr.OpEQ, f("age"), 1), lit("1")), InvalidLeftOperand, ""},
		{"unknown field", expr.Compare(expr.OpEQ, f("nope"), 1), UnknownField, `"nope"`},
		{"unknown right field", expr.Compare(expr.OpEQ, f("age"), f("nope")), UnknownField, `"nope"`},
		{"case sensitive", expr.Compare(expr.OpEQ, f("Age"), 1), UnknownField, ""},
		{"dotted", expr.Compare(expr.OpEQ, f("person.age"), 1), UnknownField, ""},
		{"ne literal", expr.Compare(expr.OpNE, f("age"), 1), UnsupportedOperator, "age != 1"},
		{"unknown op", &expr.Comparison{Op: expr.OpUnknown, Left: f("age"), Right: lit("1")}, UnsupportedOperator, "age ? 1"},
		{"matches fields", expr.Compare(expr.OpMatches, f("name"), f("nickname")), UnsupportedFieldComparison, "name matches nickname"},
		{"ne fields", expr.Compare(expr.OpNE, f("name"), f("nickname")), UnsupportedFieldComparison, ""},
		{"right comparison", expr.Compare(expr.OpEQ, f("age"), expr.Compare(expr.OpEQ, f("age"), 1)), InvalidRightOperand, "right-hand side must be a literal or a field"},
		{"right nil", &expr.Comparison{Op: expr.OpEQ, Left: f("age")}, InvalidRightOperand, ""},
		{"right method", expr.Compare(expr.OpEQ, f("age"), expr.In("age", 1)), InvalidRightOperand, ""},
		{"unsupported method", expr.Call("Foo", f("age"), 1), UnsupportedOperator, `"Foo"`},
		{"unsupported method before field", expr.Call("Foo", lit("1")), UnsupportedOperator, "Foo"},
		{"between one arg", expr.Call("Between", f("age"), 1), ArityError, ""},
		{"between no args", expr.Call("Between", f("age")), ArityError, ""},
		{"in no values", expr.Call("In", f("status")), ArityError, ""},
		{"in empty", expr.Call("In"), ArityError, ""},
		{"method first arg literal", expr.Call("In", lit("1"), lit("1")), InvalidLeftOperand, "first argument must be a field"},
		{"method unknown field", expr.In("nope", 1), UnknownField, ""},
		{"method field arg", expr.Call("In", f("age"), f("min_age")), InvalidRightOperand, ""},
		{"int conversion", expr.Compare(expr.OpEQ, f("age"), lit("'abc'")), LiteralConversionError, "'abc'"},
		{"int from decimal text", expr.Compare(expr.OpEQ, f("age"), lit("1.5")), LiteralConversionError, "int"},
		{"decimal conversion", expr.Compare(expr.OpEQ, f("score"), lit("high")), LiteralConversionError, ""},
		{"bool conversion", expr.Compare(expr.OpEQ, f("active"), lit("'yes'")), LiteralConversionError, ""},
		{"date conversion", expr.Compare(expr.OpEQ, f("born"), lit("'not a date'")), LiteralConversionError, ""},
		{"enum token", expr.Compare(expr.OpEQ, f("status"), lit("'Z'")), LiteralConversionError, "enum"},
		{"enum token case", expr.Compare(expr.OpEQ, f("status"), lit("'a'")), LiteralConversionError, ""},
		{"between conversion", expr.Between("age", 1, "x"), LiteralConversionError, ""},
		{"in conversion", expr.In("status", "A", "Q"), LiteralConversionError, ""},
		{"literal alone", lit("true"), MalformedExpression, ""},
		{"field alone", f("active"), MalformedExpression, ""},
		{"and one arg", &expr.Logical{Op: expr.LogicAnd, Args: []expr.Node{expr.Compare(expr.OpEQ, f("age"), 1)}}, MalformedExpression, ""},
		{"not two args", &expr.Logical{Op: expr.LogicNot, Args: []expr.Node{f("a"), f("b")}}, MalformedExpression, ""},
		{"bad logic op", &expr.Logical{Op: 0, Args: []expr.Node{f("a"), f("b")}}, MalformedExpression, ""},
		{"nil child", expr.And(expr.Compare(expr.OpEQ, f("age"), 1), nil), MalformedExpression, ""},
		{"typed nil", (*expr.Comparison)(nil), MalformedExpression, ""},
		{"nested error", expr.Or(expr.Compare(expr.OpEQ, f("age"), 1), expr.Not(expr.Compare(expr.OpEQ, f("nope"), 1))), UnknownField, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.node, peopleSchema, WithAnchorTime(anchor))
			require.Error(t, err)
			assert.Nil(t, p, "no partial predicate")
			kind, ok := KindOf(err)
			require.True(t, ok, "expected *Error got %T", err)
			assert.Equal(t, tt.kind, kind, err.Error())
			assert.True(t, errors.Is(err, kindErrs[tt.kind]))
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestStrictMatches(t *testing.T) {
	n := expr.Compare(expr.OpMatches, f("age"), lit("'4%'"))
	_, err := Compile(n, peopleSchema, WithStrictMatches())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedOperator))

	p, err := Compile(expr.Compare(expr.OpMatches, f("name"), lit("'A%'")), peopleSchema, WithStrictMatches())
	require.NoError(t, err)
	assert.True(t, p.Eval(person(1)))
}

func TestMatchesUsesSourceText(t *testing.T) {
	// a parser may hand over a value that differs from the written text
	n := expr.Compare(expr.OpMatches, f("name"), expr.NewLiteralText(42, "'%Ada%'"))
	p := mustCompile(t, n)
	m, ok := p.(*predicate.Match)
	require.True(t, ok)
	assert.Equal(t, "%Ada%", m.Pattern)

	n2 := expr.Compare(expr.OpEQ, f("age"), expr.NewLiteralText(1.0, "007"))
	c, ok := mustCompile(t, n2).(*predicate.Compare)
	require.True(t, ok)
	assert.Equal(t, value.NewIntValue(7), c.Value)
}

func TestPredicateShape(t *testing.T) {
	p := mustCompile(t, expr.And(
		expr.Between("age", 18, 30),
		expr.Not(expr.In("status", "A", "B")),
	))
	and, ok := p.(*predicate.And)
	require.True(t, ok)
	btw, ok := and.Left.(*predicate.Between)
	require.True(t, ok)
	assert.Equal(t, "age", btw.Field.Name)
	assert.Equal(t, value.IntType, btw.Field.Type)
	assert.Equal(t, value.NewIntValue(18), btw.Lower)
	assert.Equal(t, value.NewIntValue(30), btw.Upper)
	not, ok := and.Right.(*predicate.Not)
	require.True(t, ok)
	in, ok := not.Arg.(*predicate.In)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.NewStringValue("A"), value.NewStringValue("B")}, in.Values())
	assert.Equal(t, "(Between(age, 18, 30)) and (!(In(status, 'A', 'B')))", p.String())
}

func TestCompileIdempotent(t *testing.T) {
	n := expr.Or(expr.Between("age", 18, 30), expr.Compare(expr.OpMatches, f("name"), "%Ada%"))
	p1 := mustCompile(t, n)
	p2 := mustCompile(t, n)
	assert.Equal(t, p1.String(), p2.String())
	for _, age := range []int{10, 18, 30, 50} {
		r := person(age)
		r["name"] = fmt.Sprintf("name-%d", age)
		assert.Equal(t, p1.Eval(r), p2.Eval(r))
	}
}

func TestDirectCompilerCache(t *testing.T) {
	dc := NewDirectCompiler(WithAnchorTime(anchor))
	n := expr.Compare(expr.OpGE, f("age"), 18)

	p1, err := dc.Compile(n, peopleSchema)
	require.NoError(t, err)
	p2, err := dc.Compile(expr.Compare(expr.OpGE, f("age"), 18), peopleSchema)
	require.NoError(t, err)
	assert.True(t, p1 == p2, "same expression should come from cache")
	assert.Equal(t, 1, dc.Len())

	// same text against a different schema is a different entry
	other := schema.MustNew("people", schema.NewField("age", value.NumberType))
	p3, err := dc.Compile(n, other)
	require.NoError(t, err)
	assert.Equal(t, value.NumberType, p3.(*predicate.Compare).Field.Type)
	assert.Equal(t, 2, dc.Len())

	// relative dates are never cached
	_, err = dc.Compile(expr.Compare(expr.OpGT, f("born"), lit("'now-1d'")), peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, 2, dc.Len())

	// errors are not cached
	_, err = dc.Compile(expr.Compare(expr.OpEQ, f("nope"), 1), peopleSchema)
	assert.Error(t, err)
	assert.Equal(t, 2, dc.Len())

	p, err := dc.Compile(nil, peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, predicate.MatchAll, p)

	dc.Reset()
	assert.Equal(t, 0, dc.Len())
}

func TestDirectCompilerCacheKeyIsStructural(t *testing.T) {
	dc := NewDirectCompiler(WithAnchorTime(anchor))

	// a bare literal and a field print the same
	litMatch := expr.Compare(expr.OpMatches, f("name"), lit("nickname"))
	fieldMatch := expr.Compare(expr.OpMatches, f("name"), f("nickname"))
	require.Equal(t, litMatch.String(), fieldMatch.String())

	p, err := dc.Compile(litMatch, peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, predicate.KindMatch, p.Kind())
	_, err = dc.Compile(fieldMatch, peopleSchema)
	assert.True(t, errors.Is(err, ErrUnsupportedFieldComparison), "got %v", err)

	p, err = dc.Compile(expr.Compare(expr.OpEQ, f("name"), lit("nickname")), peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, predicate.KindCompare, p.Kind())
	p, err = dc.Compile(expr.Compare(expr.OpEQ, f("name"), f("nickname")), peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, predicate.KindFieldCompare, p.Kind())

	// one literal with a comma against two literals
	one := expr.Call("In", f("name"), lit("a, b"))
	two := expr.Call("In", f("name"), lit("a"), lit("b"))
	require.Equal(t, one.String(), two.String())
	p, err = dc.Compile(one, peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, 1, p.(*predicate.In).Len())
	p, err = dc.Compile(two, peopleSchema)
	require.NoError(t, err)
	assert.Equal(t, 2, p.(*predicate.In).Len())
	assert.Equal(t, 5, dc.Len())

	// a nil child hashes and fails to compile
	_, err = dc.Compile(expr.And(expr.Compare(expr.OpEQ, f("age"), 1), nil), peopleSchema)
	assert.True(t, errors.Is(err, ErrMalformedExpression))
	assert.Equal(t, 0, dc.Len())
}

func TestDirectCompilerConcurrent(t *testing.T) {
	dc := NewDirectCompiler()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := expr.Compare(expr.OpGE, f("age"), i%4)
			p, err := dc.Compile(n, peopleSchema)
			assert.NoError(t, err)
			assert.Equal(t, i%4 <= 3, p.Eval(person(3)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, dc.Len())
}

func TestCompileMaxDepth(t *testing.T) {
	var n expr.Node = expr.Compare(expr.OpEQ, f("age"), 1)
	for i := 0; i < MaxDepth; i++ {
		n = expr.Not(n)
	}
	_, err := Compile(n, peopleSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedExpression))
	assert.Contains(t, err.Error(), "nested deeper")
}

func BenchmarkCompile(b *testing.B) {
	n := expr.And(
		expr.Between("age", 18, 30),
		expr.Or(expr.In("status", "A", "B"), expr.Compare(expr.OpMatches, f("name"), "%Ada%")),
	)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(n, peopleSchema); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEval(b *testing.B) {
	n := expr.And(
		expr.Between("age", 18, 30),
		expr.Or(expr.In("status", "A", "B"), expr.Compare(expr.OpMatches, f("name"), "%Ada%")),
	)
	p, err := Compile(n, peopleSchema)
	if err != nil {
		b.Fatal(err)
	}
	r := person(24)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Eval(r)
	}
}
