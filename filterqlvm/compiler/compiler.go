// Package compiler turns an expression tree into a predicate.Predicate,
// resolving fields against a schema and converting literals to the
// declared field types.
package compiler

import (
	"encoding/binary"
	"sync"
	"time"

	u "github.com/araddon/gou"
	"github.com/dchest/siphash"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

type (
	// Option configures a compile call.
	Option func(*options)

	options struct {
		anchor        time.Time
		strictMatches bool
	}

	// compilation is the state of one Compile call.
	compilation struct {
		schema *schema.Schema
		opts   options
		// relative is set when a literal used date math, the result then
		// depends on the anchor time.
		relative bool
		depth    int
	}
)

// MaxDepth specifies the depth at which we are certain the expression is
// malformed or cyclic.
var MaxDepth = 1000

// WithAnchorTime sets the "now" used for relative date literals
// (now-3d). Defaults to the time of the compile call.
func WithAnchorTime(t time.Time) Option {
	return func(o *options) { o.anchor = t }
}

// WithStrictMatches rejects matches against fields that are not strings.
// By default the field is compared using its string form.
func WithStrictMatches() Option {
	return func(o *options) { o.strictMatches = true }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.anchor.IsZero() {
		o.anchor = time.Now()
	}
	return o
}

// Compile compiles node against s. A nil node compiles to
// predicate.MatchAll. A nil schema is a programming error and panics.
func Compile(node expr.Node, s *schema.Schema, opts ...Option) (predicate.Predicate, error) {
	p, _, err := compile(node, s, newOptions(opts))
	return p, err
}

func compile(node expr.Node, s *schema.Schema, o options) (predicate.Predicate, bool, error) {
	if s == nil {
		panic("compiler: schema must not be nil")
	}
	if node == nil {
		u.Debugf("nothing to compile, expression is nil: matching all")
		return predicate.MatchAll, false, nil
	}
	c := &compilation{schema: s, opts: o}
	p, err := c.compileNode(node)
	if err != nil {
		u.Debugf("could not compile %q for %s: %v", node, s.Name, err)
		return nil, false, err
	}
	return p, c.relative, nil
}

// compileNode dispatches on the node type. Literals and field references
// are not boolean expressions on their own.
func (c *compilation) compileNode(node expr.Node) (predicate.Predicate, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > MaxDepth {
		return nil, newError(MalformedExpression, node, "expression nested deeper than %d", MaxDepth)
	}
	switch n := node.(type) {
	case *expr.Logical:
		if n == nil {
			return nil, malformed(nil)
		}
		return c.compileLogical(n)
	case *expr.MethodCall:
		if n == nil {
			return nil, malformed(nil)
		}
		return c.compileMethod(n)
	case *expr.Comparison:
		if n == nil {
			return nil, malformed(nil)
		}
		return c.compileComparison(n)
	case *expr.Literal, *expr.FieldRef:
		return nil, malformed(node)
	default:
		return nil, malformed(node)
	}
}

func (c *compilation) compileLogical(n *expr.Logical) (predicate.Predicate, error) {
	switch n.Op {
	case expr.LogicAnd, expr.LogicOr:
		if len(n.Args) != 2 {
			return nil, malformed(n)
		}
		left, err := c.compileNode(n.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := c.compileNode(n.Args[1])
		if err != nil {
			return nil, err
		}
		if n.Op == expr.LogicAnd {
			return predicate.NewAnd(left, right), nil
		}
		return predicate.NewOr(left, right), nil
	case expr.LogicNot:
		if len(n.Args) != 1 {
			return nil, malformed(n)
		}
		arg, err := c.compileNode(n.Args[0])
		if err != nil {
			return nil, err
		}
		return predicate.NewNot(arg), nil
	}
	return nil, malformed(n)
}

func (c *compilation) compileMethod(n *expr.MethodCall) (predicate.Predicate, error) {
	switch n.Name {
	case expr.MethodBetween, expr.MethodIn:
	default:
		return nil, newError(UnsupportedOperator, n, "unrecognised method %q", n.Name)
	}
	if len(n.Args) == 0 {
		return nil, newError(ArityError, n, "%s requires a field argument", n.Name)
	}
	fr, ok := n.Args[0].(*expr.FieldRef)
	if !ok || fr == nil {
		return nil, newError(InvalidLeftOperand, n, "first argument must be a field")
	}
	f, err := c.field(fr)
	if err != nil {
		return nil, err
	}
	lits := make([]*expr.Literal, 0, len(n.Args)-1)
	for _, arg := range n.Args[1:] {
		lit, ok := arg.(*expr.Literal)
		if !ok || lit == nil {
			return nil, newError(InvalidRightOperand, n, "%s arguments after the field must be literals", n.Name)
		}
		lits = append(lits, lit)
	}

	switch n.Name {
	case expr.MethodBetween:
		if len(lits) < 2 {
			return nil, newError(ArityError, n, "Between requires a field and 2 values, got %d", len(lits))
		}
		lo, err := c.coerce(f, lits[0])
		if err != nil {
			return nil, err
		}
		hi, err := c.coerce(f, lits[1])
		if err != nil {
			return nil, err
		}
		return predicate.NewBetween(predicate.FieldOf(f), lo, hi), nil
	default:
		if len(lits) == 0 {
			return nil, newError(ArityError, n, "In requires a field and at least 1 value")
		}
		vals := make([]value.Value, len(lits))
		for i, lit := range lits {
			v, err := c.coerce(f, lit)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return predicate.NewIn(predicate.FieldOf(f), vals...), nil
	}
}

func (c *compilation) compileComparison(n *expr.Comparison) (predicate.Predicate, error) {
	fr, ok := n.Left.(*expr.FieldRef)
	if !ok || fr == nil {
		return nil, newError(InvalidLeftOperand, n, "left-hand side must be a field")
	}
	f, err := c.field(fr)
	if err != nil {
		return nil, err
	}

	switch right := n.Right.(type) {
	case *expr.FieldRef:
		if right == nil {
			break
		}
		op, ok := orderOp(n.Op)
		if !ok {
			return nil, newError(UnsupportedFieldComparison, n, "operator %s not valid between two fields", n.Op)
		}
		rf, err := c.field(right)
		if err != nil {
			return nil, err
		}
		return predicate.NewFieldCompare(predicate.FieldOf(f), op, predicate.FieldOf(rf)), nil

	case *expr.Literal:
		if right == nil {
			break
		}
		if n.Op == expr.OpMatches {
			if c.opts.strictMatches && f.Type != value.StringType {
				return nil, newError(UnsupportedOperator, n, "matches requires a string field, %q is %s", f.Name, f.Type)
			}
			return predicate.NewMatch(predicate.FieldOf(f), right.Unquoted()), nil
		}
		op, ok := orderOp(n.Op)
		if !ok {
			return nil, newError(UnsupportedOperator, n, "operator %s not supported between a field and a literal", n.Op)
		}
		v, err := c.coerce(f, right)
		if err != nil {
			return nil, err
		}
		return predicate.NewCompare(predicate.FieldOf(f), op, v), nil
	}
	return nil, newError(InvalidRightOperand, n, "right-hand side must be a literal or a field")
}

func (c *compilation) field(fr *expr.FieldRef) (*schema.Field, error) {
	f, ok := c.schema.Field(fr.Name)
	if !ok {
		return nil, newError(UnknownField, fr, "unknown field %q in %s", fr.Name, c.schema.Name)
	}
	return f, nil
}

// coerce always works from the literal's source text.
func (c *compilation) coerce(f *schema.Field, lit *expr.Literal) (value.Value, error) {
	text := lit.String()
	if f.Type == value.TimeType && IsDateMath(text) {
		c.relative = true
	}
	return CoerceLiteral(f, text, c.opts.anchor)
}

func orderOp(op expr.Operator) (predicate.Op, bool) {
	switch op {
	case expr.OpEQ:
		return predicate.EQ, true
	case expr.OpGE:
		return predicate.GE, true
	case expr.OpGT:
		return predicate.GT, true
	case expr.OpLE:
		return predicate.LE, true
	case expr.OpLT:
		return predicate.LT, true
	}
	return 0, false
}

// DirectCompiler compiles and caches predicates by schema and expression
// text. Predicates using relative dates are not cached. Safe for
// concurrent use.
type DirectCompiler struct {
	cache     map[uint64]predicate.Predicate
	cacheLock sync.RWMutex
	opts      []Option
}

// NewDirectCompiler creates a caching compiler; opts apply to every compile.
func NewDirectCompiler(opts ...Option) *DirectCompiler {
	return &DirectCompiler{
		cache: make(map[uint64]predicate.Predicate),
		opts:  opts,
	}
}

const (
	hashK0 = 0x6c79746963736672
	hashK1 = 0x716c707265646963
)

func hashNode(node expr.Node, s *schema.Schema, o options) uint64 {
	buf := make([]byte, 0, 128)
	buf = appendString(buf, s.Name)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.Len()))
	for _, f := range s.Fields() {
		buf = appendString(buf, f.String())
	}
	if o.strictMatches {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendNode(buf, node)
	return siphash.Hash(hashK0, hashK1, buf)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// appendNode encodes the tree structurally. String() is not enough, a field
// and an unquoted literal of the same name print alike.
func appendNode(buf []byte, node expr.Node) []byte {
	switch n := node.(type) {
	case *expr.Literal:
		if n != nil {
			return appendString(append(buf, byte(expr.LiteralNodeType)), n.Text)
		}
	case *expr.FieldRef:
		if n != nil {
			return appendString(append(buf, byte(expr.FieldRefNodeType)), n.Name)
		}
	case *expr.Logical:
		if n != nil {
			buf = append(buf, byte(expr.LogicalNodeType), byte(n.Op))
			return appendArgs(buf, n.Args)
		}
	case *expr.Comparison:
		if n != nil {
			buf = append(buf, byte(expr.ComparisonNodeType), byte(n.Op))
			buf = appendNode(buf, n.Left)
			return appendNode(buf, n.Right)
		}
	case *expr.MethodCall:
		if n != nil {
			buf = appendString(append(buf, byte(expr.MethodCallNodeType)), n.Name)
			return appendArgs(buf, n.Args)
		}
	}
	return append(buf, 0)
}

func appendArgs(buf []byte, args []expr.Node) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(args)))
	for _, arg := range args {
		buf = appendNode(buf, arg)
	}
	return buf
}

// Compile returns a cached predicate when one exists for the same schema
// and expression, otherwise compiles and caches it.
func (c *DirectCompiler) Compile(node expr.Node, s *schema.Schema) (predicate.Predicate, error) {
	if s == nil {
		panic("compiler: schema must not be nil")
	}
	if node == nil {
		return predicate.MatchAll, nil
	}
	o := newOptions(c.opts)
	hash := hashNode(node, s, o)

	c.cacheLock.RLock()
	if p, ok := c.cache[hash]; ok {
		c.cacheLock.RUnlock()
		return p, nil
	}
	c.cacheLock.RUnlock()

	p, relative, err := compile(node, s, o)
	if err != nil {
		return nil, err
	}
	if relative {
		return p, nil
	}

	c.cacheLock.Lock()
	c.cache[hash] = p
	c.cacheLock.Unlock()
	return p, nil
}

// Len is the number of cached predicates.
func (c *DirectCompiler) Len() int {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	return len(c.cache)
}

// Reset drops all cached predicates.
func (c *DirectCompiler) Reset() {
	c.cacheLock.Lock()
	c.cache = make(map[uint64]predicate.Predicate)
	c.cacheLock.Unlock()
}
