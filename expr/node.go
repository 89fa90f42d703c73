// Package expr is the parsed form of a filter expression: a closed set of
// node types (literals, field references, logical, comparison and method
// call nodes) handed to the compiler by an upstream parser.
package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NodeType identifies one of the node kinds below.
type NodeType uint8

const (
	LiteralNodeType NodeType = iota + 1
	FieldRefNodeType
	LogicalNodeType
	ComparisonNodeType
	MethodCallNodeType
)

func (m NodeType) String() string {
	switch m {
	case LiteralNodeType:
		return "Literal"
	case FieldRefNodeType:
		return "FieldRef"
	case LogicalNodeType:
		return "Logical"
	case ComparisonNodeType:
		return "Comparison"
	case MethodCallNodeType:
		return "MethodCall"
	}
	return "Unknown"
}

var (
	_ Node = (*Literal)(nil)
	_ Node = (*FieldRef)(nil)
	_ Node = (*Logical)(nil)
	_ Node = (*Comparison)(nil)
	_ Node = (*MethodCall)(nil)
)

type (
	// Node is a node in the expression tree. The set of implementations is
	// closed to this package.
	Node interface {
		NodeType() NodeType
		// String reconstructs the expression text, used in error messages.
		String() string
		node()
	}

	// Literal is a raw parsed scalar plus the exact source text it came from.
	// Text may still carry its quotes ('abc').
	Literal struct {
		Value interface{}
		Text  string
	}

	// FieldRef is an unqualified field name.
	FieldRef struct {
		Name string
	}

	// Logical is AND/OR with two args or NOT with one.
	Logical struct {
		Op   LogicOp
		Args []Node
	}

	// Comparison is a binary operator node.
	Comparison struct {
		Op    Operator
		Left  Node
		Right Node
	}

	// MethodCall is Between(field, lo, hi) or In(field, v1...vn).
	MethodCall struct {
		Name string
		Args []Node
	}
)

func (*Literal) node()    {}
func (*FieldRef) node()   {}
func (*Logical) node()    {}
func (*Comparison) node() {}
func (*MethodCall) node() {}

func (*Literal) NodeType() NodeType    { return LiteralNodeType }
func (*FieldRef) NodeType() NodeType   { return FieldRefNodeType }
func (*Logical) NodeType() NodeType    { return LogicalNodeType }
func (*Comparison) NodeType() NodeType { return ComparisonNodeType }
func (*MethodCall) NodeType() NodeType { return MethodCallNodeType }

// NewLiteral creates a literal, deriving its source text from the value.
func NewLiteral(v interface{}) *Literal {
	return &Literal{Value: v, Text: literalText(v)}
}

// NewLiteralText creates a literal keeping the parser's source text.
func NewLiteralText(v interface{}, text string) *Literal {
	return &Literal{Value: v, Text: text}
}

func literalText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return Quote(val)
	case time.Time:
		return Quote(val.Format(time.RFC3339Nano))
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return Quote(val.String())
	}
	return fmt.Sprintf("%v", v)
}

// Unquoted is the source text with one level of single or double quotes
// removed; a doubled quote inside is an escaped quote.
func (m *Literal) Unquoted() string {
	return Unquote(m.Text)
}

func (m *Literal) String() string {
	if m.Text == "" && m.Value != nil {
		return literalText(m.Value)
	}
	return m.Text
}

func (m *FieldRef) String() string { return m.Name }

func (m *Logical) String() string {
	switch m.Op {
	case LogicNot:
		if len(m.Args) == 1 {
			return fmt.Sprintf("!(%s)", nodeString(m.Args[0]))
		}
	case LogicAnd, LogicOr:
		if len(m.Args) == 2 {
			return fmt.Sprintf("(%s) %s (%s)", nodeString(m.Args[0]), m.Op, nodeString(m.Args[1]))
		}
	}
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = nodeString(a)
	}
	return fmt.Sprintf("%s(%s)", m.Op, strings.Join(args, ", "))
}

func (m *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", nodeString(m.Left), m.Op, nodeString(m.Right))
}

func (m *MethodCall) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = nodeString(a)
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(args, ", "))
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

// Quote wraps s in single quotes, doubling any embedded single quote.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Unquote strips matching single or double quotes from s. Unquoted text is
// returned unchanged.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return s
	}
	inner := s[1 : len(s)-1]
	doubled := string([]byte{q, q})
	return strings.ReplaceAll(inner, doubled, string(q))
}

// Field builds a field reference.
func Field(name string) *FieldRef { return &FieldRef{Name: name} }

// And combines two nodes.
func And(a, b Node) *Logical { return &Logical{Op: LogicAnd, Args: []Node{a, b}} }

// Or combines two nodes.
func Or(a, b Node) *Logical { return &Logical{Op: LogicOr, Args: []Node{a, b}} }

// Not negates a node.
func Not(a Node) *Logical { return &Logical{Op: LogicNot, Args: []Node{a}} }

// Compare builds a comparison. Plain go values on the right are wrapped
// as literals, Nodes are used as-is.
func Compare(op Operator, left Node, right interface{}) *Comparison {
	return &Comparison{Op: op, Left: left, Right: toNode(right)}
}

// Call builds a method call; non-Node args become literals.
func Call(name string, args ...interface{}) *MethodCall {
	nodes := make([]Node, len(args))
	for i, a := range args {
		nodes[i] = toNode(a)
	}
	return &MethodCall{Name: name, Args: nodes}
}

// Between builds Between(field, lo, hi).
func Between(field string, lo, hi interface{}) *MethodCall {
	return Call(MethodBetween, Field(field), lo, hi)
}

// In builds In(field, vals...).
func In(field string, vals ...interface{}) *MethodCall {
	return Call(MethodIn, append([]interface{}{Field(field)}, vals...)...)
}

func toNode(v interface{}) Node {
	if n, ok := v.(Node); ok {
		return n
	}
	return NewLiteral(v)
}
