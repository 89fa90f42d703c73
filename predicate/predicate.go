// Package predicate is the compiled form of a filter: an immutable tree of
// boolean tests over a record, with fields resolved and operands already
// converted to the field's declared type. Predicates can be evaluated
// in-memory or translated by a generator into a backend query.
package predicate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/btree"

	"github.com/lytics/qlpredicate/value"
)

// Kind identifies the predicate node type.
type Kind uint8

const (
	KindMatchAll Kind = iota + 1
	KindAnd
	KindOr
	KindNot
	KindCompare
	KindFieldCompare
	KindBetween
	KindIn
	KindMatch
)

var kindNames = map[Kind]string{
	KindMatchAll:     "match_all",
	KindAnd:          "and",
	KindOr:           "or",
	KindNot:          "not",
	KindCompare:      "compare",
	KindFieldCompare: "field_compare",
	KindBetween:      "between",
	KindIn:           "in",
	KindMatch:        "match",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Op is an ordering comparison operator.
type Op uint8

const (
	EQ Op = iota + 1
	GE
	GT
	LE
	LT
)

func (o Op) String() string {
	switch o {
	case EQ:
		return "=="
	case GE:
		return ">="
	case GT:
		return ">"
	case LE:
		return "<="
	case LT:
		return "<"
	}
	return "?"
}

// test applies the operator to the result of a three way compare.
func (o Op) test(c int) bool {
	switch o {
	case EQ:
		return c == 0
	case GE:
		return c >= 0
	case GT:
		return c > 0
	case LE:
		return c <= 0
	case LT:
		return c < 0
	}
	return false
}

var (
	// MatchAll accepts every record.
	MatchAll Predicate = matchAll{}

	_ Predicate = (*And)(nil)
	_ Predicate = (*Or)(nil)
	_ Predicate = (*Not)(nil)
	_ Predicate = (*Compare)(nil)
	_ Predicate = (*FieldCompare)(nil)
	_ Predicate = (*Between)(nil)
	_ Predicate = (*In)(nil)
	_ Predicate = (*Match)(nil)
)

type (
	// Predicate is a compiled boolean test. Implementations are closed to
	// this package and immutable once built.
	Predicate interface {
		Kind() Kind
		// Eval tests a record. Missing fields and values that can't be
		// compared evaluate false at the leaf.
		Eval(r Record) bool
		String() string
		predicate()
	}

	matchAll struct{}

	And struct {
		Left, Right Predicate
	}
	Or struct {
		Left, Right Predicate
	}
	Not struct {
		Arg Predicate
	}
	// Compare tests a field against a constant.
	Compare struct {
		Field Field
		Op    Op
		Value value.Value
	}
	// FieldCompare tests one field against another with no conversion
	// of either side.
	FieldCompare struct {
		Left  Field
		Op    Op
		Right Field
	}
	// Between is the closed range Lower <= field <= Upper.
	Between struct {
		Field        Field
		Lower, Upper value.Value
	}
	// In is set membership.
	In struct {
		Field Field
		set   *btree.BTreeG[value.Value]
	}
	// Match is a LIKE pattern test against the string form of a field:
	// % matches any run of characters, _ exactly one.
	Match struct {
		Field   Field
		Pattern string
		glob    string
	}
)

func (matchAll) predicate()      {}
func (*And) predicate()          {}
func (*Or) predicate()           {}
func (*Not) predicate()          {}
func (*Compare) predicate()      {}
func (*FieldCompare) predicate() {}
func (*Between) predicate()      {}
func (*In) predicate()           {}
func (*Match) predicate()        {}

func (matchAll) Kind() Kind      { return KindMatchAll }
func (*And) Kind() Kind          { return KindAnd }
func (*Or) Kind() Kind           { return KindOr }
func (*Not) Kind() Kind          { return KindNot }
func (*Compare) Kind() Kind      { return KindCompare }
func (*FieldCompare) Kind() Kind { return KindFieldCompare }
func (*Between) Kind() Kind      { return KindBetween }
func (*In) Kind() Kind           { return KindIn }
func (*Match) Kind() Kind        { return KindMatch }

func NewAnd(l, r Predicate) *And { return &And{Left: l, Right: r} }
func NewOr(l, r Predicate) *Or   { return &Or{Left: l, Right: r} }
func NewNot(p Predicate) *Not    { return &Not{Arg: p} }

func NewCompare(f Field, op Op, v value.Value) *Compare {
	return &Compare{Field: f, Op: op, Value: v}
}

func NewFieldCompare(l Field, op Op, r Field) *FieldCompare {
	return &FieldCompare{Left: l, Op: op, Right: r}
}

func NewBetween(f Field, lower, upper value.Value) *Between {
	return &Between{Field: f, Lower: lower, Upper: upper}
}

// NewIn builds a membership test; duplicate values collapse.
func NewIn(f Field, vals ...value.Value) *In {
	set := btree.NewG[value.Value](8, valueLess)
	for _, v := range vals {
		set.ReplaceOrInsert(v)
	}
	return &In{Field: f, set: set}
}

// NewMatch builds a LIKE pattern test.
func NewMatch(f Field, pattern string) *Match {
	return &Match{Field: f, Pattern: pattern, glob: LikeToGlob(pattern)}
}

// Values of an In set, in ascending order.
func (m *In) Values() []value.Value {
	vals := make([]value.Value, 0, m.set.Len())
	m.set.Ascend(func(v value.Value) bool {
		vals = append(vals, v)
		return true
	})
	return vals
}

// Len is the number of distinct values in the set.
func (m *In) Len() int { return m.set.Len() }

func valueLess(a, b value.Value) bool {
	if c, ok := value.Compare(a, b); ok {
		return c < 0
	}
	return a.ToString() < b.ToString()
}

// LikeToGlob rewrites a LIKE pattern into a glob: % becomes *, _ becomes ?
// and the glob metacharacters of the pattern are backslash escaped.
func LikeToGlob(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteByte('*')
		case '_':
			sb.WriteByte('?')
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// LikeToRegexp rewrites a LIKE pattern into an unanchored regular
// expression body: % becomes .*, _ becomes . and everything else is literal.
func LikeToRegexp(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteByte('.')
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return sb.String()
}

func (matchAll) String() string { return "*" }
func (m *And) String() string   { return fmt.Sprintf("(%s) and (%s)", m.Left, m.Right) }
func (m *Or) String() string    { return fmt.Sprintf("(%s) or (%s)", m.Left, m.Right) }
func (m *Not) String() string   { return fmt.Sprintf("!(%s)", m.Arg) }
func (m *Compare) String() string {
	return fmt.Sprintf("%s %s %s", m.Field.Name, m.Op, FormatValue(m.Value))
}
func (m *FieldCompare) String() string {
	return fmt.Sprintf("%s %s %s", m.Left.Name, m.Op, m.Right.Name)
}
func (m *Between) String() string {
	return fmt.Sprintf("Between(%s, %s, %s)", m.Field.Name, FormatValue(m.Lower), FormatValue(m.Upper))
}
func (m *In) String() string {
	args := []string{m.Field.Name}
	for _, v := range m.Values() {
		args = append(args, FormatValue(v))
	}
	return fmt.Sprintf("In(%s)", strings.Join(args, ", "))
}
func (m *Match) String() string {
	return fmt.Sprintf("%s matches %s", m.Field.Name, quote(m.Pattern))
}

// FormatValue renders a constant the way it would be written in a filter.
func FormatValue(v value.Value) string {
	if v == nil {
		return "null"
	}
	switch vt := v.(type) {
	case value.StringValue:
		return quote(vt.Val())
	case value.TimeValue:
		return quote(vt.Val().Format(time.RFC3339Nano))
	case value.NilValue:
		return "null"
	}
	return v.ToString()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
