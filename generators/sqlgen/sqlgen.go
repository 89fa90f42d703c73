// Package sqlgen translates compiled predicates into a parameterized SQL
// WHERE clause. Constants are always bound as arguments, never written into
// the statement.
package sqlgen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leekchan/timeutil"

	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/value"
)

const (
	backend = "sql"

	// TimeFormat is the strftime layout times are bound with; it sorts
	// the same as the times it represents.
	TimeFormat = "%Y-%m-%d %H:%M:%S"

	matchAll  = "1 = 1"
	matchNone = "1 = 0"
)

// Dialect of SQL to generate.
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite3"
	case MySQL:
		return "mysql"
	}
	return "unknown"
}

// QuoteIdent quotes a column name for the dialect.
func (d Dialect) QuoteIdent(name string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var ops = map[predicate.Op]string{
	predicate.EQ: "=",
	predicate.GE: ">=",
	predicate.GT: ">",
	predicate.LE: "<=",
	predicate.LT: "<",
}

type FilterGenerator struct {
	schema  gentypes.SchemaColumns
	dialect Dialect
}

// NewGenerator creates a SQL generator. A nil schema maps every predicate
// field onto its own column.
func NewGenerator(s gentypes.SchemaColumns, d Dialect) *FilterGenerator {
	return &FilterGenerator{schema: s, dialect: d}
}

// Generate returns a payload whose Filter is the WHERE clause (without the
// keyword) and whose Args are the bind parameters, in order.
func (fg *FilterGenerator) Generate(p predicate.Predicate) (*gentypes.Payload, error) {
	w := &where{}
	if err := fg.walk(w, p, 0); err != nil {
		return nil, err
	}
	return &gentypes.Payload{Filter: w.String(), Args: w.args}, nil
}

type where struct {
	strings.Builder
	args []any
}

func (w *where) bind(v value.Value) error {
	val, ok := gentypes.Scalar(v)
	if !ok {
		return fmt.Errorf("unsupported type for sql argument: %T", v)
	}
	if t, ok := val.(time.Time); ok {
		t = t.UTC()
		val = timeutil.Strftime(&t, TimeFormat)
	}
	w.WriteByte('?')
	w.args = append(w.args, val)
	return nil
}

func (fg *FilterGenerator) walk(w *where, p predicate.Predicate, depth int) error {
	if depth > gentypes.MaxDepth {
		return gentypes.ErrMaxDepth
	}

	// each leaf writes into its own clause so a missing field can be
	// replaced with a false clause without disturbing the outer statement
	leaf := &where{}
	var err error
	switch n := p.(type) {
	case *predicate.And:
		return fg.booleanExpr(w, "AND", n.Left, n.Right, depth)
	case *predicate.Or:
		return fg.booleanExpr(w, "OR", n.Left, n.Right, depth)
	case *predicate.Not:
		// a NULL column must read as false before it is negated
		w.WriteString("NOT COALESCE(")
		if err := fg.walk(w, n.Arg, depth+1); err != nil {
			return err
		}
		w.WriteString(", 0)")
		return nil
	case *predicate.Compare:
		err = fg.compareExpr(leaf, n)
	case *predicate.FieldCompare:
		err = fg.fieldCompareExpr(leaf, n)
	case *predicate.Between:
		err = fg.betweenExpr(leaf, n)
	case *predicate.In:
		err = fg.inExpr(leaf, n)
	case *predicate.Match:
		err = fg.matchExpr(leaf, n)
	default:
		if p != nil && p.Kind() == predicate.KindMatchAll {
			w.WriteString(matchAll)
			return nil
		}
		return fmt.Errorf("unsupported predicate: %v", p)
	}
	if err != nil {
		// Convert MissingField errors to a logical `false`
		var errMissingField *gentypes.ErrorMissingField
		if errors.As(err, &errMissingField) {
			w.WriteString(matchNone)
			return nil
		}
		return err
	}
	w.WriteString(leaf.String())
	w.args = append(w.args, leaf.args...)
	return nil
}

func (fg *FilterGenerator) booleanExpr(w *where, op string, left, right predicate.Predicate, depth int) error {
	w.WriteByte('(')
	if err := fg.walk(w, left, depth+1); err != nil {
		return err
	}
	w.WriteString(" " + op + " ")
	if err := fg.walk(w, right, depth+1); err != nil {
		return err
	}
	w.WriteByte(')')
	return nil
}

func (fg *FilterGenerator) column(f predicate.Field) (*gentypes.FieldType, string, error) {
	ft, err := gentypes.ColumnFor(fg.schema, f)
	if err != nil {
		return nil, "", err
	}
	return ft, fg.dialect.QuoteIdent(ft.Field), nil
}

func (fg *FilterGenerator) compareExpr(w *where, n *predicate.Compare) error {
	_, col, err := fg.column(n.Field)
	if err != nil {
		return err
	}
	w.WriteString(col + " " + ops[n.Op] + " ")
	return w.bind(n.Value)
}

func (fg *FilterGenerator) fieldCompareExpr(w *where, n *predicate.FieldCompare) error {
	_, left, err := fg.column(n.Left)
	if err != nil {
		return err
	}
	_, right, err := fg.column(n.Right)
	if err != nil {
		return err
	}
	w.WriteString(left + " " + ops[n.Op] + " " + right)
	return nil
}

func (fg *FilterGenerator) betweenExpr(w *where, n *predicate.Between) error {
	_, col, err := fg.column(n.Field)
	if err != nil {
		return err
	}
	w.WriteString(col + " BETWEEN ")
	if err := w.bind(n.Lower); err != nil {
		return err
	}
	w.WriteString(" AND ")
	return w.bind(n.Upper)
}

func (fg *FilterGenerator) inExpr(w *where, n *predicate.In) error {
	_, col, err := fg.column(n.Field)
	if err != nil {
		return err
	}
	w.WriteString(col + " IN (")
	for i, v := range n.Values() {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := w.bind(v); err != nil {
			return err
		}
	}
	w.WriteByte(')')
	return nil
}

// sqliteGlob rewrites a LIKE pattern for GLOB, which has no escape
// character: metacharacters are matched literally inside a class.
var sqliteGlob = strings.NewReplacer("%", "*", "_", "?", "*", "[*]", "?", "[?]", "[", "[[]")

// matchExpr tests the text form of the column, case sensitively. SQLite
// uses GLOB since its LIKE ignores case; MySQL compares LIKE BINARY.
func (fg *FilterGenerator) matchExpr(w *where, n *predicate.Match) error {
	ft, col, err := fg.column(n.Field)
	if err != nil {
		return err
	}
	switch fg.dialect {
	case SQLite:
		if ft.Type != value.StringType {
			col = "CAST(" + col + " AS TEXT)"
		}
		w.WriteString(col + " GLOB ?")
		w.args = append(w.args, sqliteGlob.Replace(n.Pattern))
	case MySQL:
		if ft.Type != value.StringType {
			col = "CAST(" + col + " AS CHAR)"
		}
		w.WriteString(col + " LIKE BINARY ?")
		// backslash is the default LIKE escape
		w.args = append(w.args, strings.ReplaceAll(n.Pattern, `\`, `\\`))
	default:
		return gentypes.Unsupported(backend, n)
	}
	return nil
}
