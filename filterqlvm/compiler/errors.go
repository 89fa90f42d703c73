package compiler

import (
	"errors"
	"fmt"

	"github.com/lytics/qlpredicate/expr"
)

// ErrorKind classifies a compile failure.
type ErrorKind uint8

const (
	MalformedExpression ErrorKind = iota + 1
	InvalidLeftOperand
	InvalidRightOperand
	UnknownField
	UnsupportedOperator
	UnsupportedFieldComparison
	ArityError
	LiteralConversionError
)

var (
	ErrMalformedExpression        = errors.New("malformed expression")
	ErrInvalidLeftOperand         = errors.New("invalid left operand")
	ErrInvalidRightOperand        = errors.New("invalid right operand")
	ErrUnknownField               = errors.New("unknown field")
	ErrUnsupportedOperator        = errors.New("unsupported operator")
	ErrUnsupportedFieldComparison = errors.New("unsupported field comparison")
	ErrArity                      = errors.New("wrong number of arguments")
	ErrLiteralConversion          = errors.New("literal conversion")

	kindErrs = map[ErrorKind]error{
		MalformedExpression:        ErrMalformedExpression,
		InvalidLeftOperand:         ErrInvalidLeftOperand,
		InvalidRightOperand:        ErrInvalidRightOperand,
		UnknownField:               ErrUnknownField,
		UnsupportedOperator:        ErrUnsupportedOperator,
		UnsupportedFieldComparison: ErrUnsupportedFieldComparison,
		ArityError:                 ErrArity,
		LiteralConversionError:     ErrLiteralConversion,
	}
	kindNames = map[ErrorKind]string{
		MalformedExpression:        "MalformedExpression",
		InvalidLeftOperand:         "InvalidLeftOperand",
		InvalidRightOperand:        "InvalidRightOperand",
		UnknownField:               "UnknownField",
		UnsupportedOperator:        "UnsupportedOperator",
		UnsupportedFieldComparison: "UnsupportedFieldComparison",
		ArityError:                 "ArityError",
		LiteralConversionError:     "LiteralConversionError",
	}
)

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UnknownError"
}

// Error is a compile failure. Expr is the text of the offending
// sub-expression.
type Error struct {
	Kind ErrorKind
	Msg  string
	Expr string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Expr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Expr)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so
// errors.Is(err, ErrUnknownField) works.
func (e *Error) Is(target error) bool {
	return target != nil && kindErrs[e.Kind] == target
}

// KindOf extracts the ErrorKind of a compile error.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

func newError(kind ErrorKind, n expr.Node, format string, args ...interface{}) *Error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Expr = n.String()
	} else {
		e.Expr = "<nil>"
	}
	return e
}

func malformed(n expr.Node) *Error {
	return newError(MalformedExpression, n, "unrecognized expression")
}
