package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lytics/datemath"

	"github.com/lytics/qlpredicate/expr"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

var nowRegex = regexp.MustCompile(`^now([-+/].*)?$`)

// IsDateMath is true for relative date text such as now, now-3d, now+1h/d.
func IsDateMath(text string) bool {
	return nowRegex.MatchString(strings.TrimSpace(expr.Unquote(strings.TrimSpace(text))))
}

// CoerceLiteral converts the source text of a literal to the declared type
// of f. Quotes are removed first. Relative dates are evaluated against
// anchor.
func CoerceLiteral(f *schema.Field, text string, anchor time.Time) (value.Value, error) {
	raw := expr.Unquote(strings.TrimSpace(text))
	switch f.Type {
	case value.IntType:
		iv, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, conversionError(f, text, err)
		}
		return value.NewIntValue(iv), nil
	case value.NumberType:
		fv, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, conversionError(f, text, err)
		}
		return value.NewNumberValue(fv), nil
	case value.BoolType:
		bv, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, conversionError(f, text, err)
		}
		return value.NewBoolValue(bv), nil
	case value.TimeType:
		tv, err := parseTime(strings.TrimSpace(raw), anchor)
		if err != nil {
			return nil, conversionError(f, text, err)
		}
		return value.NewTimeValue(tv), nil
	case value.StringType:
		if f.IsEnum() && !f.HasToken(raw) {
			return nil, conversionError(f, text, fmt.Errorf("not one of [%s]", strings.Join(f.Enum, ", ")))
		}
		return value.NewStringValue(raw), nil
	}
	return nil, conversionError(f, text, fmt.Errorf("unsupported field type %s", f.Type))
}

func parseTime(s string, anchor time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if nowRegex.MatchString(s) {
		return datemath.EvalAnchor(anchor, s)
	}
	return dateparse.ParseAny(s)
}

func conversionError(f *schema.Field, text string, err error) *Error {
	target := f.Type.String()
	if f.IsEnum() {
		target = "enum"
	}
	return &Error{
		Kind: LiteralConversionError,
		Msg:  fmt.Sprintf("cannot convert %s to %s for field %q", text, target, f.Name),
		Err:  err,
	}
}
