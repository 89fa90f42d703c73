package value

import (
	"strings"
)

// Compare orders a against b, converting a to the type of b when they
// differ (numeric types compare with each other directly). ok is false when
// either side is missing or the two cannot be ordered.
func Compare(a, b Value) (int, bool) {
	if missing(a) || missing(b) {
		return 0, false
	}
	at, bt := a.Type(), b.Type()
	if at == IntType && bt == IntType {
		ai, _ := ValueToInt64(a)
		bi, _ := ValueToInt64(b)
		return cmpInt(ai, bi), true
	}
	if at.IsNumeric() && bt.IsNumeric() {
		af, _ := ValueToFloat64(a)
		bf, _ := ValueToFloat64(b)
		return cmpFloat(af, bf), true
	}
	switch bt {
	case IntType:
		ai, ok := ValueToInt64(a)
		bi, _ := ValueToInt64(b)
		return cmpInt(ai, bi), ok
	case NumberType:
		af, ok := ValueToFloat64(a)
		bf, _ := ValueToFloat64(b)
		return cmpFloat(af, bf), ok
	case StringType:
		as, ok := ValueToString(a)
		return strings.Compare(as, b.ToString()), ok
	case BoolType:
		ab, ok := ValueToBool(a)
		bb, _ := ValueToBool(b)
		if !ok {
			return 0, false
		}
		switch {
		case ab == bb:
			return 0, true
		case !ab:
			return -1, true
		}
		return 1, true
	case TimeType:
		atm, ok := ValueToTime(a)
		btm, ok2 := ValueToTime(b)
		if !ok || !ok2 {
			return 0, false
		}
		switch {
		case atm.Before(btm):
			return -1, true
		case atm.After(btm):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Equal is Compare == 0.
func Equal(a, b Value) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

func missing(v Value) bool {
	return v == nil || v.Type() == NilType || v.Err()
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
