package value

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// StringToFloat64 parses a float, tolerating surrounding whitespace.
func StringToFloat64(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// ValueToString converts scalars (and single-element slices) to a string.
func ValueToString(val Value) (string, bool) {
	if val == nil || val.Err() {
		return "", false
	}
	switch v := val.(type) {
	case NilValue:
		return "", false
	case StringsValue:
		if len(v.v) == 0 {
			return "", false
		}
		return v.v[0], true
	case SliceValue:
		if len(v.v) == 0 {
			return "", false
		}
		return ValueToString(v.v[0])
	}
	return val.ToString(), true
}

// ValueToInt64 converts to an int64, truncating floats and parsing
// numeric strings ("15", "15.3").
func ValueToInt64(val Value) (int64, bool) {
	if val == nil || val.Nil() || val.Err() {
		return 0, false
	}
	switch v := val.(type) {
	case IntValue:
		return v.v, true
	case NumberValue:
		return int64(v.v), true
	case TimeValue:
		return v.Int(), true
	case BoolValue:
		if v.v {
			return 1, true
		}
		return 0, true
	case StringValue:
		return stringToInt64(v.v)
	case StringsValue:
		return stringToInt64(v.v[0])
	}
	return 0, false
}

func stringToInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		return iv, true
	}
	if fv, ok := StringToFloat64(s); ok {
		return int64(fv), true
	}
	return 0, false
}

// ValueToFloat64 converts to float64.
func ValueToFloat64(val Value) (float64, bool) {
	if val == nil || val.Nil() || val.Err() {
		return math.NaN(), false
	}
	switch v := val.(type) {
	case NumberValue:
		return v.v, true
	case IntValue:
		return float64(v.v), true
	case TimeValue:
		return v.Float(), true
	case StringValue:
		return StringToFloat64(v.v)
	case StringsValue:
		return StringToFloat64(v.v[0])
	}
	return math.NaN(), false
}

// ValueToBool converts bools, "true"/"false" style strings and 0/1 ints.
func ValueToBool(val Value) (bool, bool) {
	if val == nil || val.Nil() || val.Err() {
		return false, false
	}
	switch v := val.(type) {
	case BoolValue:
		return v.v, true
	case IntValue:
		switch v.v {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case StringValue:
		if b, err := strconv.ParseBool(strings.TrimSpace(v.v)); err == nil {
			return b, true
		}
	}
	return false, false
}

// ValueToTime converts to a time. Ints are treated as epoch milliseconds,
// strings are parsed with dateparse.
func ValueToTime(val Value) (time.Time, bool) {
	if val == nil || val.Nil() || val.Err() {
		return time.Time{}, false
	}
	switch v := val.(type) {
	case TimeValue:
		return v.v, true
	case IntValue:
		return time.Unix(0, v.v*int64(time.Millisecond)).UTC(), true
	case StringValue:
		return StringToTime(v.v)
	case StringsValue:
		return StringToTime(v.v[0])
	case ByteSliceValue:
		return StringToTime(string(v.v))
	}
	return time.Time{}, false
}

// StringToTime parses any of the date formats dateparse recognizes.
func StringToTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Cast converts val to the given scalar type.
func Cast(valType ValueType, val Value) (Value, bool) {
	if val == nil {
		return nil, false
	}
	if val.Type() == valType {
		return val, true
	}
	switch valType {
	case IntType:
		if iv, ok := ValueToInt64(val); ok {
			return NewIntValue(iv), true
		}
	case NumberType:
		if fv, ok := ValueToFloat64(val); ok {
			return NewNumberValue(fv), true
		}
	case BoolType:
		if bv, ok := ValueToBool(val); ok {
			return NewBoolValue(bv), true
		}
	case TimeType:
		if tv, ok := ValueToTime(val); ok {
			return NewTimeValue(tv), true
		}
	case StringType:
		if sv, ok := ValueToString(val); ok {
			return NewStringValue(sv), true
		}
	}
	return nil, false
}

func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}
