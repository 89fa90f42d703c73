package value

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

func NewNumberValue(v float64) NumberValue {
	return NumberValue{v: v}
}
func NewNumberNil() NumberValue {
	return NumberValue{v: math.NaN()}
}
func (m NumberValue) Nil() bool                    { return math.IsNaN(m.v) }
func (m NumberValue) Err() bool                    { return math.IsNaN(m.v) }
func (m NumberValue) Type() ValueType              { return NumberType }
func (m NumberValue) Value() interface{}           { return m.v }
func (m NumberValue) Val() float64                 { return m.v }
func (m NumberValue) MarshalJSON() ([]byte, error) { return marshalFloat(m.v) }
func (m NumberValue) ToString() string             { return strconv.FormatFloat(m.v, 'f', -1, 64) }
func (m NumberValue) Float() float64               { return m.v }
func (m NumberValue) Int() int64                   { return int64(m.v) }
func (m NumberValue) IsZero() bool                 { return m.v == float64(0) }

func NewIntValue(v int64) IntValue {
	return IntValue{v: v}
}

func NewIntNil() IntValue {
	return IntValue{v: math.MinInt32}
}

func (m IntValue) Nil() bool                    { return m.v == math.MinInt32 }
func (m IntValue) Err() bool                    { return m.v == math.MinInt32 }
func (m IntValue) Type() ValueType              { return IntType }
func (m IntValue) Value() interface{}           { return m.v }
func (m IntValue) Val() int64                   { return m.v }
func (m IntValue) MarshalJSON() ([]byte, error) { return marshalFloat(float64(m.v)) }
func (m IntValue) NumberValue() NumberValue     { return NewNumberValue(float64(m.v)) }
func (m IntValue) IsZero() bool                 { return m.v == int64(0) }
func (m IntValue) Float() float64               { return float64(m.v) }
func (m IntValue) Int() int64                   { return m.v }
func (m IntValue) ToString() string {
	if m.v == math.MinInt32 {
		return ""
	}
	return strconv.FormatInt(m.v, 10)
}

func NewBoolValue(v bool) BoolValue {
	if v {
		return BoolValueTrue
	}
	return BoolValueFalse
}

func (m BoolValue) Nil() bool                    { return false }
func (m BoolValue) Err() bool                    { return false }
func (m BoolValue) Type() ValueType              { return BoolType }
func (m BoolValue) Value() interface{}           { return m.v }
func (m BoolValue) Val() bool                    { return m.v }
func (m BoolValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m BoolValue) ToString() string             { return strconv.FormatBool(m.v) }
func (m BoolValue) IsZero() bool                 { return !m.v }

func NewStringValue(v string) StringValue {
	return StringValue{v: v}
}

func (m StringValue) Nil() bool                    { return len(m.v) == 0 }
func (m StringValue) Err() bool                    { return false }
func (m StringValue) Type() ValueType              { return StringType }
func (m StringValue) Value() interface{}           { return m.v }
func (m StringValue) Val() string                  { return m.v }
func (m StringValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m StringValue) IsZero() bool                 { return m.Nil() }
func (m StringValue) ToString() string             { return m.v }
func (m StringValue) StringsValue() StringsValue   { return NewStringsValue([]string{m.v}) }

func (m StringValue) NumberValue() NumberValue {
	fv, ok := StringToFloat64(m.v)
	if !ok {
		return NumberNaNValue
	}
	return NewNumberValue(fv)
}

func (m StringValue) IntValue() IntValue {
	iv, ok := ValueToInt64(m)
	if !ok {
		return NewIntNil()
	}
	return NewIntValue(iv)
}

func NewTimeValue(v time.Time) TimeValue {
	return TimeValue{v: v}
}

func (m TimeValue) Nil() bool                    { return m.v.IsZero() }
func (m TimeValue) Err() bool                    { return false }
func (m TimeValue) Type() ValueType              { return TimeType }
func (m TimeValue) Value() interface{}           { return m.v }
func (m TimeValue) Val() time.Time               { return m.v }
func (m TimeValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m TimeValue) Float() float64               { return float64(m.Int()) }
func (m TimeValue) Int() int64                   { return m.v.In(time.UTC).UnixNano() / 1e6 }
func (m TimeValue) Time() time.Time              { return m.v }
func (m TimeValue) IsZero() bool                 { return m.v.UnixNano() == 0 }

// ToString renders RFC3339 so LIKE patterns and text backends see the
// same form.
func (m TimeValue) ToString() string {
	if m.v.IsZero() {
		return ""
	}
	return m.v.Format(time.RFC3339Nano)
}
