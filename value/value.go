// Package value defines the typed runtime values (string, int, time, etc)
// that flow through compiled predicates: literal operands after coercion
// and field values read from records.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

var (
	NilValueVal       = NewNilValue()
	BoolValueTrue     = BoolValue{v: true}
	BoolValueFalse    = BoolValue{v: false}
	NumberNaNValue    = NewNumberValue(math.NaN())
	EmptyStringValue  = NewStringValue("")
	EmptyStringsValue = NewStringsValue(nil)
	TimeZeroValue     = NewTimeValue(time.Time{})

	_ Value = (StringValue)(EmptyStringValue)

	// force some types to implement interfaces
	_ Slice        = (*StringsValue)(nil)
	_ Slice        = (*SliceValue)(nil)
	_ NumericValue = (*IntValue)(nil)
	_ NumericValue = (*NumberValue)(nil)
	_ NumericValue = (*TimeValue)(nil)
)

type (
	// Value is a typed scalar or slice.
	Value interface {
		// Is this a nil/empty?
		// empty string counts as nil, empty slices, nil structs.
		Nil() bool
		// Is this an error, or unable to evaluate?
		Err() bool
		Value() interface{}
		ToString() string
		Type() ValueType
		IsZero() bool
	}
	// Certain types are Numeric (Ints, Time, Number)
	NumericValue interface {
		Float() float64
		Int() int64
	}
	// Slices can always return a []Value representation and is meant to be used
	// when iterating over all items in a non-scalar value.
	Slice interface {
		SliceValue() []Value
		Len() int
		json.Marshaler
	}
)

type (
	NumberValue struct {
		v float64
	}
	IntValue struct {
		v int64
	}
	BoolValue struct {
		v bool
	}
	StringValue struct {
		v string
	}
	TimeValue struct {
		v time.Time
	}
	StringsValue struct {
		v []string
	}
	ByteSliceValue struct {
		v []byte
	}
	SliceValue struct {
		v []Value
	}
	StructValue struct {
		v interface{}
	}
	NilValue struct{}
)

// NewValue creates a new Value from a native Go value, as decoded from
// JSON documents or held in map records.
//
// Defaults to StructValue for types it cannot map.
func NewValue(goVal interface{}) Value {
	switch val := goVal.(type) {
	case nil:
		return NilValueVal
	case Value:
		return val
	case json.Number:
		// decoded documents (UseNumber) keep ints exact
		if iv, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return NewIntValue(iv)
		}
		if fv, err := val.Float64(); err == nil {
			return NewNumberValue(fv)
		}
		return NewStringValue(string(val))
	case time.Time:
		return NewTimeValue(val)
	case *time.Time:
		if val == nil {
			return TimeZeroValue
		}
		return NewTimeValue(*val)
	case []string:
		return NewStringsValue(val)
	case []byte:
		return NewByteSliceValue(val)
	case []interface{}:
		return interfaceSlice(val)
	}

	rv := reflect.ValueOf(goVal)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nilOf(rv.Type().Elem().Kind())
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewIntValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewIntValue(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NewNumberValue(rv.Float())
	case reflect.String:
		return NewStringValue(rv.String())
	case reflect.Bool:
		return NewBoolValue(rv.Bool())
	case reflect.Slice, reflect.Array:
		vals := make([]Value, rv.Len())
		for i := range vals {
			vals[i] = NewValue(rv.Index(i).Interface())
		}
		return NewSliceValues(vals)
	}
	return NewStructValue(goVal)
}

func nilOf(k reflect.Kind) Value {
	switch k {
	case reflect.Float32, reflect.Float64:
		return NewNumberNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewIntNil()
	}
	return NilValueVal
}

// interfaceSlice keeps all-string slices as StringsValue.
func interfaceSlice(val []interface{}) Value {
	if len(val) == 0 {
		return NewSliceValuesNative(val)
	}
	strs := make([]string, 0, len(val))
	for _, v := range val {
		sv, ok := v.(string)
		if !ok {
			return NewSliceValuesNative(val)
		}
		strs = append(strs, sv)
	}
	return NewStringsValue(strs)
}

func NewStructValue(v interface{}) StructValue {
	return StructValue{v: v}
}

func (m StructValue) Nil() bool                    { return m.v == nil }
func (m StructValue) Err() bool                    { return false }
func (m StructValue) Type() ValueType              { return StructType }
func (m StructValue) Value() interface{}           { return m.v }
func (m StructValue) Val() interface{}             { return m.v }
func (m StructValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m StructValue) ToString() string             { return fmt.Sprintf("%v", m.v) }
func (m StructValue) IsZero() bool                 { return m.Nil() }

func NewNilValue() NilValue {
	return NilValue{}
}

func (m NilValue) Nil() bool                    { return true }
func (m NilValue) Err() bool                    { return false }
func (m NilValue) Type() ValueType              { return NilType }
func (m NilValue) Value() interface{}           { return nil }
func (m NilValue) Val() interface{}             { return nil }
func (m NilValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (m NilValue) ToString() string             { return "" }
func (m NilValue) IsZero() bool                 { return true }
