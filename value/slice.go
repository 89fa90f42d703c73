package value

import (
	"encoding/json"
	"strings"
)

func NewStringsValue(v []string) StringsValue {
	return StringsValue{v: v}
}

func (m StringsValue) Nil() bool                    { return len(m.v) == 0 }
func (m StringsValue) Err() bool                    { return false }
func (m StringsValue) Type() ValueType              { return StringsType }
func (m StringsValue) Value() interface{}           { return m.v }
func (m StringsValue) Val() []string                { return m.v }
func (m *StringsValue) Append(sv string)            { m.v = append(m.v, sv) }
func (m StringsValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m StringsValue) Len() int                     { return len(m.v) }
func (m StringsValue) IsZero() bool                 { return m.Nil() }
func (m StringsValue) ToString() string             { return strings.Join(m.v, ",") }
func (m StringsValue) Strings() []string            { return m.v }
func (m StringsValue) SliceValue() []Value {
	vs := make([]Value, len(m.v))
	for i, v := range m.v {
		vs[i] = NewStringValue(v)
	}
	return vs
}

func NewSliceValues(v []Value) SliceValue {
	return SliceValue{v: v}
}

func NewSliceValuesNative(iv []interface{}) SliceValue {
	vs := make([]Value, len(iv))
	for i, v := range iv {
		vs[i] = NewValue(v)
	}
	return SliceValue{v: vs}
}

func (m SliceValue) Nil() bool                    { return len(m.v) == 0 }
func (m SliceValue) Err() bool                    { return false }
func (m SliceValue) Type() ValueType              { return SliceValueType }
func (m SliceValue) Value() interface{}           { return m.v }
func (m SliceValue) Val() []Value                 { return m.v }
func (m SliceValue) IsZero() bool                 { return m.Nil() }
func (m *SliceValue) Append(v Value)              { m.v = append(m.v, v) }
func (m SliceValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.Values()) }
func (m SliceValue) Len() int                     { return len(m.v) }
func (m SliceValue) SliceValue() []Value          { return m.v }
func (m SliceValue) ToString() string {
	sv := make([]string, len(m.v))
	for i, val := range m.v {
		sv[i] = val.ToString()
	}
	return strings.Join(sv, ",")
}

// Values returns the native go values.
func (m SliceValue) Values() []interface{} {
	vals := make([]interface{}, len(m.v))
	for i, v := range m.v {
		vals[i] = v.Value()
	}
	return vals
}

func NewByteSliceValue(v []byte) ByteSliceValue {
	return ByteSliceValue{v: v}
}

func (m ByteSliceValue) Nil() bool                    { return len(m.v) == 0 }
func (m ByteSliceValue) Err() bool                    { return false }
func (m ByteSliceValue) Type() ValueType              { return ByteSliceType }
func (m ByteSliceValue) Value() interface{}           { return m.v }
func (m ByteSliceValue) Val() []byte                  { return m.v }
func (m ByteSliceValue) ToString() string             { return string(m.v) }
func (m ByteSliceValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m ByteSliceValue) Len() int                     { return len(m.v) }
func (m ByteSliceValue) IsZero() bool                 { return m.Nil() }
