package value

import (
	"time"
)

// ValueType is the data type of a Value or of a declared schema field.
type ValueType uint8

// The numbers are persisted in schema definitions, do not renumber.
const (
	NilType        ValueType = 0
	UnknownType    ValueType = 2
	NumberType     ValueType = 10
	IntType        ValueType = 11
	BoolType       ValueType = 12
	TimeType       ValueType = 13
	ByteSliceType  ValueType = 14
	StringType     ValueType = 20
	StringsType    ValueType = 21
	SliceValueType ValueType = 40
	StructType     ValueType = 50
)

type typeClass uint8

const (
	classScalar typeClass = 1 << iota
	classNumeric
	classSlice
)

type typeInfo struct {
	name  string
	class typeClass
	zero  func() Value
}

var types = map[ValueType]typeInfo{
	NilType:        {"nil", 0, func() Value { return NilValueVal }},
	UnknownType:    {"unknown", 0, nil},
	NumberType:     {"number", classScalar | classNumeric, func() Value { return NewNumberValue(0) }},
	IntType:        {"int", classScalar | classNumeric, func() Value { return NewIntValue(0) }},
	BoolType:       {"bool", classScalar, func() Value { return BoolValueFalse }},
	TimeType:       {"time", classScalar, func() Value { return NewTimeValue(time.Unix(0, 0).UTC()) }},
	ByteSliceType:  {"[]byte", 0, func() Value { return NewByteSliceValue([]byte{}) }},
	StringType:     {"string", classScalar, func() Value { return EmptyStringValue }},
	StringsType:    {"[]string", classSlice, func() Value { return NewStringsValue([]string{}) }},
	SliceValueType: {"[]value", classSlice, func() Value { return NewSliceValues([]Value{}) }},
	StructType:     {"struct", 0, func() Value { return NewStructValue(nil) }},
}

func (m ValueType) String() string {
	if ti, ok := types[m]; ok {
		return ti.name
	}
	return "invalid"
}

func (m ValueType) is(c typeClass) bool { return types[m].class&c != 0 }

func (m ValueType) IsSlice() bool   { return m.is(classSlice) }
func (m ValueType) IsNumeric() bool { return m.is(classNumeric) }

// IsScalar is true for the types a filterable field may be declared as.
func (m ValueType) IsScalar() bool { return m.is(classScalar) }

// Zero is the empty value of the type, nil for unknown types.
func (m ValueType) Zero() Value {
	if ti, ok := types[m]; ok && ti.zero != nil {
		return ti.zero()
	}
	return nil
}

// ValueFromString is the inverse of ValueType.String.
func ValueFromString(vt string) ValueType {
	if vt == "null" {
		return NilType
	}
	for t, ti := range types {
		if ti.name == vt {
			return t
		}
	}
	return UnknownType
}
