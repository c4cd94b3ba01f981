// Package value implements the structured value model exchanged between
// host code and rendered content.
//
// A Value is a tagged union over null, bool, int64, float64, string,
// arrays and string-keyed objects. It is the only payload type that crosses
// the bridge; JSON is its wire form.
//
// Edge cases:
//   - NaN and ±Inf encode as JSON null.
//   - Native maps with non-string keys are converted with fmt.Sprint.
//   - JSON integers that fit int64 decode as Int; all other numbers as Float.
//   - Strings must be valid UTF-8; decoding rejects anything else.
package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Array
	Object
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable structured value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

func NewNull() Value           { return Value{} }
func NewBool(b bool) Value     { return Value{kind: Bool, b: b} }
func NewInt(i int64) Value     { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }
func NewString(s string) Value { return Value{kind: String, s: s} }

// NewArray builds an array value from items.
func NewArray(items ...Value) Value {
	return Value{kind: Array, arr: append([]Value(nil), items...)}
}

// NewObject copies fields into a new object value.
func NewObject(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	for k, v := range fields {
		obj[k] = v
	}
	return Value{kind: Object, obj: obj}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

// Len returns the element count of arrays and objects and the byte length
// of strings.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	case String:
		return len(v.s)
	}
	return 0
}

// AsBool returns the bool payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == Bool }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == String }

// AsInt returns the integer payload. Floats with an exact integer value
// are accepted too, since JSON producers rarely keep the distinction.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case Int:
		return v.i, true
	case Float:
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < math.MaxInt64 {
			return int64(v.f), true
		}
	}
	return 0, false
}

// AsFloat returns the numeric payload widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case Float:
		return v.f, true
	case Int:
		return float64(v.i), true
	}
	return 0, false
}

// Items returns a copy of the array elements.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return append([]Value(nil), v.arr...)
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Get returns an object field.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	field, ok := v.obj[key]
	return field, ok
}

// Keys returns object keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality. Int and Float never compare equal to each
// other; NaN equals NaN so that round-trip checks are meaningful.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case String:
		return v.s == o.s
	case Array:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, field := range v.obj {
			other, ok := o.obj[k]
			if !ok || !field.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value as compact JSON; invalid values render as
// their Go representation.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%#v", v.Native())
	}
	return string(data)
}

// Native converts the value into plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any.
func (v Value) Native() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	case Array:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Native()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, field := range v.obj {
			out[k] = field.Native()
		}
		return out
	}
	return nil
}

// FromNative converts a Go value into a Value. Supported inputs are nil,
// Value, bools, integer and float kinds, strings, []byte (as a string),
// slices, arrays, maps and pointers to any of these.
func FromNative(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case []byte:
		return NewString(string(t)), nil
	case int:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case float64:
		return NewFloat(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			converted, err := FromNative(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = converted
		}
		return Value{kind: Array, arr: items}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			converted, err := FromNative(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = converted
		}
		return Value{kind: Object, obj: obj}, nil
	}
	return fromReflect(reflect.ValueOf(x))
}

// MustFromNative is FromNative for literals in tests and static tables.
func MustFromNative(x any) Value {
	v, err := FromNative(x)
	if err != nil {
		panic(err)
	}
	return v
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return Value{}, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Value{}, nil
		}
		return FromNative(rv.Elem().Interface())
	case reflect.Bool:
		return NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return NewFloat(float64(u)), nil
		}
		return NewInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return NewFloat(rv.Float()), nil
	case reflect.String:
		return NewString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Value{}, nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			converted, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = converted
		}
		return Value{kind: Array, arr: items}, nil
	case reflect.Map:
		if rv.IsNil() {
			return Value{}, nil
		}
		obj := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			converted, err := FromNative(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			obj[key] = converted
		}
		return Value{kind: Object, obj: obj}, nil
	}
	return Value{}, fmt.Errorf("value: unsupported type %s", rv.Type())
}
