package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// ErrInvalidUTF8 is returned when a string is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("value: invalid UTF-8 string")

// wire is the JSON configuration used for every payload on the bridge.
// Keys are sorted so encoded output is stable across runs.
var wire = sonic.Config{
	SortMapKeys:    true,
	UseNumber:      true,
	ValidateString: true,
	EscapeHTML:     false,
}.Froze()

// API exposes the frozen JSON configuration for packages that marshal
// envelopes alongside values.
func API() sonic.API { return wire }

// Parse decodes a JSON document into a Value.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		return Value{}, ErrInvalidUTF8
	}
	var raw any
	if err := wire.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("value: %w", err)
	}
	return fromWire(raw)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	native, err := v.toWire()
	if err != nil {
		return nil, err
	}
	return wire.Marshal(native)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// toWire lowers a Value to a tree sonic can marshal. Floats are rendered
// as json.Number so integral floats keep a fraction and decode back as
// Float.
func (v Value) toWire() (any, error) {
	switch v.kind {
	case Null:
		return nil, nil
	case Bool:
		return v.b, nil
	case Int:
		return json.Number(strconv.FormatInt(v.i, 10)), nil
	case Float:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, nil
		}
		return json.Number(formatFloat(v.f)), nil
	case String:
		if !utf8.ValidString(v.s) {
			return nil, ErrInvalidUTF8
		}
		return v.s, nil
	case Array:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			lowered, err := item.toWire()
			if err != nil {
				return nil, err
			}
			out[i] = lowered
		}
		return out, nil
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, field := range v.obj {
			if !utf8.ValidString(k) {
				return nil, ErrInvalidUTF8
			}
			lowered, err := field.toWire()
			if err != nil {
				return nil, err
			}
			out[k] = lowered
		}
		return out, nil
	}
	return nil, fmt.Errorf("value: unknown kind %d", v.kind)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func fromWire(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return fromNumber(t)
	case float64:
		return NewFloat(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			converted, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Value{kind: Array, arr: items}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			converted, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = converted
		}
		return Value{kind: Object, obj: obj}, nil
	}
	return Value{}, fmt.Errorf("value: unexpected JSON type %T", raw)
}

func fromNumber(n json.Number) (Value, error) {
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return NewInt(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, fmt.Errorf("value: bad number %q: %w", text, err)
	}
	return NewFloat(f), nil
}
