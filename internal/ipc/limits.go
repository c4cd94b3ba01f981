package ipc

import (
	"fmt"

	"github.com/GriffinCanCode/wui/internal/value"
)

// Message limits.
const (
	DefaultMaxBytes = 1 * 1024 * 1024 // 1MB
	DefaultMaxDepth = 64
)

// Limits bounds inbound messages. Zero fields are unlimited.
type Limits struct {
	MaxBytes int
	MaxDepth int
}

// DefaultLimits returns the default message limits.
func DefaultLimits() Limits {
	return Limits{MaxBytes: DefaultMaxBytes, MaxDepth: DefaultMaxDepth}
}

// DecodeWithin decodes body after checking it against l.
func DecodeWithin(body []byte, l Limits) (Envelope, error) {
	if l.MaxBytes > 0 && len(body) > l.MaxBytes {
		return Envelope{}, protocolError(fmt.Sprintf("message of %d bytes exceeds %d", len(body), l.MaxBytes), nil)
	}
	env, err := Decode(body)
	if err != nil {
		return Envelope{}, err
	}
	if l.MaxDepth > 0 && depth(env.Args) > l.MaxDepth {
		return Envelope{}, protocolError(fmt.Sprintf("args nested deeper than %d", l.MaxDepth), nil)
	}
	return env, nil
}

func depth(v value.Value) int {
	switch v.Kind() {
	case value.Array:
		deepest := 0
		for _, item := range v.Items() {
			deepest = max(deepest, depth(item))
		}
		return deepest + 1
	case value.Object:
		deepest := 0
		for _, k := range v.Keys() {
			field, _ := v.Get(k)
			deepest = max(deepest, depth(field))
		}
		return deepest + 1
	default:
		return 0
	}
}
