// Package ipc implements the wire protocol between rendered content and
// the bridge.
//
// Inbound messages are JSON documents posted through window.ipc.postMessage:
//
//	{"event_type": "request" | "event", "command": "...", "args": ..., "request_id": "..."}
//
// Outbound messages are scripts evaluated in the page that dispatch a DOM
// CustomEvent whose detail is {data: ...} or {error: "..."}.
package ipc

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/wui/internal/value"
)

// Kind distinguishes fire-and-forget events from requests awaiting a reply.
type Kind uint8

const (
	KindEvent Kind = iota + 1
	KindRequest
)

// String returns the wire name of the kind
func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Envelope is a decoded inbound message.
type Envelope struct {
	Kind      Kind
	Command   string
	Args      value.Value
	RequestID string
}

// ErrProtocol matches every *ProtocolError.
var ErrProtocol = errors.New("ipc: protocol error")

// ProtocolError describes a malformed inbound message.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ipc: protocol error: %s: %v", e.Reason, e.Err)
	}
	return "ipc: protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Is reports ErrProtocol as a match so callers can use errors.Is.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

func protocolError(reason string, err error) error {
	return &ProtocolError{Reason: reason, Err: err}
}
