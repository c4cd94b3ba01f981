package ipc

import (
	"errors"
	"strings"

	"github.com/GriffinCanCode/wui/internal/value"
)

// Wire field names.
const (
	fieldEventType = "event_type"
	fieldCommand   = "command"
	fieldArgs      = "args"
	fieldRequestID = "request_id"
	fieldData      = "data"
	fieldError     = "error"
)

// Decode parses an inbound message body. Every failure is a *ProtocolError.
func Decode(body []byte) (Envelope, error) {
	doc, err := value.Parse(body)
	if err != nil {
		if errors.Is(err, value.ErrInvalidUTF8) {
			return Envelope{}, protocolError("invalid encoding", err)
		}
		return Envelope{}, protocolError("invalid JSON", err)
	}
	if doc.Kind() != value.Object {
		return Envelope{}, protocolError("body is "+doc.Kind().String()+", want object", nil)
	}

	var env Envelope

	rawKind, ok := doc.Get(fieldEventType)
	if !ok {
		return Envelope{}, protocolError("missing event_type", nil)
	}
	switch kind, _ := rawKind.AsString(); kind {
	case "request":
		env.Kind = KindRequest
	case "event":
		env.Kind = KindEvent
	default:
		return Envelope{}, protocolError("unknown event_type "+rawKind.String(), nil)
	}

	rawCommand, ok := doc.Get(fieldCommand)
	if !ok {
		return Envelope{}, protocolError("missing command", nil)
	}
	command, ok := rawCommand.AsString()
	if !ok {
		return Envelope{}, protocolError("command is "+rawCommand.Kind().String()+", want string", nil)
	}
	if command == "" {
		return Envelope{}, protocolError("empty command", nil)
	}
	env.Command = command

	// Missing args decode as null.
	env.Args, _ = doc.Get(fieldArgs)

	if env.Kind == KindRequest {
		rawID, ok := doc.Get(fieldRequestID)
		if !ok {
			return Envelope{}, protocolError("request without request_id", nil)
		}
		id, ok := rawID.AsString()
		if !ok || id == "" {
			return Envelope{}, protocolError("request_id must be a non-empty string", nil)
		}
		env.RequestID = id
	}

	return env, nil
}

// Encode renders an envelope back into its wire form. The page bootstrap
// produces the same shape; tests and the headless engine use it to post
// messages.
func Encode(env Envelope) ([]byte, error) {
	fields := map[string]value.Value{
		fieldEventType: value.NewString(env.Kind.String()),
		fieldCommand:   value.NewString(env.Command),
		fieldArgs:      env.Args,
	}
	if env.Kind == KindRequest {
		fields[fieldRequestID] = value.NewString(env.RequestID)
	}
	return value.NewObject(fields).MarshalJSON()
}

// EncodeEvent builds a script that dispatches event name with detail
// {data: payload} in the page.
func EncodeEvent(name string, payload value.Value) (string, error) {
	return dispatchScript(name, value.NewObject(map[string]value.Value{fieldData: payload}))
}

// EncodeResponse builds the reply script for a request. A non-nil err
// produces detail {error: err.Error()}; otherwise detail is {data: data}.
func EncodeResponse(requestID string, data value.Value, err error) (string, error) {
	if err != nil {
		return dispatchScript(requestID, value.NewObject(map[string]value.Value{
			fieldError: value.NewString(err.Error()),
		}))
	}
	return EncodeEvent(requestID, data)
}

func dispatchScript(name string, detail value.Value) (string, error) {
	quoted, err := value.API().Marshal(name)
	if err != nil {
		return "", err
	}
	body, err := detail.MarshalJSON()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(quoted) + len(body) + 64)
	b.WriteString("window.dispatchEvent(new CustomEvent(")
	b.WriteString(escapeSeparators(string(quoted)))
	b.WriteString(", {detail: ")
	b.WriteString(escapeSeparators(string(body)))
	b.WriteString("}));")
	return b.String(), nil
}

// escapeSeparators rewrites U+2028 and U+2029, which are valid in JSON
// strings but terminate lines in older script engines.
func escapeSeparators(s string) string {
	if !strings.ContainsAny(s, "\u2028\u2029") {
		return s
	}
	return separatorReplacer.Replace(s)
}

var separatorReplacer = strings.NewReplacer("\u2028", `\u2028`, "\u2029", `\u2029`)
