package ocpp

// OCPP-J message envelope helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Message type ids of the OCPP-J envelope.
const (
	MessageTypeCall       = 2
	MessageTypeCallResult = 3
	MessageTypeCallError  = 4
)

// UIDPlaceholder marks a correlation id that is substituted at replay time.
const UIDPlaceholder = "$UID$"

// MinFrameFields is the minimum length of a well-formed frame: [type, id, action].
const MinFrameFields = 3

// Subprotocol16 is the WebSocket subprotocol for OCPP 1.6-J.
const Subprotocol16 = "ocpp1.6"

// CALLERROR codes defined by OCPP 1.6-J.
const (
	ErrorNotImplemented               = "NotImplemented"
	ErrorNotSupported                 = "NotSupported"
	ErrorInternalError                = "InternalError"
	ErrorProtocolError                = "ProtocolError"
	ErrorSecurityError                = "SecurityError"
	ErrorFormationViolation           = "FormationViolation"
	ErrorPropertyConstraintViolation  = "PropertyConstraintViolation"
	ErrorOccurenceConstraintViolation = "OccurenceConstraintViolation"
	ErrorTypeConstraintViolation      = "TypeConstraintViolation"
	ErrorGenericError                 = "GenericError"
)

// Frame is an OCPP-J envelope: [type_tag, correlation_id, action, payload].
// Elements are message tree values as produced by Unmarshal.
type Frame []any

// AsFrame returns v as a Frame when it is a JSON array.
func AsFrame(v any) (Frame, bool) {
	switch t := v.(type) {
	case Frame:
		return t, true
	case []any:
		return Frame(t), true
	}
	return nil, false
}

// Valid reports whether the frame has at least type, id and action.
func (f Frame) Valid() bool {
	return len(f) >= MinFrameFields
}

// MessageType returns the integer type tag, if element 0 is an integral number.
func (f Frame) MessageType() (int, bool) {
	if len(f) == 0 {
		return 0, false
	}
	return MessageTypeOf(f[0])
}

// UniqueID returns element 1, or nil for frames that are too short.
func (f Frame) UniqueID() any {
	if len(f) < 2 {
		return nil
	}
	return f[1]
}

// Action returns element 2 when it is a string.
func (f Frame) Action() (string, bool) {
	if len(f) < 3 {
		return "", false
	}
	s, ok := f[2].(string)
	return s, ok
}

// Payload returns element 3.
func (f Frame) Payload() (any, bool) {
	if len(f) < 4 {
		return nil, false
	}
	return f[3], true
}

// MessageTypeOf converts a decoded type tag to an int. Strings and
// non-integral numbers are not type tags.
func MessageTypeOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}

// Clone returns a deep copy of a message tree. Scalars are immutable and
// returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case Frame:
		return Frame(Clone([]any(t)).([]any))
	default:
		return v
	}
}

// CloneFrame returns a deep copy of f.
func CloneFrame(f Frame) Frame {
	return Clone(f).(Frame)
}

// Unmarshal decodes one JSON document. Numbers are kept as json.Number so
// integers round-trip unchanged.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// Marshal encodes v compactly without escaping HTML or non-ASCII characters.
func Marshal(v any) ([]byte, error) {
	return encode(v, "")
}

// MarshalIndent encodes v with a two space indent.
func MarshalIndent(v any) ([]byte, error) {
	return encode(v, "  ")
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
