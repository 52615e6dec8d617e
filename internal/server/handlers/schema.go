package handlers

import (
	"encoding/json"
	"math"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// Kind is the JSON type a payload field must have.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Field is one entry of a payload schema.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
}

// Schema lists the fields a payload is checked against. Unknown fields are
// ignored.
type Schema []Field

// Validate returns a FormationViolation for a missing required field and a
// TypeConstraintViolation for a field of the wrong type. Fields are checked
// in schema order.
func (s Schema) Validate(payload map[string]any) *CallError {
	for _, f := range s {
		v, ok := payload[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return NewCallError(ocpp.ErrorFormationViolation, "missing required field %q", f.Name)
		}
		if !f.Kind.matches(v) {
			return NewCallError(ocpp.ErrorTypeConstraintViolation, "field %q must be %s", f.Name, f.Kind)
		}
	}
	return nil
}

func (k Kind) matches(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInteger:
		return isInteger(v)
	case KindNumber:
		switch v.(type) {
		case json.Number, float64, int, int64:
			return true
		}
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return true
		}
		f, err := n.Float64()
		return err == nil && f == math.Trunc(f) && !math.IsInf(f, 0)
	}
	return false
}
