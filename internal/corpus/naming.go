package corpus

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// EntryKind distinguishes unmodified seeds from mutated variants.
type EntryKind string

const (
	KindBaseline EntryKind = "baseline"
	KindFuzz     EntryKind = "fuzz"
)

// UnknownAction names entries whose seed has no usable action.
const UnknownAction = "Unknown"

// Entry is one persisted corpus frame.
type Entry struct {
	Index  int
	Action string
	Kind   EntryKind
	Frame  ocpp.Frame
}

// Name returns the file name of the entry, e.g. "0007_Heartbeat_fuzz.json".
func (e Entry) Name() string {
	return fmt.Sprintf("%04d_%s_%s.json", e.Index, e.Action, e.Kind)
}

// SeedAction returns the normalized action name of a seed frame.
func SeedAction(seed ocpp.Frame) string {
	if len(seed) < 3 || falsy(seed[2]) {
		return UnknownAction
	}
	var raw string
	switch v := seed[2].(type) {
	case string:
		raw = v
	default:
		raw = fmt.Sprint(v)
	}
	return NormalizeAction(raw)
}

// falsy reports whether an action value counts as absent: nil, false, zero,
// or an empty string, array or object.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case ocpp.Frame:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// NormalizeAction makes an action name safe for file names: letters, digits,
// '-' and '_' are kept and every other character becomes '_'.
func NormalizeAction(action string) string {
	if action == "" {
		action = UnknownAction
	}
	var b strings.Builder
	for _, r := range action {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
