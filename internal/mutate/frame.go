package mutate

import "github.com/tturner/ocppfuzz/internal/ocpp"

// SwapActions are the replacement action names used by the action swap rule.
var SwapActions = []string{
	"BootNotification",
	"Authorize",
	"StartTransaction",
	"StatusNotification",
	"MeterValues",
	"TotallyUnknownAction",
}

// CorruptHeaders are the invalid type tags used by the header corruption
// rule: a string, a negative integer and an out-of-range integer.
var CorruptHeaders = []any{"2", -1, 999}

type frameRule struct {
	Rule
	applies func(ocpp.Frame) bool
	apply   func(*Mutator, ocpp.Frame)
}

// Frame returns exactly n variants of seed. Each variant starts from a fresh
// deep copy and may independently receive an action swap, a payload
// mutation and a header corruption.
func (m *Mutator) Frame(seed ocpp.Frame, n int) []ocpp.Frame {
	if n < 0 {
		n = 0
	}
	variants := make([]ocpp.Frame, 0, n)
	for i := 0; i < n; i++ {
		variants = append(variants, m.variant(seed))
	}
	return variants
}

func (m *Mutator) variant(seed ocpp.Frame) ocpp.Frame {
	frame := ocpp.CloneFrame(seed)
	for _, rule := range m.frameRules {
		if !rule.applies(frame) {
			continue
		}
		if rule.Fires(m.rng) {
			rule.apply(m, frame)
		}
	}
	return frame
}

func hasHeader(f ocpp.Frame) bool {
	return len(f) >= 1
}

func hasAction(f ocpp.Frame) bool {
	return len(f) >= 3
}

func hasStructuredPayload(f ocpp.Frame) bool {
	if len(f) < 4 {
		return false
	}
	switch f[3].(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func (m *Mutator) swapAction(f ocpp.Frame) {
	f[2] = SwapActions[m.rng.Intn(len(SwapActions))]
}

func (m *Mutator) mutatePayload(f ocpp.Frame) {
	f[3] = m.mutate(f[3])
}

func (m *Mutator) corruptHeader(f ocpp.Frame) {
	f[0] = CorruptHeaders[m.rng.Intn(len(CorruptHeaders))]
}
