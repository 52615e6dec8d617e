package seeds

import "fmt"

// Probabilities holds the mutation rule probabilities.
//
// DictMutate and DictDelete form a compound rule on mapping nodes: a key is
// touched with probability DictMutate and a touched key is deleted (rather
// than mutated) with probability DictDelete.
type Probabilities struct {
	DictMutate    float64 `yaml:"dict_mutate"`
	DictDelete    float64 `yaml:"dict_delete"`
	DictJunk      float64 `yaml:"dict_junk"`
	ListAppend    float64 `yaml:"list_append"`
	ActionSwap    float64 `yaml:"action_swap"`
	HeaderCorrupt float64 `yaml:"header_corrupt"`
	PayloadMutate float64 `yaml:"payload_mutate"`
}

// Default rule probabilities.
const (
	DictMutateProb    = 0.5
	DictDeleteProb    = 0.5
	DictJunkProb      = 0.3
	ListAppendProb    = 0.2
	ActionSwapProb    = 0.2
	HeaderCorruptProb = 0.1
	PayloadMutateProb = 1.0
)

// BaselineSaveProb is the chance that a picked seed is persisted unmodified
// when baseline mode is enabled.
const BaselineSaveProb = 0.2

// DefaultProbabilities returns the default rule probabilities.
func DefaultProbabilities() Probabilities {
	return Probabilities{
		DictMutate:    DictMutateProb,
		DictDelete:    DictDeleteProb,
		DictJunk:      DictJunkProb,
		ListAppend:    ListAppendProb,
		ActionSwap:    ActionSwapProb,
		HeaderCorrupt: HeaderCorruptProb,
		PayloadMutate: PayloadMutateProb,
	}
}

// Validate checks that every probability lies in [0, 1].
func (p Probabilities) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"dict_mutate", p.DictMutate},
		{"dict_delete", p.DictDelete},
		{"dict_junk", p.DictJunk},
		{"list_append", p.ListAppend},
		{"action_swap", p.ActionSwap},
		{"header_corrupt", p.HeaderCorrupt},
		{"payload_mutate", p.PayloadMutate},
	}
	for _, f := range fields {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", f.name, f.value)
		}
	}
	return nil
}
