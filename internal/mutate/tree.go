package mutate

// Structural mutation of message trees

import (
	"encoding/json"
	"math/rand"
	"sort"
	"strings"

	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

const (
	// JunkKey is the name of the field injected into mapping nodes.
	JunkKey = "__junk__"
	// TypeConfusionValue replaces a string node with an integer.
	TypeConfusionValue = 12345
	// HugeValue is the large-magnitude numeric boundary.
	HugeValue = 1000000000

	fillerChar    = "A"
	fillerMin     = 25
	fillerMax     = 200
	junkMinLength = 1
	junkMaxLength = 50
	alphanumeric  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Mutator applies randomized structural corruption to message trees and
// frames. It is not safe for concurrent use: all draws come from one stream.
type Mutator struct {
	rng *rand.Rand

	dictTouch  Rule
	dictDelete Rule
	dictJunk   Rule
	listAppend Rule
	frameRules []frameRule
}

// New returns a Mutator drawing from rng with the given rule probabilities.
func New(rng *rand.Rand, p seeds.Probabilities) *Mutator {
	m := &Mutator{
		rng:        rng,
		dictTouch:  Rule{Name: "dict_mutate", Probability: p.DictMutate},
		dictDelete: Rule{Name: "dict_delete", Probability: p.DictDelete},
		dictJunk:   Rule{Name: "dict_junk", Probability: p.DictJunk},
		listAppend: Rule{Name: "list_append", Probability: p.ListAppend},
	}
	m.frameRules = []frameRule{
		{Rule: Rule{Name: "action_swap", Probability: p.ActionSwap}, applies: hasAction, apply: (*Mutator).swapAction},
		{Rule: Rule{Name: "payload_mutate", Probability: p.PayloadMutate}, applies: hasStructuredPayload, apply: (*Mutator).mutatePayload},
		{Rule: Rule{Name: "header_corrupt", Probability: p.HeaderCorrupt}, applies: hasHeader, apply: (*Mutator).corruptHeader},
	}
	return m
}

// Tree returns a mutated deep copy of tree. The argument is never modified.
func (m *Mutator) Tree(tree any) any {
	return m.mutate(ocpp.Clone(tree))
}

// mutate works in place on an already copied tree, top-down in one pass.
func (m *Mutator) mutate(node any) any {
	switch v := node.(type) {
	case map[string]any:
		return m.mutateMap(v)
	case []any:
		return m.mutateList(v)
	case string:
		return m.mutateString(v)
	case int, int64, float64, json.Number:
		return m.mutateNumber(v)
	}
	return node
}

func (m *Mutator) mutateMap(v map[string]any) any {
	if len(v) > 0 && m.dictTouch.Fires(m.rng) {
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		key := keys[m.rng.Intn(len(keys))]
		if m.dictDelete.Fires(m.rng) {
			delete(v, key)
		} else {
			v[key] = m.mutate(v[key])
		}
	}

	if m.dictJunk.Fires(m.rng) {
		v[JunkKey] = m.randomAlphanumeric(junkMinLength + m.rng.Intn(junkMaxLength-junkMinLength+1))
	}
	return v
}

func (m *Mutator) mutateList(v []any) any {
	for i := range v {
		v[i] = m.mutate(v[i])
	}
	if m.listAppend.Fires(m.rng) {
		v = append(v, nil)
	}
	return v
}

func (m *Mutator) mutateString(s string) any {
	switch m.rng.Intn(4) {
	case 1:
		return ""
	case 2:
		return s + strings.Repeat(fillerChar, fillerMin+m.rng.Intn(fillerMax-fillerMin+1))
	case 3:
		return TypeConfusionValue
	}
	return s
}

func (m *Mutator) mutateNumber(n any) any {
	choices := [...]any{-1, 0, n, HugeValue}
	return choices[m.rng.Intn(len(choices))]
}

func (m *Mutator) randomAlphanumeric(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[m.rng.Intn(len(alphanumeric))]
	}
	return string(b)
}
