package mutate

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

func newTestMutator(seed int64, p seeds.Probabilities) *Mutator {
	return New(rand.New(rand.NewSource(seed)), p)
}

func samplePayload() map[string]any {
	return map[string]any{
		"connectorId": 1,
		"idTag":       "ABC123",
		"meterValue": []any{
			map[string]any{
				"timestamp":    "2025-08-31T00:01:00Z",
				"sampledValue": []any{map[string]any{"value": "10.0"}},
			},
		},
		"flag":  true,
		"empty": nil,
	}
}

func TestTreeDoesNotModifyInput(t *testing.T) {
	m := newTestMutator(1, seeds.DefaultProbabilities())
	for i := 0; i < 500; i++ {
		input := samplePayload()
		snapshot := ocpp.Clone(input)
		_ = m.Tree(input)
		if diff := cmp.Diff(snapshot, any(input)); diff != "" {
			t.Fatalf("iteration %d: input modified (-want +got):\n%s", i, diff)
		}
	}
}

func TestTreeNumericRange(t *testing.T) {
	m := newTestMutator(7, seeds.DefaultProbabilities())
	seen := map[any]bool{}
	for i := 0; i < 400; i++ {
		out := m.Tree(42)
		switch out {
		case -1, 0, 42, HugeValue:
			seen[out] = true
		default:
			t.Fatalf("unexpected numeric mutation %v", out)
		}
	}
	if len(seen) != 4 {
		t.Errorf("expected all four numeric outcomes, saw %v", seen)
	}

	num := json.Number("3.5")
	for i := 0; i < 100; i++ {
		out := m.Tree(num)
		if out != -1 && out != 0 && out != num && out != HugeValue {
			t.Fatalf("unexpected json.Number mutation %v", out)
		}
	}
}

func TestTreeStringOutcomes(t *testing.T) {
	m := newTestMutator(3, seeds.DefaultProbabilities())
	var kept, emptied, oversized, confused int
	for i := 0; i < 1000; i++ {
		switch v := m.Tree("abc").(type) {
		case string:
			switch {
			case v == "abc":
				kept++
			case v == "":
				emptied++
			case strings.HasPrefix(v, "abc"):
				extra := len(v) - 3
				if extra < 25 || extra > 200 || strings.Trim(v[3:], "A") != "" {
					t.Fatalf("bad oversize string: %d extra", extra)
				}
				oversized++
			default:
				t.Fatalf("unexpected string %q", v)
			}
		case int:
			if v != TypeConfusionValue {
				t.Fatalf("unexpected integer %d", v)
			}
			confused++
		default:
			t.Fatalf("unexpected type %T", v)
		}
	}
	if kept == 0 || emptied == 0 || oversized == 0 || confused == 0 {
		t.Errorf("outcomes not all reached: keep=%d empty=%d oversize=%d int=%d", kept, emptied, oversized, confused)
	}
}

func TestTreeLeavesOtherScalars(t *testing.T) {
	m := newTestMutator(5, seeds.DefaultProbabilities())
	for i := 0; i < 50; i++ {
		if got := m.Tree(true); got != true {
			t.Fatalf("bool mutated to %v", got)
		}
		if got := m.Tree(nil); got != nil {
			t.Fatalf("nil mutated to %v", got)
		}
	}
}

func TestTreeSequenceLengthNonDecreasing(t *testing.T) {
	m := newTestMutator(11, seeds.DefaultProbabilities())
	appended := false
	for i := 0; i < 300; i++ {
		in := []any{"a", 1, map[string]any{"k": "v"}, []any{}}
		out, ok := m.Tree(in).([]any)
		if !ok {
			t.Fatalf("sequence became %T", out)
		}
		if len(out) < len(in) {
			t.Fatalf("sequence shrank from %d to %d", len(in), len(out))
		}
		if len(out) == len(in)+1 {
			if out[len(out)-1] != nil {
				t.Fatalf("appended element should be nil, got %v", out[len(out)-1])
			}
			appended = true
		}
	}
	if !appended {
		t.Error("list append rule never fired")
	}
}

func TestTreeMappingKeepsKeysWithoutDeletion(t *testing.T) {
	p := seeds.DefaultProbabilities()
	p.DictDelete = 0
	m := newTestMutator(13, p)
	for i := 0; i < 300; i++ {
		out, ok := m.Tree(samplePayload()).(map[string]any)
		if !ok {
			t.Fatalf("mapping became %T", out)
		}
		for key := range samplePayload() {
			if _, ok := out[key]; !ok {
				t.Fatalf("key %q removed although deletion is disabled", key)
			}
		}
		for key := range out {
			if _, ok := samplePayload()[key]; !ok && key != JunkKey {
				t.Fatalf("unexpected key %q", key)
			}
		}
	}
}

func TestTreeMappingDeletesAtMostOneKey(t *testing.T) {
	p := seeds.DefaultProbabilities()
	p.DictMutate = 1
	p.DictDelete = 1
	p.DictJunk = 0
	m := newTestMutator(17, p)
	out := m.Tree(map[string]any{"a": 1, "b": 2, "c": 3}).(map[string]any)
	if len(out) != 2 {
		t.Fatalf("expected exactly one key deleted, got %v", out)
	}
}

func TestTreeJunkKey(t *testing.T) {
	p := seeds.DefaultProbabilities()
	p.DictMutate = 0
	p.DictJunk = 1
	m := newTestMutator(19, p)
	for i := 0; i < 100; i++ {
		out := m.Tree(map[string]any{}).(map[string]any)
		junk, ok := out[JunkKey].(string)
		if !ok {
			t.Fatalf("junk key missing or not a string: %v", out)
		}
		if len(junk) < 1 || len(junk) > 50 {
			t.Fatalf("junk length %d out of range", len(junk))
		}
		for _, r := range junk {
			if !strings.ContainsRune(alphanumeric, r) {
				t.Fatalf("junk has non-alphanumeric rune %q", r)
			}
		}
	}
}

func TestTreeEmptyContainers(t *testing.T) {
	p := seeds.DefaultProbabilities()
	p.DictJunk = 0
	p.ListAppend = 0
	m := newTestMutator(23, p)
	if diff := cmp.Diff(map[string]any{}, m.Tree(map[string]any{})); diff != "" {
		t.Errorf("empty mapping changed: %s", diff)
	}
	if diff := cmp.Diff([]any{}, m.Tree([]any{})); diff != "" {
		t.Errorf("empty sequence changed: %s", diff)
	}
}

func TestTreeDeterministic(t *testing.T) {
	a := newTestMutator(42, seeds.DefaultProbabilities())
	b := newTestMutator(42, seeds.DefaultProbabilities())
	for i := 0; i < 100; i++ {
		if diff := cmp.Diff(a.Tree(samplePayload()), b.Tree(samplePayload())); diff != "" {
			t.Fatalf("iteration %d differs:\n%s", i, diff)
		}
	}
}

func TestRuleFires(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if !(Rule{Probability: 1}).Fires(rng) {
		t.Error("probability 1 should always fire")
	}
	if (Rule{Probability: 0}).Fires(rng) {
		t.Error("probability 0 should never fire")
	}

	// Certain rules consume no entropy.
	a := rand.New(rand.NewSource(9))
	b := rand.New(rand.NewSource(9))
	(Rule{Probability: 1}).Fires(a)
	(Rule{Probability: 0}).Fires(a)
	if a.Int63() != b.Int63() {
		t.Error("certain rules should not consume randomness")
	}
}
