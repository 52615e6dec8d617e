package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/tturner/ocppfuzz/internal/metrics"
)

func TestRenderRun(t *testing.T) {
	out := RenderRun(sampleRun())

	for _, want := range []string{
		"ocppfuzz replay | ws://127.0.0.1:9000/CP_REPLAY",
		"subprotocol: ocpp1.6",
		"frames 3  sent 3  answered 2",
		"CallResult",
		"TIMEOUT",
		"CallError:NotImplemented",
		"Round trip:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CLOSED") {
		t.Errorf("empty categories should be omitted:\n%s", out)
	}
}

func TestRenderRunTruncatesLabels(t *testing.T) {
	sink := metrics.NewSink()
	for i := 0; i < maxResultLines+3; i++ {
		sink.Record(metrics.Metric{Result: fmt.Sprintf(`"raw-%02d"`, i), Category: metrics.CategoryOther})
	}
	out := RenderRun(RunReport{URI: "ws://x/CP", Summary: sink.GetSummary()})
	if !strings.Contains(out, "... 3 more") {
		t.Errorf("expected truncation marker:\n%s", out)
	}
	if !strings.Contains(out, "subprotocol: (none)") {
		t.Errorf("expected empty subprotocol placeholder:\n%s", out)
	}
}

func TestRenderRunNilSummary(t *testing.T) {
	out := RenderRun(RunReport{URI: "ws://x/CP"})
	if !strings.Contains(out, "frames 0") {
		t.Errorf("expected zero counts:\n%s", out)
	}
	if strings.Contains(out, "Round trip:") {
		t.Errorf("no RTT section expected without responses:\n%s", out)
	}
}

func TestRenderCorpus(t *testing.T) {
	out := RenderCorpus(CorpusReport{
		Dir:      "corpus_out",
		Seed:     42,
		Files:    10,
		Baseline: 2,
		ByAction: map[string]int{"Heartbeat": 6, "Reset": 4},
	})
	for _, want := range []string{"corpus_out", "rng seed: 42", "files 10  baseline 2  mutated 8", "Heartbeat", "Reset"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "Heartbeat") > strings.Index(out, "Reset") {
		t.Errorf("actions should be sorted:\n%s", out)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleRun()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected trailing newline")
	}
}
