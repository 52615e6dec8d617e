package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tturner/ocppfuzz/internal/metrics"
)

func sampleRun() RunReport {
	sink := metrics.NewSink()
	sink.Record(metrics.Metric{Input: "a.json", Action: "Heartbeat", Result: "CallResult", Category: metrics.CategoryCallResult, Sent: true, RTTMs: 4})
	sink.Record(metrics.Metric{Input: "b.json", Action: "Reset", Result: "CallError:NotImplemented", Category: metrics.CategoryCallError, Sent: true, RTTMs: 6})
	sink.Record(metrics.Metric{Input: "c.json", Action: "Reset", Result: "TIMEOUT", Category: metrics.CategoryTimeout, Sent: true})
	return RunReport{
		GeneratedAt: "2025-08-31T00:00:00Z",
		Version:     "dev",
		URI:         "ws://127.0.0.1:9000/CP_REPLAY",
		Subprotocol: "ocpp1.6",
		Inputs:      "corpus_out",
		Summary:     sink.GetSummary(),
		Results:     sink.GetMetrics(),
	}
}

func TestWriteJSON(t *testing.T) {
	report := sampleRun()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.URI != report.URI {
		t.Errorf("URI mismatch: got %q, want %q", decoded.URI, report.URI)
	}
	if decoded.Summary == nil || decoded.Summary.TotalFrames != 3 {
		t.Fatalf("summary not preserved: %+v", decoded.Summary)
	}
	if decoded.Summary.ByCategory[metrics.CategoryTimeout] != 1 {
		t.Errorf("category counts not preserved: %v", decoded.Summary.ByCategory)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(decoded.Results))
	}
}

func TestWriteJSONFile(t *testing.T) {
	report := sampleRun()
	path := filepath.Join(t.TempDir(), "test_report.json")

	if err := WriteJSONFile(path, report); err != nil {
		t.Fatalf("WriteJSONFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	var decoded RunReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Output file is not valid JSON: %v", err)
	}
	if decoded.GeneratedAt != report.GeneratedAt {
		t.Errorf("GeneratedAt mismatch: got %q, want %q", decoded.GeneratedAt, report.GeneratedAt)
	}

	// a second write replaces the file
	report.URI = "ws://other/CP"
	if err := WriteJSONFile(path, report); err != nil {
		t.Fatalf("WriteJSONFile rewrite failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !bytes.Contains(data, []byte("ws://other/CP")) {
		t.Errorf("expected rewritten report, got %s", data)
	}
}

func TestWriteJSONIndentationAndEscaping(t *testing.T) {
	report := struct {
		Name string `json:"name"`
	}{Name: "<CP&1>"}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"name\"")) {
		t.Errorf("expected two space indent, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("<CP&1>")) {
		t.Errorf("expected unescaped HTML characters, got %q", buf.String())
	}
}

func TestWriteJSONFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.json")
	if err := WriteJSONFile(path, sampleRun()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
