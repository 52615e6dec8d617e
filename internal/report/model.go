package report

import "github.com/tturner/ocppfuzz/internal/metrics"

// RunReport captures one replay run.
type RunReport struct {
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"ocppfuzz_version"`
	Commit      string           `json:"ocppfuzz_commit,omitempty"`
	Date        string           `json:"ocppfuzz_date,omitempty"`
	URI         string           `json:"uri"`
	Subprotocol string           `json:"subprotocol,omitempty"`
	Inputs      string           `json:"inputs"`
	Summary     *metrics.Summary `json:"summary"`
	Results     []metrics.Metric `json:"results,omitempty"`
}

// CorpusReport captures one corpus generation run.
type CorpusReport struct {
	GeneratedAt string         `json:"generated_at"`
	Dir         string         `json:"dir"`
	Seed        int64          `json:"rng_seed"`
	Files       int            `json:"files"`
	Baseline    int            `json:"baseline"`
	ByAction    map[string]int `json:"by_action"`
}
