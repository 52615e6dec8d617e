package metrics

// Replay result output (CSV/JSON) and summary formatting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CSVHeader is the header row of the replay results CSV.
var CSVHeader = []string{"input", "result"}

// Writer handles writing metrics to files
type Writer struct {
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File
	jsonCount int
}

// NewWriter creates a new metrics writer. Either path may be empty.
func NewWriter(csvPath, jsonPath string) (*Writer, error) {
	w := &Writer{}

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create CSV file: %w", err)
		}
		w.csvFile = file
		w.csvWriter = csv.NewWriter(file)

		if err := w.csvWriter.Write(CSVHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.csvWriter.Flush()
	}

	if jsonPath != "" {
		file, err := os.Create(jsonPath)
		if err != nil {
			if w.csvFile != nil {
				w.csvFile.Close()
			}
			return nil, fmt.Errorf("create JSON file: %w", err)
		}
		w.jsonFile = file

		if _, err := file.WriteString("[\n"); err != nil {
			file.Close()
			if w.csvFile != nil {
				w.csvFile.Close()
			}
			return nil, fmt.Errorf("write JSON start: %w", err)
		}
	}

	return w, nil
}

// WriteMetric writes a single metric
func (w *Writer) WriteMetric(m Metric) error {
	if w.csvWriter != nil {
		if err := w.csvWriter.Write([]string{m.Input, m.Result}); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
		w.csvWriter.Flush()
		if err := w.csvWriter.Error(); err != nil {
			return fmt.Errorf("flush CSV record: %w", err)
		}
	}

	if w.jsonFile != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}

		if w.jsonCount > 0 {
			if _, err := w.jsonFile.WriteString(",\n"); err != nil {
				return fmt.Errorf("write JSON comma: %w", err)
			}
		}
		if _, err := w.jsonFile.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		w.jsonCount++
	}

	return nil
}

// Close closes the writer and flushes all data
func (w *Writer) Close() error {
	var errs []error

	if w.csvWriter != nil {
		w.csvWriter.Flush()
	}
	if w.csvFile != nil {
		if err := w.csvFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if w.jsonFile != nil {
		if _, err := w.jsonFile.WriteString("\n]\n"); err != nil {
			errs = append(errs, err)
		}
		if err := w.jsonFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close writer: %v", errs)
	}

	return nil
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total Frames: %d\n", summary.TotalFrames)
	if summary.TotalFrames == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "Sent: %d\n", summary.SentFrames)
	for _, cat := range Categories {
		n := summary.ByCategory[cat]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", cat, n, float64(n)/float64(summary.TotalFrames)*100)
	}

	if summary.Responses > 0 {
		b.WriteString("\nRTT Statistics (answered frames):\n")
		fmt.Fprintf(&b, "  Min: %.3f ms\n", summary.MinRTT)
		fmt.Fprintf(&b, "  Max: %.3f ms\n", summary.MaxRTT)
		fmt.Fprintf(&b, "  Avg: %.3f ms\n", summary.AvgRTT)
		if summary.P50RTT > 0 || summary.P90RTT > 0 || summary.P95RTT > 0 || summary.P99RTT > 0 {
			fmt.Fprintf(&b, "  P50: %.3f ms\n", summary.P50RTT)
			fmt.Fprintf(&b, "  P90: %.3f ms\n", summary.P90RTT)
			fmt.Fprintf(&b, "  P95: %.3f ms\n", summary.P95RTT)
			fmt.Fprintf(&b, "  P99: %.3f ms\n", summary.P99RTT)
		}
		if len(summary.RTTBuckets) > 0 {
			fmt.Fprintf(&b, "  Buckets: <1ms=%d 1-5ms=%d 5-10ms=%d 10-50ms=%d 50-100ms=%d 100-500ms=%d >500ms=%d\n",
				summary.RTTBuckets["lt_1ms"],
				summary.RTTBuckets["1_5ms"],
				summary.RTTBuckets["5_10ms"],
				summary.RTTBuckets["10_50ms"],
				summary.RTTBuckets["50_100ms"],
				summary.RTTBuckets["100_500ms"],
				summary.RTTBuckets["gt_500ms"],
			)
		}
	}

	if len(summary.ByResult) > 0 {
		b.WriteString("\nResults:\n")
		for _, label := range SortedKeys(summary.ByResult) {
			fmt.Fprintf(&b, "  %s: %d\n", label, summary.ByResult[label])
		}
	}

	if len(summary.ByAction) > 0 {
		b.WriteString("\nPer-Action Statistics:\n")
		actions := make([]string, 0, len(summary.ByAction))
		for action := range summary.ByAction {
			actions = append(actions, action)
		}
		sort.Strings(actions)
		for _, action := range actions {
			stats := summary.ByAction[action]
			fmt.Fprintf(&b, "  %s: %d frames", action, stats.Count)
			for _, cat := range Categories {
				if n := stats.ByCategory[cat]; n > 0 {
					fmt.Fprintf(&b, " %s=%d", cat, n)
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// SortedKeys returns the keys of a count map, highest count first.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
