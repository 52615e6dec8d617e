package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadResultsCSV reads a replay results CSV written by Writer. Each row
// becomes a Metric with Input and Result set; categorize, when non-nil,
// fills Category from the result label.
func ReadResultsCSV(path string, categorize func(string) string) ([]Metric, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[col] = i
	}
	for _, col := range CSVHeader {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("CSV missing required column: %s", col)
		}
	}

	var metrics []Metric
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", row, err)
		}

		m := Metric{
			Input:  record[colIndex["input"]],
			Result: record[colIndex["result"]],
		}
		if categorize != nil {
			m.Category = categorize(m.Result)
		}
		metrics = append(metrics, m)
	}

	return metrics, nil
}
