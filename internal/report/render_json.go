package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
)

// WriteJSONFile marshals a report structure to JSON and replaces path with it.
func WriteJSONFile(path string, report any) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteJSON writes a report as JSON to an io.Writer.
func WriteJSON(w io.Writer, report any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
