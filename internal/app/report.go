package app

import (
	"fmt"
	"io"

	"github.com/tturner/ocppfuzz/internal/metrics"
	"github.com/tturner/ocppfuzz/internal/replay"
	"github.com/tturner/ocppfuzz/internal/report"
)

// ReportOptions are the report command inputs.
type ReportOptions struct {
	CSVFile    string
	Format     string // "text", "plain" or "json"
	ReportFile string
	Out        io.Writer
}

// RunReport summarizes a replay result CSV.
func RunReport(opts ReportOptions) error {
	out := stdoutOr(opts.Out)

	results, err := metrics.ReadResultsCSV(opts.CSVFile, replay.Category)
	if err != nil {
		return err
	}
	sink := metrics.NewSink()
	for _, m := range results {
		sink.Record(m)
	}
	rep := report.RunReport{
		GeneratedAt: report.FormatTimestamp(),
		Inputs:      opts.CSVFile,
		Summary:     sink.GetSummary(),
		Results:     results,
	}

	switch opts.Format {
	case "", "text":
		err = report.WriteText(out, rep)
	case "plain":
		_, err = fmt.Fprint(out, metrics.FormatSummary(rep.Summary))
	case "json":
		err = report.WriteJSON(out, rep)
	default:
		return fmt.Errorf("unknown report format %q (want text, plain or json)", opts.Format)
	}
	if err != nil {
		return err
	}
	if opts.ReportFile != "" {
		return report.WriteJSONFile(opts.ReportFile, rep)
	}
	return nil
}
