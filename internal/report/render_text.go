package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tturner/ocppfuzz/internal/metrics"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	frameStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	categoryColors = map[string]lipgloss.Color{
		metrics.CategoryCallResult: lipgloss.Color("10"),
		metrics.CategoryCallError:  lipgloss.Color("11"),
		metrics.CategoryTimeout:    lipgloss.Color("13"),
		metrics.CategoryClosed:     lipgloss.Color("9"),
		metrics.CategoryException:  lipgloss.Color("9"),
		metrics.CategoryOther:      lipgloss.Color("14"),
	}
)

// maxResultLines bounds the per-label section of the text report.
const maxResultLines = 15

// RenderRun renders a boxed summary of a replay run.
func RenderRun(r RunReport) string {
	s := r.Summary
	if s == nil {
		s = metrics.NewSink().GetSummary()
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf("ocppfuzz replay | %s", r.URI)),
		metaStyle.Render(fmt.Sprintf("inputs: %s  subprotocol: %s", r.Inputs, valueOr(r.Subprotocol, "(none)"))),
		"",
		sectionStyle.Render("Results:"),
		fmt.Sprintf("  frames %d  sent %d  answered %d", s.TotalFrames, s.SentFrames, s.Responses),
	}
	for _, cat := range metrics.Categories {
		n := s.ByCategory[cat]
		if n == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(categoryColors[cat])
		lines = append(lines, fmt.Sprintf("  %s %d", style.Render(fmt.Sprintf("%-10s", cat)), n))
	}

	if s.Responses > 0 {
		lines = append(lines, "", sectionStyle.Render("Round trip:"))
		lines = append(lines, fmt.Sprintf("  min %.1fms  avg %.1fms  p95 %.1fms  max %.1fms", s.MinRTT, s.AvgRTT, s.P95RTT, s.MaxRTT))
	}

	if len(s.ByResult) > 0 {
		lines = append(lines, "", sectionStyle.Render("Labels:"))
		keys := metrics.SortedKeys(s.ByResult)
		for i, label := range keys {
			if i == maxResultLines {
				lines = append(lines, metaStyle.Render(fmt.Sprintf("  ... %d more", len(keys)-maxResultLines)))
				break
			}
			lines = append(lines, fmt.Sprintf("  %5d  %s", s.ByResult[label], label))
		}
	}

	return frameStyle.Render(strings.Join(lines, "\n"))
}

// RenderCorpus renders a boxed summary of a generated corpus.
func RenderCorpus(r CorpusReport) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("ocppfuzz corpus | %s", r.Dir)),
		metaStyle.Render(fmt.Sprintf("rng seed: %d", r.Seed)),
		"",
		fmt.Sprintf("  files %d  baseline %d  mutated %d", r.Files, r.Baseline, r.Files-r.Baseline),
	}
	if len(r.ByAction) > 0 {
		lines = append(lines, "", sectionStyle.Render("Actions:"))
		actions := make([]string, 0, len(r.ByAction))
		for a := range r.ByAction {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		for _, a := range actions {
			lines = append(lines, fmt.Sprintf("  %5d  %s", r.ByAction[a], a))
		}
	}
	return frameStyle.Render(strings.Join(lines, "\n"))
}

// WriteText writes the rendered run report followed by a newline.
func WriteText(w io.Writer, r RunReport) error {
	_, err := fmt.Fprintln(w, RenderRun(r))
	return err
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
