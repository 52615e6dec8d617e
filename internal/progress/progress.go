package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	barWidth       = 40
	renderInterval = 100 * time.Millisecond
	maxLabelWidth  = 32
)

// Bar is a throttled single-line progress indicator for a known number of
// units (corpus files, replayed frames).
type Bar struct {
	mu          sync.Mutex
	total       int64
	current     int64
	unit        string
	label       string
	startTime   time.Time
	lastUpdate  time.Time
	output      io.Writer
	enabled     bool
	description string
}

// NewBar creates a progress bar writing to w. A nil w disables it.
func NewBar(w io.Writer, total int64, unit, description string) *Bar {
	now := time.Now()
	return &Bar{
		total:       total,
		unit:        unit,
		startTime:   now,
		lastUpdate:  now,
		output:      w,
		enabled:     w != nil,
		description: description,
	}
}

// Step advances the bar by one unit and records label as the latest outcome.
func (p *Bar) Step(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.label = label
	p.render(false)
}

// Current returns the units completed so far.
func (p *Bar) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Bar) render(force bool) {
	if !p.enabled {
		return
	}

	now := time.Now()
	if !force && now.Sub(p.lastUpdate) < renderInterval && p.current < p.total {
		return
	}
	p.lastUpdate = now

	var percent float64
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total) * 100
	}
	elapsed := time.Since(p.startTime)

	var eta time.Duration
	if p.current > 0 && p.total > 0 && elapsed > 0 {
		rate := float64(p.current) / elapsed.Seconds()
		if rate > 0 {
			eta = time.Duration(float64(p.total-p.current)/rate) * time.Second
		}
	}

	filled := int(float64(barWidth) * percent / 100)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat("-", barWidth-filled-1)
	}

	var b strings.Builder
	b.WriteString("\r")
	if p.description != "" {
		b.WriteString(p.description + " ")
	}
	fmt.Fprintf(&b, "[%s] %d/%d %s (%.1f%%) | Elapsed: %s", bar, p.current, p.total, p.unit, percent, formatDuration(elapsed))
	if eta > 0 && p.current < p.total {
		fmt.Fprintf(&b, " | ETA: %s", formatDuration(eta))
	}
	if p.label != "" {
		fmt.Fprintf(&b, " | %s", truncate(p.label, maxLabelWidth))
	}
	fmt.Fprint(p.output, b.String())
}

// Finish renders the final state and ends the line.
func (p *Bar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.render(true)
	fmt.Fprint(p.output, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// Counter reports an open-ended count, e.g. frames handled by a server.
type Counter struct {
	mu          sync.Mutex
	output      io.Writer
	enabled     bool
	description string
	unit        string
	lastUpdate  time.Time
	interval    time.Duration
}

// NewCounter creates a counter that prints at most once per interval.
func NewCounter(w io.Writer, description, unit string, interval time.Duration) *Counter {
	return &Counter{
		output:      w,
		enabled:     w != nil,
		description: description,
		unit:        unit,
		lastUpdate:  time.Now(),
		interval:    interval,
	}
}

// Update updates the progress with a count
func (s *Counter) Update(count int64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}

	now := time.Now()
	if now.Sub(s.lastUpdate) < s.interval {
		return
	}
	s.lastUpdate = now

	output := fmt.Sprintf("%d %s", count, s.unit)
	if s.description != "" {
		output = s.description + ": " + output
	}
	if message != "" {
		output += " | " + message
	}
	fmt.Fprintln(s.output, output)
}
