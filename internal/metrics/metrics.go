package metrics

// Metrics collection for replayed frames

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Result categories.
const (
	CategoryCallResult = "CallResult"
	CategoryCallError  = "CallError"
	CategoryTimeout    = "TIMEOUT"
	CategoryClosed     = "CLOSED"
	CategoryException  = "EXC"
	CategoryOther      = "OTHER"
)

// Categories lists the result categories in report order.
var Categories = []string{
	CategoryCallResult,
	CategoryCallError,
	CategoryTimeout,
	CategoryClosed,
	CategoryException,
	CategoryOther,
}

// Metric records one replayed input
type Metric struct {
	Timestamp time.Time `json:"timestamp"`
	Input     string    `json:"input"`
	Action    string    `json:"action,omitempty"`
	UID       string    `json:"uid,omitempty"`
	Result    string    `json:"result"`
	Category  string    `json:"category"`
	Sent      bool      `json:"sent"`
	RTTMs     float64   `json:"rtt_ms,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Responded reports whether the peer answered the frame.
func (m Metric) Responded() bool {
	switch m.Category {
	case CategoryCallResult, CategoryCallError, CategoryOther:
		return true
	}
	return false
}

// Sink collects and aggregates metrics
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
	summary *Summary
}

func newSummary() *Summary {
	return &Summary{
		ByCategory: make(map[string]int),
		ByResult:   make(map[string]int),
		ByAction:   make(map[string]*ActionStats),
		RTTBuckets: make(map[string]int),
	}
}

// Summary contains aggregated statistics
type Summary struct {
	TotalFrames int                     `json:"total_frames"`
	SentFrames  int                     `json:"sent_frames"`
	Responses   int                     `json:"responses"`
	MinRTT      float64                 `json:"min_rtt_ms"`
	MaxRTT      float64                 `json:"max_rtt_ms"`
	AvgRTT      float64                 `json:"avg_rtt_ms"`
	P50RTT      float64                 `json:"p50_rtt_ms"`
	P90RTT      float64                 `json:"p90_rtt_ms"`
	P95RTT      float64                 `json:"p95_rtt_ms"`
	P99RTT      float64                 `json:"p99_rtt_ms"`
	ByCategory  map[string]int          `json:"by_category"`
	ByResult    map[string]int          `json:"by_result"`
	ByAction    map[string]*ActionStats `json:"by_action"`
	RTTBuckets  map[string]int          `json:"rtt_buckets,omitempty"`
}

// ActionStats contains statistics for one action name
type ActionStats struct {
	Count      int            `json:"count"`
	ByCategory map[string]int `json:"by_category"`
}

// NewSink creates a new metrics sink
func NewSink() *Sink {
	return &Sink{
		metrics: make([]Metric, 0),
		summary: newSummary(),
	}
}

// Record records a new metric
func (s *Sink) Record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = append(s.metrics, m)
	s.updateSummary(m)
}

// GetMetrics returns a copy of all recorded metrics
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// GetSummary returns the aggregated summary
func (s *Sink) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &Summary{
		TotalFrames: s.summary.TotalFrames,
		SentFrames:  s.summary.SentFrames,
		Responses:   s.summary.Responses,
		MinRTT:      s.summary.MinRTT,
		MaxRTT:      s.summary.MaxRTT,
		AvgRTT:      s.summary.AvgRTT,
		ByCategory:  make(map[string]int, len(s.summary.ByCategory)),
		ByResult:    make(map[string]int, len(s.summary.ByResult)),
		ByAction:    make(map[string]*ActionStats, len(s.summary.ByAction)),
		RTTBuckets:  make(map[string]int),
	}
	for k, v := range s.summary.ByCategory {
		summary.ByCategory[k] = v
	}
	for k, v := range s.summary.ByResult {
		summary.ByResult[k] = v
	}
	for action, stats := range s.summary.ByAction {
		cp := &ActionStats{Count: stats.Count, ByCategory: make(map[string]int, len(stats.ByCategory))}
		for k, v := range stats.ByCategory {
			cp.ByCategory[k] = v
		}
		summary.ByAction[action] = cp
	}

	rttPercentiles, rttBuckets := summarizeDistribution(s.metrics)
	summary.P50RTT = rttPercentiles[0]
	summary.P90RTT = rttPercentiles[1]
	summary.P95RTT = rttPercentiles[2]
	summary.P99RTT = rttPercentiles[3]
	for k, v := range rttBuckets {
		summary.RTTBuckets[k] = v
	}

	return summary
}

// updateSummary updates the summary statistics with a new metric
func (s *Sink) updateSummary(m Metric) {
	s.summary.TotalFrames++
	if m.Sent {
		s.summary.SentFrames++
	}
	s.summary.ByCategory[m.Category]++
	s.summary.ByResult[m.Result]++

	action := m.Action
	if action == "" {
		action = "-"
	}
	stats, ok := s.summary.ByAction[action]
	if !ok {
		stats = &ActionStats{ByCategory: make(map[string]int)}
		s.summary.ByAction[action] = stats
	}
	stats.Count++
	stats.ByCategory[m.Category]++

	// RTT statistics cover answered frames only
	if !m.Responded() || m.RTTMs <= 0 {
		return
	}
	s.summary.Responses++
	if s.summary.MinRTT == 0 || m.RTTMs < s.summary.MinRTT {
		s.summary.MinRTT = m.RTTMs
	}
	if m.RTTMs > s.summary.MaxRTT {
		s.summary.MaxRTT = m.RTTMs
	}
	totalRTT := s.summary.AvgRTT * float64(s.summary.Responses-1)
	totalRTT += m.RTTMs
	s.summary.AvgRTT = totalRTT / float64(s.summary.Responses)
}

func summarizeDistribution(metrics []Metric) ([4]float64, map[string]int) {
	rtts := make([]float64, 0, len(metrics))
	buckets := make(map[string]int)

	for _, m := range metrics {
		if m.Responded() && m.RTTMs > 0 {
			rtts = append(rtts, m.RTTMs)
			incrementBucket(buckets, m.RTTMs)
		}
	}

	return computePercentiles(rtts), buckets
}

func incrementBucket(buckets map[string]int, value float64) {
	switch {
	case value < 1:
		buckets["lt_1ms"]++
	case value < 5:
		buckets["1_5ms"]++
	case value < 10:
		buckets["5_10ms"]++
	case value < 50:
		buckets["10_50ms"]++
	case value < 100:
		buckets["50_100ms"]++
	case value < 500:
		buckets["100_500ms"]++
	default:
		buckets["gt_500ms"]++
	}
}

func computePercentiles(values []float64) [4]float64 {
	var result [4]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.95)
	result[3] = percentile(values, 0.99)
	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
