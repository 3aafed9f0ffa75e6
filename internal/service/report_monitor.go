package service

import (
	"sort"
	"sync"
	"time"
)

// ReportKind names a report served by InsightsService
type ReportKind string

const (
	ReportInsights ReportKind = "insights"
	ReportProfile  ReportKind = "profile"
)

// ReportMonitor tracks how reports are served: from cache or freshly computed
type ReportMonitor struct {
	mu         sync.RWMutex
	cached     []time.Duration
	computed   []time.Duration
	hits       map[ReportKind]int64
	misses     map[ReportKind]int64
	maxSamples int
}

// ReportStats is a snapshot of ReportMonitor counters
type ReportStats struct {
	CacheHits      int64                `json:"cacheHits"`
	CacheMisses    int64                `json:"cacheMisses"`
	CacheHitRate   float64              `json:"cacheHitRate"` // percent
	HitsByKind     map[ReportKind]int64 `json:"hitsByKind"`
	MissesByKind   map[ReportKind]int64 `json:"missesByKind"`
	AvgCachedMs    float64              `json:"avgCachedMs"`
	AvgComputedMs  float64              `json:"avgComputedMs"`
	P95ComputedMs  float64              `json:"p95ComputedMs"`
	SampleCapacity int                  `json:"sampleCapacity"`
}

// NewReportMonitor creates a monitor keeping the last maxSamples timings per path
func NewReportMonitor(maxSamples int) *ReportMonitor {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &ReportMonitor{
		hits:       make(map[ReportKind]int64),
		misses:     make(map[ReportKind]int64),
		maxSamples: maxSamples,
	}
}

// Record registers one served report
func (m *ReportMonitor) Record(kind ReportKind, duration time.Duration, cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached {
		m.hits[kind]++
		m.cached = appendBounded(m.cached, duration, m.maxSamples)
		return
	}
	m.misses[kind]++
	m.computed = appendBounded(m.computed, duration, m.maxSamples)
}

func appendBounded(samples []time.Duration, d time.Duration, limit int) []time.Duration {
	samples = append(samples, d)
	if len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	return samples
}

// Stats returns the current counters
func (m *ReportMonitor) Stats() ReportStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ReportStats{
		HitsByKind:     make(map[ReportKind]int64, len(m.hits)),
		MissesByKind:   make(map[ReportKind]int64, len(m.misses)),
		SampleCapacity: m.maxSamples,
	}
	for k, v := range m.hits {
		stats.HitsByKind[k] = v
		stats.CacheHits += v
	}
	for k, v := range m.misses {
		stats.MissesByKind[k] = v
		stats.CacheMisses += v
	}

	if total := stats.CacheHits + stats.CacheMisses; total > 0 {
		stats.CacheHitRate = round2(100 * float64(stats.CacheHits) / float64(total))
	}
	stats.AvgCachedMs = averageMs(m.cached)
	stats.AvgComputedMs = averageMs(m.computed)

	if len(m.computed) > 0 {
		sorted := make([]time.Duration, len(m.computed))
		copy(sorted, m.computed)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		idx := int(float64(len(sorted)) * 0.95)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		stats.P95ComputedMs = float64(sorted[idx].Microseconds()) / 1000
	}

	return stats
}

func averageMs(samples []time.Duration) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return round2(float64(total.Microseconds()) / 1000 / float64(len(samples)))
}
