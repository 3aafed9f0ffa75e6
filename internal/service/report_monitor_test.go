package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportMonitor_Stats(t *testing.T) {
	m := NewReportMonitor(10)

	m.Record(ReportInsights, 2*time.Millisecond, true)
	m.Record(ReportInsights, 40*time.Millisecond, false)
	m.Record(ReportProfile, 20*time.Millisecond, false)
	m.Record(ReportProfile, 4*time.Millisecond, true)

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, 50.0, stats.CacheHitRate)
	assert.Equal(t, int64(1), stats.HitsByKind[ReportProfile])
	assert.Equal(t, 3.0, stats.AvgCachedMs)
	assert.Equal(t, 30.0, stats.AvgComputedMs)
	assert.Equal(t, 40.0, stats.P95ComputedMs)
	assert.Equal(t, 10, stats.SampleCapacity)
}

func TestReportMonitor_Empty(t *testing.T) {
	stats := NewReportMonitor(0).Stats()

	assert.Zero(t, stats.CacheHitRate)
	assert.Zero(t, stats.P95ComputedMs)
	assert.Equal(t, 1000, stats.SampleCapacity)
}

func TestReportMonitor_BoundedSamples(t *testing.T) {
	m := NewReportMonitor(3)
	for i := 1; i <= 5; i++ {
		m.Record(ReportInsights, time.Duration(i)*time.Millisecond, false)
	}

	stats := m.Stats()
	assert.Equal(t, int64(5), stats.CacheMisses)
	// only the last three samples (3, 4, 5 ms) are kept
	assert.Equal(t, 4.0, stats.AvgComputedMs)
}

func TestReportMonitor_Concurrent(t *testing.T) {
	m := NewReportMonitor(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(ReportProfile, time.Millisecond, i%2 == 0)
			_ = m.Stats()
		}(i)
	}
	wg.Wait()

	stats := m.Stats()
	assert.Equal(t, int64(50), stats.CacheHits+stats.CacheMisses)
}
