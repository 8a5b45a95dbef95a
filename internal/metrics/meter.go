// Package metrics records per-block measurements of a shaping or policing
// run in a thread-safe manner.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/stampede/ticks"
)

// Meter accumulates per-block observations: how many events each block
// carried, how long the shaper stalled before emitting it, and whether the
// contract admitted it.
type Meter struct {
	mu         sync.Mutex
	delays     *hdrhistogram.Histogram
	blocks     int64
	events     int64
	violations int64
	maxBlock   int64
	prev       ticks.Ticks
	prevSet    bool
	peak       float64
}

// Stats is a snapshot of aggregated measurements.
type Stats struct {
	Blocks     int64         `json:"blocks"`
	Events     int64         `json:"events"`
	Violations int64         `json:"violations"`
	MaxBlock   int64         `json:"max_block"`
	Duration   time.Duration `json:"-"`

	PeakRate      float64 `json:"peak_rate"`      // events/s, highest per-block
	SustainedRate float64 `json:"sustained_rate"` // events/s over the whole run
	MeanBlock     float64 `json:"mean_block"`     // events per block

	MinDelay time.Duration `json:"-"`
	MaxDelay time.Duration `json:"-"`
	P50Delay time.Duration `json:"-"`
	P90Delay time.Duration `json:"-"`
	P99Delay time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	DurationMs float64 `json:"duration_ms"`
	MinDelayMs float64 `json:"min_delay_ms"`
	MaxDelayMs float64 `json:"max_delay_ms"`
	P50DelayMs float64 `json:"p50_delay_ms"`
	P90DelayMs float64 `json:"p90_delay_ms"`
	P99DelayMs float64 `json:"p99_delay_ms"`
}

// NewMeter returns an empty meter. Delays are tracked from 1µs up to 60s
// with 3 significant figures.
func NewMeter() *Meter {
	return &Meter{
		delays: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// RecordBlock records one block of size events emitted at instant now after
// the shaper stalled for delay ticks. conforming is the throttle's verdict.
func (m *Meter) RecordBlock(now ticks.Ticks, size int64, delay ticks.Ticks, conforming bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks++
	m.events += size
	if size > m.maxBlock {
		m.maxBlock = size
	}
	if !conforming {
		m.violations++
	}

	if delay > 0 {
		us := delay.Duration().Microseconds()
		if us < m.delays.LowestTrackableValue() {
			us = m.delays.LowestTrackableValue()
		}
		if us > m.delays.HighestTrackableValue() {
			us = m.delays.HighestTrackableValue()
		}
		_ = m.delays.RecordValue(us)
	}

	// The instantaneous rate of a block is its size over the gap since the
	// previous block.
	if m.prevSet && now > m.prev && size > 0 {
		rate := float64(size) * float64(ticks.Frequency()) / float64(now-m.prev)
		if rate > m.peak {
			m.peak = rate
		}
	}
	m.prev = now
	m.prevSet = true
}

// Violations returns the number of non-conforming blocks recorded so far.
func (m *Meter) Violations() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.violations
}

// Stats computes aggregated statistics for a run of the given elapsed
// duration.
func (m *Meter) Stats(elapsed time.Duration) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Blocks:     m.blocks,
		Events:     m.events,
		Violations: m.violations,
		MaxBlock:   m.maxBlock,
		Duration:   elapsed,
		PeakRate:   m.peak,
	}

	if m.blocks > 0 {
		stats.MeanBlock = float64(m.events) / float64(m.blocks)
	}
	if elapsed > 0 {
		stats.SustainedRate = float64(m.events) / elapsed.Seconds()
	}

	if m.delays.TotalCount() > 0 {
		stats.MinDelay = time.Duration(m.delays.Min()) * time.Microsecond
		stats.MaxDelay = time.Duration(m.delays.Max()) * time.Microsecond
		stats.P50Delay = time.Duration(m.delays.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Delay = time.Duration(m.delays.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Delay = time.Duration(m.delays.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.DurationMs = float64(elapsed) / float64(time.Millisecond)
	stats.MinDelayMs = float64(stats.MinDelay) / float64(time.Millisecond)
	stats.MaxDelayMs = float64(stats.MaxDelay) / float64(time.Millisecond)
	stats.P50DelayMs = float64(stats.P50Delay) / float64(time.Millisecond)
	stats.P90DelayMs = float64(stats.P90Delay) / float64(time.Millisecond)
	stats.P99DelayMs = float64(stats.P99Delay) / float64(time.Millisecond)

	return stats
}
