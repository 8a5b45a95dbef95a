// Package output renders run reports and live progress for the shaping and
// policing binaries. Reports are written wherever the caller points them;
// the binaries use stderr, since stdout carries the data stream.
package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/stampede/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	meter    *metrics.Meter
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval.
func NewProgressReporter(meter *metrics.Meter, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		meter:    meter,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start)
			stats := p.meter.Stats(elapsed)
			fmt.Fprintf(p.writer, "\rBlocks: %d | Events: %d | Rate: %.1f/s | Violations: %d",
				stats.Blocks, stats.Events, stats.SustainedRate, stats.Violations)
		case <-p.done:
			return
		}
	}
}
