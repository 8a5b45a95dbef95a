// Package contract implements a dual-rate traffic contract as a composite of
// two virtual schedulers: one describing the peak rate, one the sustainable
// rate. An event stream conforms only when it conforms to both. From the
// caller's point of view the composite still behaves like a single throttle.
package contract

import (
	"fmt"

	"github.com/torosent/stampede/gcra"
	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// Contract composes a peak GCRA, whose limit is the jitter tolerance, and a
// sustained GCRA, whose limit is the burst tolerance. It holds its two
// sub-throttles by value and shares no state between them, so a Contract is
// copyable the same way a GCRA is.
type Contract struct {
	peak      gcra.GCRA
	sustained gcra.GCRA
}

var _ throttle.Throttle = (*Contract)(nil)

// New returns a Contract with the given peak increment and jitter tolerance,
// sustained increment and burst tolerance, all in ticks, reset at time now.
func New(peakIncrement, jitterTolerance, sustainedIncrement, burstTolerance, now ticks.Ticks) Contract {
	var c Contract
	c.Init(peakIncrement, jitterTolerance, sustainedIncrement, burstTolerance, now)
	return c
}

// Init configures both sub-throttles and resets them at time now.
func (c *Contract) Init(peakIncrement, jitterTolerance, sustainedIncrement, burstTolerance, now ticks.Ticks) {
	c.peak.Init(peakIncrement, jitterTolerance, now)
	c.sustained.Init(sustainedIncrement, burstTolerance, now)
}

// Reset returns both sub-throttles to their initial state at time now.
func (c *Contract) Reset(now ticks.Ticks) {
	c.peak.Reset(now)
	c.sustained.Reset(now)
}

// Request returns the delay required to satisfy the stricter of the two
// sub-throttles. Both are always consulted; each recomputes its own will-be
// state.
func (c *Contract) Request(now ticks.Ticks) ticks.Ticks {
	peak := c.peak.Request(now)
	sustained := c.sustained.Request(now)
	if peak > sustained {
		return peak
	}
	return sustained
}

// Commits charges both sub-throttles and conforms only when both conform.
func (c *Contract) Commits(events throttle.Events) bool {
	peak := c.peak.Commits(events)
	sustained := c.sustained.Commits(events)
	return peak && sustained
}

// Commit is Commits with a single event.
func (c *Contract) Commit() bool {
	peak := c.peak.Commit()
	sustained := c.sustained.Commit()
	return peak && sustained
}

// Admits combines Request at time now with Commits of events on both
// sub-throttles.
func (c *Contract) Admits(now ticks.Ticks, events throttle.Events) bool {
	peak := c.peak.Admits(now, events)
	sustained := c.sustained.Admits(now, events)
	return peak && sustained
}

// Admit is Admits with a single event.
func (c *Contract) Admit(now ticks.Ticks) bool {
	peak := c.peak.Admit(now)
	sustained := c.sustained.Admit(now)
	return peak && sustained
}

// Update marks the passage of idle time on both sub-throttles.
func (c *Contract) Update(now ticks.Ticks) bool {
	peak := c.peak.Update(now)
	sustained := c.sustained.Update(now)
	return peak && sustained
}

// Expected returns the larger of the two sub-throttles' drain delays.
func (c *Contract) Expected() ticks.Ticks {
	peak := c.peak.Expected()
	sustained := c.sustained.Expected()
	if peak > sustained {
		return peak
	}
	return sustained
}

// IsEmpty reports that both sub-throttles are empty.
func (c *Contract) IsEmpty() bool {
	return c.peak.IsEmpty() && c.sustained.IsEmpty()
}

// IsFull reports that either sub-throttle is full.
func (c *Contract) IsFull() bool {
	return c.peak.IsFull() || c.sustained.IsFull()
}

// IsAlarmed reports that either sub-throttle is alarmed.
func (c *Contract) IsAlarmed() bool {
	return c.peak.IsAlarmed() || c.sustained.IsAlarmed()
}

// Emptied reports that either sub-throttle emptied on the most recent
// commit.
func (c *Contract) Emptied() bool {
	return c.peak.Emptied() || c.sustained.Emptied()
}

// Filled reports that either sub-throttle filled on the most recent commit.
func (c *Contract) Filled() bool {
	return c.peak.Filled() || c.sustained.Filled()
}

// Alarmed reports that either sub-throttle alarmed on the most recent
// commit.
func (c *Contract) Alarmed() bool {
	return c.peak.Alarmed() || c.sustained.Alarmed()
}

// Cleared reports that either sub-throttle cleared on the most recent
// commit.
func (c *Contract) Cleared() bool {
	return c.peak.Cleared() || c.sustained.Cleared()
}

// String renders both sub-schedulers, peak first.
func (c *Contract) String() string {
	return fmt.Sprintf("contract{p:%s,s:%s}", c.peak.String(), c.sustained.String())
}

// BurstTolerance converts a human-facing maximum burst size at the peak rate
// into the limit the sustained scheduler needs. It starts from the jitter
// tolerance and, when the peak rate genuinely exceeds the sustained rate,
// adds the per-event interval difference for every event in the burst past
// the first.
func BurstTolerance(peakIncrement, jitterTolerance, sustainedIncrement ticks.Ticks, burstsize throttle.Events) ticks.Ticks {
	limit := jitterTolerance

	if peakIncrement >= sustainedIncrement {
		// Leave unchanged.
	} else if burstsize <= 1 {
		// Leave unchanged.
	} else {
		limit += ticks.Ticks(burstsize-1) * (sustainedIncrement - peakIncrement)
	}

	return limit
}
