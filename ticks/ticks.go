// Package ticks provides the tick-domain time base consumed by the
// throttles. A Ticks value counts time in units of 1/Frequency seconds,
// measured from a process-local monotonic epoch that is established on the
// first call to Now. Only differences between Ticks values are meaningful;
// absolute values are not comparable across processes or reboots.
package ticks

import (
	"runtime"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Ticks is a signed tick count. Deltas may be transiently negative in
// edge-of-epoch arithmetic; negative values are computed and immediately
// consumed, never stored.
type Ticks int64

// Clock provides time operations for deterministic testing.
type Clock = clockz.Clock

// frequency is fixed at 1 GHz: one tick per nanosecond.
const frequency Ticks = 1_000_000_000

var (
	mu       sync.Mutex
	clock    Clock = clockz.RealClock
	epoch    time.Time
	epochSet bool
)

// Frequency returns the resolution of a Ticks value in ticks per second.
func Frequency() Ticks {
	return frequency
}

// Now returns the number of ticks elapsed since the process-local epoch.
// The epoch is established on the first call, and again on the first call
// after SetClock; between those, Now is monotonic non-decreasing.
func Now() Ticks {
	mu.Lock()
	defer mu.Unlock()
	if !epochSet {
		epoch = clock.Now()
		epochSet = true
	}
	return Ticks(clock.Now().Sub(epoch))
}

// Sleep blocks the calling goroutine for at least the given number of
// ticks. For a non-positive argument it yields the processor without
// blocking.
func Sleep(t Ticks) {
	if t > 0 {
		c := currentClock()
		<-c.After(time.Duration(t))
	} else {
		runtime.Gosched()
	}
}

// SetClock replaces the clock behind Now and Sleep and re-arms the epoch.
// It exists for deterministic tests; production code never calls it.
func SetClock(c Clock) {
	mu.Lock()
	defer mu.Unlock()
	clock = c
	epochSet = false
}

func currentClock() Clock {
	mu.Lock()
	defer mu.Unlock()
	return clock
}

// Duration converts a tick count to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t)
}

// Seconds converts a tick count to fractional seconds.
func (t Ticks) Seconds() float64 {
	return float64(t) / float64(frequency)
}
