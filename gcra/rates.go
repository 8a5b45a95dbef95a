package gcra

import (
	"math"

	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// Increment converts a rate, expressed as numerator events per denominator
// seconds, into the contracted inter-event interval in ticks at the given
// frequency. The division rounds up, so the emitted rate never exceeds the
// requested rate; the computed interval exceeds the exact value by less than
// one tick per event. A non-positive numerator yields the maximum interval,
// which is a zero rate. A denominator of zero is a caller error: it falls
// through to the numerator checks exactly as a negative denominator does,
// and the result for a positive numerator is meaningless.
func Increment(numerator, denominator throttle.Events, frequency ticks.Ticks) ticks.Ticks {
	var increment ticks.Ticks

	// increment = (1 / (numerator / denominator)) * frequency
	//           = (denominator * frequency) / numerator
	if denominator < 1 {
		// Leave zero.
	} else if denominator == 1 {
		increment = frequency
	} else {
		increment = frequency
		increment *= ticks.Ticks(denominator)
	}

	if numerator < 1 {
		increment = math.MaxInt64
	} else if numerator == 1 {
		// Leave unchanged.
	} else if increment%ticks.Ticks(numerator) == 0 {
		increment /= ticks.Ticks(numerator)
	} else {
		increment /= ticks.Ticks(numerator)
		increment++
	}

	return increment
}

// JitterTolerance computes the limit a policing throttle must grant a shaped
// stream whose burst size is burstsize events: the leeway is one increment
// for every event in the burst past the first.
func JitterTolerance(increment ticks.Ticks, burstsize throttle.Events) ticks.Ticks {
	var limit ticks.Ticks

	if increment <= 0 {
		// Leave zero.
	} else if burstsize <= 1 {
		// Leave zero.
	} else {
		limit = ticks.Ticks(burstsize-1) * increment
	}

	return limit
}
