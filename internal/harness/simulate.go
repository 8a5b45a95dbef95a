// Package harness drives throttles through event streams, either simulated
// on a synthetic time axis or carried for real across a loopback transport
// by a producer/shaper/policer/consumer pipeline. It exists for tests; the
// core packages never import it.
package harness

import (
	"fmt"
	"math/rand"

	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// SimStats summarises a simulated run.
type SimStats struct {
	Total     uint64  // events emitted
	Mean      float64 // events per block
	Peak      float64 // highest observed instantaneous rate, events/s
	Sustained float64 // total events over total duration, events/s
}

// BlockSize returns a random block size between 1 and maximum inclusive.
func BlockSize(rng *rand.Rand, maximum throttle.Events) throttle.Events {
	return throttle.Events(rng.Int63n(int64(maximum))) + 1
}

// Simulate runs a synthetic event stream of random block sizes through a
// shaping throttle and an identically-contracted policing throttle on a
// synthetic time axis. The shaper's advice is always honoured, so the
// policer must admit every block; the first non-conforming step aborts the
// run with an error. The time axis is synthetic: the run takes no wall-clock
// time regardless of the contract.
func Simulate(shape, police throttle.Throttle, maximum throttle.Events, iterations int, seed int64) (SimStats, error) {
	frequency := float64(ticks.Frequency())
	rng := rand.New(rand.NewSource(seed))

	var stats SimStats
	var now, duration ticks.Ticks
	var size throttle.Events

	for i := 0; i < iterations; i++ {
		delay := shape.Request(now)
		if delay < 0 {
			return stats, fmt.Errorf("simulate: negative delay %d at iteration %d", delay, i)
		}
		now += delay
		duration += delay

		if i > 0 && delay > 0 {
			rate := float64(size) * frequency / float64(delay)
			if rate > stats.Peak {
				stats.Peak = rate
			}
		}

		if again := shape.Request(now); again != 0 {
			return stats, fmt.Errorf("simulate: residual delay %d after waiting at iteration %d", again, i)
		}

		size = BlockSize(rng, maximum)
		stats.Total += uint64(size)

		if !shape.Commits(size) {
			return stats, fmt.Errorf("simulate: shaper alarmed at iteration %d: %s", i, shape)
		}
		if !police.Admits(now, size) {
			return stats, fmt.Errorf("simulate: policer rejected %d events at iteration %d: %s", size, i, police)
		}
	}

	// Drain: let enough idle time pass to bring both throttles back to
	// empty, then confirm they agree the stream conformed.
	delay := shape.Expected()
	now += delay
	duration += delay
	if !shape.Update(now) {
		return stats, fmt.Errorf("simulate: shaper alarmed after drain: %s", shape)
	}
	if !police.Update(now) {
		return stats, fmt.Errorf("simulate: policer alarmed after drain: %s", police)
	}

	if iterations > 0 {
		stats.Mean = float64(stats.Total) / float64(iterations)
	}
	if duration > 0 {
		stats.Sustained = float64(stats.Total) * frequency / float64(duration)
	}

	return stats, nil
}
