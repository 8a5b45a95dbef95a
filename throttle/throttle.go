// Package throttle defines the behavioural contract shared by every rate
// limiter in this repository. Throttles shape event emission rates or police
// event admission rates; the concrete implementations are the single-rate
// virtual scheduler in package gcra and the dual-rate composite in package
// contract.
package throttle

import (
	"fmt"

	"github.com/torosent/stampede/ticks"
)

// Events counts how many events have been emitted since the last update of a
// throttle. An event is whatever the application says it is: a packet, a
// byte, a bit, a message. Throttles are parameterised in ticks per event.
type Events int64

// Throttle is the capability set every rate limiter honours. All
// state-changing methods take the current time explicitly; a throttle never
// reads a clock itself, which keeps simulation tests deterministic.
type Throttle interface {
	fmt.Stringer

	// Reset returns the throttle to its initial state at time now. Useful
	// after a calamitous happenstance, like the far end disconnecting and
	// reconnecting.
	Reset(now ticks.Ticks)

	// Request computes how long the caller would have to delay before
	// emitting the next event at time now for that emission to conform to
	// the traffic contract. Zero means an emission now conforms. Request
	// updates only the will-be state; no budget is consumed until Commits.
	Request(now ticks.Ticks) ticks.Ticks

	// Commits applies the emission of events at the time given to the most
	// recent Request and returns false if the throttle is alarmed, true
	// otherwise. Non-positive event counts advance the edge history but
	// charge nothing.
	Commits(events Events) bool

	// Commit is Commits with a single event.
	Commit() bool

	// Admits combines Request at time now with Commits of events, ignoring
	// the computed delay. This is the policing pattern: decide after the
	// fact whether an observed emission conformed.
	Admits(now ticks.Ticks, events Events) bool

	// Admit is Admits with a single event.
	Admit(now ticks.Ticks) bool

	// Update is Admits with zero events: the passage of idle time, which may
	// bring the throttle back into conformance.
	Update(now ticks.Ticks) bool

	// Expected returns how many ticks of delay would drain the accumulated
	// deficit to zero given the current state of the throttle.
	Expected() ticks.Ticks

	// IsEmpty reports that the throttle has no accumulated deficit.
	IsEmpty() bool

	// IsFull reports that the accumulated deficit exceeds the limit.
	IsFull() bool

	// IsAlarmed reports that the event stream is out of conformance with
	// the traffic contract.
	IsAlarmed() bool

	// Emptied reports that the throttle emptied on the most recent commit.
	Emptied() bool

	// Filled reports that the throttle filled on the most recent commit.
	Filled() bool

	// Alarmed reports that the alarm was raised on the most recent commit.
	Alarmed() bool

	// Cleared reports that the alarm was lowered on the most recent commit.
	Cleared() bool
}
