// Package gcra implements the Generic Cell Rate Algorithm as a virtual
// scheduler. The scheduler watches the inter-arrival interval of events and
// compares it against the contracted interval; when the cumulative error
// exceeds a threshold the throttle becomes alarmed and the stream is in
// violation of its traffic contract. Events can be fixed-size cells, as in
// the original ATM formulation, or variable-length blocks, in which case the
// contract describes the mean bandwidth of the stream rather than its
// instantaneous bandwidth.
package gcra

import (
	"fmt"

	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// GCRA is a single-rate virtual scheduler. In the traffic management
// literature the increment is "i", the limit is "l", the expected
// inter-arrival interval is "x", and the accumulated deficit is "x1".
//
// A GCRA holds no pointers and no heap state: it may be copied freely to
// snapshot it for diagnostics or fork it into an experimental branch. The
// zero value is an unconfigured throttle that admits everything.
type GCRA struct {
	now       ticks.Ticks // time of the most recent Request
	then      ticks.Ticks // time of the most recent Commits
	increment ticks.Ticks // contracted interval per event
	limit     ticks.Ticks // maximum tolerated deficit
	expected  ticks.Ticks // ticks until the next event would be exactly on schedule
	deficit   ticks.Ticks // how far behind schedule the emitter is

	full0  bool // will fill
	full1  bool // is full
	full2  bool // was full
	empty0 bool // will empty
	empty1 bool // is empty
	empty2 bool // was empty

	alarmed1 bool // is alarmed
	alarmed2 bool // was alarmed
}

var _ throttle.Throttle = (*GCRA)(nil)

// New returns a GCRA with the given increment and limit in ticks, reset to
// its initial state at time now.
func New(increment, limit, now ticks.Ticks) GCRA {
	var g GCRA
	g.Init(increment, limit, now)
	return g
}

// Init configures the increment and limit and resets the throttle at time
// now. A freshly initialised GCRA admits its first event immediately.
func (g *GCRA) Init(increment, limit, now ticks.Ticks) {
	g.increment = increment
	g.limit = limit
	g.Reset(now)
}

// Reset returns the throttle to its initial state at time now. The prior
// timestamp is backdated one increment so that the first Request conforms
// with zero delay.
func (g *GCRA) Reset(now ticks.Ticks) {
	g.now = now
	g.then = now - g.increment
	g.expected = 0
	g.deficit = 0
	g.full0 = false
	g.full1 = false
	g.full2 = false
	g.empty0 = true
	g.empty1 = true
	g.empty2 = true
	g.alarmed1 = false
	g.alarmed2 = false
}

// Request computes how long an emission at time now would have to be delayed
// to conform. It recomputes the deficit and the will-be edge flags but does
// not consume budget; calling it twice at the same now is idempotent.
func (g *GCRA) Request(now ticks.Ticks) ticks.Ticks {
	var delay ticks.Ticks

	g.now = now
	elapsed := g.now - g.then
	if g.expected <= elapsed {
		g.deficit = 0
		g.full0 = false
		g.empty0 = true
		delay = 0
	} else {
		g.deficit = g.expected - elapsed
		if g.deficit <= g.limit {
			g.full0 = false
			g.empty0 = false
			delay = 0
		} else {
			g.full0 = true
			g.empty0 = false
			delay = g.deficit - g.limit
		}
	}

	return delay
}

// Commits charges the throttle for events emitted at the time given to the
// most recent Request and returns false if the throttle is alarmed. The
// alarm is hysteretic: it is raised on a filled edge and lowered only on an
// emptied edge, so it does not thrash when the deficit hovers near the
// limit. Non-positive event counts are treated as idle: the edge history
// still shifts but nothing is charged.
func (g *GCRA) Commits(events throttle.Events) bool {
	g.then = g.now
	g.expected = g.deficit
	if events > 0 {
		g.expected += g.increment * ticks.Ticks(events)
	}
	g.full2 = g.full1
	g.full1 = g.full0
	g.empty2 = g.empty1
	g.empty1 = g.empty0
	g.alarmed2 = g.alarmed1
	if g.Emptied() {
		g.alarmed1 = false
	} else if g.Filled() {
		g.alarmed1 = true
	}

	return !g.alarmed1
}

// Commit is Commits with a single event.
func (g *GCRA) Commit() bool {
	return g.Commits(1)
}

// Admits combines Request at time now with Commits of events.
func (g *GCRA) Admits(now ticks.Ticks, events throttle.Events) bool {
	g.Request(now)
	return g.Commits(events)
}

// Admit is Admits with a single event.
func (g *GCRA) Admit(now ticks.Ticks) bool {
	return g.Admits(now, 1)
}

// Update is Admits with zero events, marking the passage of idle time. Idle
// time at least as long as Expected brings the throttle back to empty.
func (g *GCRA) Update(now ticks.Ticks) bool {
	return g.Admits(now, 0)
}

// Expected returns the delay in ticks that would drain the deficit to zero.
func (g *GCRA) Expected() ticks.Ticks {
	return g.expected
}

// IsEmpty reports that the throttle has no accumulated deficit.
func (g *GCRA) IsEmpty() bool {
	return g.empty1
}

// IsFull reports that the deficit has exceeded the limit.
func (g *GCRA) IsFull() bool {
	return g.full1
}

// IsAlarmed reports that the stream is out of conformance.
func (g *GCRA) IsAlarmed() bool {
	return g.alarmed1
}

// Emptied reports that the throttle emptied on the most recent commit.
func (g *GCRA) Emptied() bool {
	return g.empty1 && !g.empty2
}

// Filled reports that the throttle filled on the most recent commit.
func (g *GCRA) Filled() bool {
	return g.full1 && !g.full2
}

// Alarmed reports that the alarm was raised on the most recent commit.
func (g *GCRA) Alarmed() bool {
	return g.alarmed1 && !g.alarmed2
}

// Cleared reports that the alarm was lowered on the most recent commit.
func (g *GCRA) Cleared() bool {
	return !g.alarmed1 && g.alarmed2
}

func btoc(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}

// String renders the full scheduler state for diagnostics and test logs.
func (g *GCRA) String() string {
	return fmt.Sprintf("gcra{t:%d,i:%d,l:%d,x:%d,x1:%d,f:{%c,%c,%c},e:{%c,%c,%c},a:{%c,%c}}",
		g.now-g.then,
		g.increment, g.limit, g.expected, g.deficit,
		btoc(g.full0), btoc(g.full1), btoc(g.full2),
		btoc(g.empty0), btoc(g.empty1), btoc(g.empty2),
		btoc(g.alarmed1), btoc(g.alarmed2))
}
