package contract_test

import (
	"strings"
	"testing"

	"github.com/torosent/stampede/contract"
	"github.com/torosent/stampede/gcra"
	"github.com/torosent/stampede/internal/harness"
	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

func TestBurstTolerance(t *testing.T) {
	tests := []struct {
		name            string
		peakIncrement   ticks.Ticks
		jitterTolerance ticks.Ticks
		sustainedInc    ticks.Ticks
		burstsize       throttle.Events
		want            ticks.Ticks
	}{
		{"peak faster than sustained", 2, 3, 7, 5, 3 + 4*(7-2)},
		{"equal rates", 7, 3, 7, 5, 3},
		{"peak slower than sustained", 9, 3, 7, 5, 3},
		{"burst of one", 2, 3, 7, 1, 3},
		{"no burst", 2, 3, 7, 0, 3},
		{"no jitter", 2, 0, 7, 3, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contract.BurstTolerance(tt.peakIncrement, tt.jitterTolerance, tt.sustainedInc, tt.burstsize)
			if got != tt.want {
				t.Errorf("BurstTolerance(%d, %d, %d, %d) = %d, want %d",
					tt.peakIncrement, tt.jitterTolerance, tt.sustainedInc, tt.burstsize, got, tt.want)
			}
		})
	}
}

// The composite delay must equal the delay of whichever sub-throttle is
// stricter, verified against two identically-driven standalone schedulers.
func TestRequestIsMaxOfComponents(t *testing.T) {
	const peakInc, sustainedInc = 100, 400
	burst := throttle.Events(8)
	jitter := gcra.JitterTolerance(peakInc, burst)
	tolerance := contract.BurstTolerance(peakInc, jitter, sustainedInc, burst)

	c := contract.New(peakInc, jitter, sustainedInc, tolerance, 0)
	peak := gcra.New(peakInc, jitter, 0)
	sustained := gcra.New(sustainedInc, tolerance, 0)

	var now ticks.Ticks
	for k := 0; k < 1000; k++ {
		got := c.Request(now)
		p := peak.Request(now)
		s := sustained.Request(now)
		want := p
		if s > want {
			want = s
		}
		if got != want {
			t.Fatalf("step %d: contract delay %d, components %d/%d", k, got, p, s)
		}

		now += got
		c.Request(now)
		peak.Request(now)
		sustained.Request(now)

		events := throttle.Events(k%5 + 1)
		cr := c.Commits(events)
		pr := peak.Commits(events)
		sr := sustained.Commits(events)
		if cr != (pr && sr) {
			t.Fatalf("step %d: contract commit %v, components %v/%v", k, cr, pr, sr)
		}
		now += 100
	}
}

func TestBothComponentsAdvanceOnConformingFailure(t *testing.T) {
	// A contract whose sustained scheduler alarms stays out of contract on
	// later admissions, even when each of them is on time for the peak
	// scheduler.
	const peakInc, sustainedInc = 10, 1000
	c := contract.New(peakInc, 0, sustainedInc, 0, 0)

	if !c.Admits(0, 1) {
		t.Fatalf("first admission should conform")
	}
	// Arrive far too soon for the sustained contract but on time for peak.
	if c.Admits(10, 1) {
		t.Fatalf("expected sustained violation")
	}
	if !c.IsAlarmed() {
		t.Fatalf("contract should be alarmed: %s", &c)
	}
	// A third event one peak interval later is fine by peak but still
	// sustained-bound.
	if c.Admits(20, 1) {
		t.Fatalf("expected sustained violation to persist")
	}
}

func TestStateCombiners(t *testing.T) {
	const peakInc, sustainedInc = 10, 1000
	c := contract.New(peakInc, 0, sustainedInc, 0, 0)

	if !c.IsEmpty() || c.IsFull() || c.IsAlarmed() {
		t.Fatalf("fresh contract in wrong state: %s", &c)
	}

	c.Admits(0, 1)
	c.Admits(10, 1) // sustained fills, peak does not

	if !c.IsFull() {
		t.Fatalf("IsFull must report either component full: %s", &c)
	}
	if c.IsEmpty() {
		t.Fatalf("IsEmpty must require both components empty: %s", &c)
	}
	if !c.Filled() || !c.Alarmed() {
		t.Fatalf("edge detectors must report either component: %s", &c)
	}

	// Idle past the larger drain delay restores both components.
	now := ticks.Ticks(10) + c.Expected()
	if !c.Update(now) {
		t.Fatalf("drained contract should conform: %s", &c)
	}
	if !c.IsEmpty() || c.IsAlarmed() {
		t.Fatalf("drained contract in wrong state: %s", &c)
	}
	if !c.Cleared() {
		t.Fatalf("expected cleared edge after drain: %s", &c)
	}
}

func TestResetRestoresBothComponents(t *testing.T) {
	c := contract.New(10, 0, 1000, 0, 0)
	c.Admits(0, 100)
	c.Admits(1, 100)
	if !c.IsAlarmed() {
		t.Fatalf("expected alarmed before reset")
	}
	c.Reset(5000)
	if delay := c.Request(5000); delay != 0 {
		t.Fatalf("after reset: delay %d", delay)
	}
	if !c.Commit() {
		t.Fatalf("after reset: commit alarmed")
	}
}

func TestSnapshotCopyIsIndependent(t *testing.T) {
	original := contract.New(2, 4, 6, 8, 0)
	snapshot := original
	snapshot.Admits(100, 50)
	if original.String() == snapshot.String() {
		t.Fatalf("snapshot shares state with original")
	}
}

func TestStringLabelsBothSchedulers(t *testing.T) {
	c := contract.New(2, 4, 6, 8, 0)
	s := c.String()
	if !strings.Contains(s, "p:") || !strings.Contains(s, "s:") {
		t.Errorf("String() = %q, missing peak/sustained labels", s)
	}
}

// The dual-rate analogue of the shaping/policing round trip: a shaper driven
// at a 2048/1024 events per second contract with a burst of 512 must produce
// a stream an identically-contracted policer admits in full, with the
// measured sustained rate within one percent of the contract and the
// measured peak rate no more than one percent above it.
func TestSimulatedDualRateContract(t *testing.T) {
	if testing.Short() {
		t.Skip("long simulation")
	}
	frequency := ticks.Frequency()
	burst := throttle.Events(512)

	peakInc := gcra.Increment(2048, 1, frequency)
	sustainedInc := gcra.Increment(1024, 1, frequency)
	jitter := gcra.JitterTolerance(peakInc, burst)
	tolerance := contract.BurstTolerance(peakInc, 0, sustainedInc, burst)

	shape := contract.New(peakInc, 0, sustainedInc, tolerance, 0)
	police := contract.New(peakInc, jitter, sustainedInc, tolerance+jitter, 0)

	stats, err := harness.Simulate(&shape, &police, burst, 1_000_000, 3)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sustained > 1024*1.01 || stats.Sustained < 1024*0.99 {
		t.Errorf("sustained rate %f out of tolerance of 1024", stats.Sustained)
	}
	if stats.Peak > 2048*1.01 {
		t.Errorf("peak rate %f exceeds contracted 2048", stats.Peak)
	}
}
