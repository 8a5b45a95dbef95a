package config_test

import (
	"testing"

	"github.com/torosent/stampede/internal/config"
	"github.com/torosent/stampede/ticks"
)

func TestIncrementDerivations(t *testing.T) {
	cfg := config.Config{PeakRate: 2048, SustainedRate: 1024, BurstSize: 512, BlockSize: 512}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	peak := cfg.PeakIncrement()
	sustained := cfg.SustainedIncrement()

	// 1e9/2048 = 488281.25 rounds up; 1e9/1024 = 976562.5 rounds up.
	if peak != 488_282 {
		t.Errorf("PeakIncrement = %d, want 488282", peak)
	}
	if sustained != 976_563 {
		t.Errorf("SustainedIncrement = %d, want 976563", sustained)
	}
}

func TestShapingContractConformsFromTheStart(t *testing.T) {
	cfg := config.Config{PeakRate: 2048, SustainedRate: 1024, BurstSize: 512, BlockSize: 512}

	shape := cfg.ShapingContract(0)
	if delay := shape.Request(0); delay != 0 {
		t.Fatalf("fresh shaping contract demands delay %d", delay)
	}
	if !shape.Commits(1) {
		t.Fatal("fresh shaping contract alarmed on first commit")
	}
}

func TestPolicingContractForgivesShapedBurst(t *testing.T) {
	cfg := config.Config{PeakRate: 2048, SustainedRate: 1024, BurstSize: 16, BlockSize: 16}

	// A full burst emitted at the peak rate must pass the policing
	// contract, which carries the jitter tolerance the shaper introduces.
	police := cfg.PolicingContract(0)
	peak := cfg.PeakIncrement()

	var now ticks.Ticks
	for k := 0; k < 16; k++ {
		if !police.Admit(now) {
			t.Fatalf("policer rejected burst event %d: %s", k, &police)
		}
		now += peak
	}
}
