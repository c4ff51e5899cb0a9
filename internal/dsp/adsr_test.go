package dsp

import "testing"

// TestADSRReachesSustain drives a gated envelope through attack and
// decay and checks it settles at the configured sustain level.
func TestADSRReachesSustain(t *testing.T) {
	e := &ADSR{AttackSamples: 10, DecaySamples: 10, SustainLevel: 0.5, ReleaseSamples: 10}
	e.Gate(true)

	var last float32
	for i := 0; i < 25; i++ {
		last = e.Next()
	}
	if last < 0.49 || last > 0.51 {
		t.Fatalf("expected envelope to settle near sustain 0.5, got %v", last)
	}
	if e.stage != EnvSustain {
		t.Fatalf("expected EnvSustain, got stage %v", e.stage)
	}
}

// TestADSRReleaseReachesZero checks that releasing the gate eventually
// silences the envelope.
func TestADSRReleaseReachesZero(t *testing.T) {
	e := &ADSR{AttackSamples: 5, DecaySamples: 5, SustainLevel: 0.8, ReleaseSamples: 20}
	e.Gate(true)
	for i := 0; i < 15; i++ {
		e.Next()
	}
	e.Gate(false)
	for i := 0; i < 25; i++ {
		e.Next()
	}
	if e.Next() != 0 {
		t.Fatalf("expected envelope to reach 0 after release")
	}
	if e.Active() {
		t.Fatalf("expected envelope inactive after full release")
	}
}

// TestADSRRetriggerFromCurrentLevel verifies a re-gate mid-release
// restarts attack from the current level instead of zero, avoiding a
// click.
func TestADSRRetriggerFromCurrentLevel(t *testing.T) {
	e := &ADSR{AttackSamples: 10, DecaySamples: 10, SustainLevel: 1, ReleaseSamples: 100}
	e.Gate(true)
	for i := 0; i < 20; i++ {
		e.Next()
	}
	e.Gate(false)
	for i := 0; i < 5; i++ {
		e.Next()
	}
	levelBeforeRetrigger := e.level
	e.Gate(true)
	if e.level != levelBeforeRetrigger {
		t.Fatalf("retrigger should not reset level, want %v got %v", levelBeforeRetrigger, e.level)
	}
	if e.stage != EnvAttack {
		t.Fatalf("expected retrigger to enter EnvAttack")
	}
}
