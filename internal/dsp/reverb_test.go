package dsp

import (
	"math"
	"testing"
)

// TestSchroederTankProducesTailAfterImpulse checks the tank keeps
// producing non-silent output well after a single impulse, the basic
// behavior expected of a reverb.
func TestSchroederTankProducesTailAfterImpulse(t *testing.T) {
	tank := NewSchroederTank(48000)
	tank.Process(1.0)

	var energyAfterTail float64
	for i := 0; i < 4000; i++ {
		y := tank.Process(0)
		if i > 3000 {
			energyAfterTail += float64(y) * float64(y)
		}
	}
	if energyAfterTail == 0 {
		t.Fatalf("expected residual tail energy long after the impulse")
	}
}

// TestSchroederTankResetClearsState verifies Reset silences the tank.
func TestSchroederTankResetClearsState(t *testing.T) {
	tank := NewSchroederTank(48000)
	tank.Process(1.0)
	for i := 0; i < 10; i++ {
		tank.Process(0)
	}
	tank.Reset()
	y := tank.Process(0)
	if math.Abs(float64(y)) > 1e-9 {
		t.Fatalf("expected silence immediately after reset, got %v", y)
	}
}
