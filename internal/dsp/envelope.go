// Package dsp holds small reusable signal-processing primitives shared
// by concrete nodes: envelope followers, one-pole smoothers, a biquad
// bandpass/peaking section and a Schroeder reverb tank. These mirror
// the teacher's hand-rolled DSP in audio_chip.go (state-variable
// filter, comb/allpass reverb, ADSR shapes) generalized so more than
// one node can share them.
package dsp

import "math"

// Follower is a one-pole attack/release envelope follower. Attack and
// release use separate time constants; selection is attack whenever
// the rectified input exceeds the stored envelope, release otherwise
// — the dynamics-node convention from spec.md 4.1.
type Follower struct {
	attackCoef  float64
	releaseCoef float64
	level       float64
}

// NewFollower builds a Follower for the given sample rate and
// attack/release times in milliseconds. Time constants are clamped to
// at least 100 microseconds before the coefficient is computed, per
// spec.md 4.1.
func NewFollower(sampleRate, attackMs, releaseMs float64) *Follower {
	return &Follower{
		attackCoef:  onePoleCoef(sampleRate, attackMs),
		releaseCoef: onePoleCoef(sampleRate, releaseMs),
	}
}

func onePoleCoef(sampleRate, tauMs float64) float64 {
	if tauMs < 0.1 {
		tauMs = 0.1
	}
	tauSec := tauMs / 1000
	return math.Exp(-1 / (sampleRate * tauSec))
}

// SetTimes reconfigures the attack/release coefficients in place.
func (f *Follower) SetTimes(sampleRate, attackMs, releaseMs float64) {
	f.attackCoef = onePoleCoef(sampleRate, attackMs)
	f.releaseCoef = onePoleCoef(sampleRate, releaseMs)
}

// Next advances the follower with one rectified input sample and
// returns the updated envelope level.
func (f *Follower) Next(absInput float64) float64 {
	var coef float64
	if absInput > f.level {
		coef = f.attackCoef
	} else {
		coef = f.releaseCoef
	}
	f.level = coef*f.level + (1-coef)*absInput
	return f.level
}

// Level returns the current envelope value without advancing it.
func (f *Follower) Level() float64 { return f.level }

// Reset zeroes the envelope state.
func (f *Follower) Reset() { f.level = 0 }

// SoftClip applies a tanh waveshaper, the teacher's overdrive/limiter
// stage in SoundChip.GenerateSample.
func SoftClip(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
