package dsp

import "math"

// FilterMode selects a StateVariableFilter's output tap.
type FilterMode int

const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// StateVariableFilter is a Chamberlin-topology two-pole filter with
// simultaneous low/high/band/notch outputs and a resonance control,
// grounded on the teacher's applyFilter stage (sid_engine.go) which
// drives the same four SID-style filter modes from one state pair.
type StateVariableFilter struct {
	sampleRate float64
	low, band  float64
}

// Reset zeroes the filter's internal state.
func (f *StateVariableFilter) Reset() {
	f.low, f.band = 0, 0
}

// SetSampleRate must be called once before Process.
func (f *StateVariableFilter) SetSampleRate(sampleRate float64) {
	f.sampleRate = sampleRate
}

// Process runs one sample through the filter at the given cutoff (Hz)
// and resonance (0..1, where 1 approaches self-oscillation) and returns
// the tap selected by mode.
func (f *StateVariableFilter) Process(x float64, cutoffHz, resonance float64, mode FilterMode) float64 {
	if cutoffHz <= 0 {
		cutoffHz = 20
	}
	nyquist := f.sampleRate / 2
	if cutoffHz > nyquist*0.99 {
		cutoffHz = nyquist * 0.99
	}
	freqCoef := 2 * math.Sin(math.Pi*cutoffHz/f.sampleRate)
	damping := clampDamping(1 - resonance)

	high := x - f.low - damping*f.band
	f.band += freqCoef * high
	f.low += freqCoef * f.band

	switch mode {
	case FilterHighpass:
		return high
	case FilterBandpass:
		return f.band
	case FilterNotch:
		return high + f.low
	default:
		return f.low
	}
}

func clampDamping(d float64) float64 {
	if d < 0.02 {
		return 0.02
	}
	if d > 2 {
		return 2
	}
	return d
}
