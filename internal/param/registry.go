// Package param implements the per-node parameter registry: a
// fixed-capacity table of smoothed scalar parameters addressed by a
// 16-bit ParamId, with sample-accurate step/linear/exponential ramps.
//
// Smoothing kind is a tagged value rather than an interface so the
// per-sample advance in Next is a plain switch, never a virtual call.
package param

import "math"

// ID identifies a parameter uniquely within a node type.
type ID = uint16

// Kind selects the interpolation law used by rampTo/Next.
type Kind int

const (
	Step Kind = iota
	Linear
	Expo
)

// minTauMs is the floor applied to any exponential/ramp time constant,
// per spec.md 4.1 ("tauMs clamped to at least 100 microseconds").
const minTauMs = 0.1

type entry struct {
	id             ID
	current        float64
	target         float64
	deltaPerSample float64 // Linear: per-sample increment. Expo: per-sample decay coefficient.
	samplesLeft    int
	kind           Kind
	present        bool
}

// Registry is a fixed-capacity table of parameters. Capacity is set at
// construction and never grows; ensureParam beyond capacity is a
// no-op, matching the "unknown ids are no-ops" contract for callers
// that probe optional parameters.
type Registry struct {
	sampleRate float64
	slots      []entry
	index      map[ID]int
}

// New creates a Registry with room for capacity distinct parameter ids.
func New(sampleRate float64, capacity int) *Registry {
	return &Registry{
		sampleRate: sampleRate,
		slots:      make([]entry, 0, capacity),
		index:      make(map[ID]int, capacity),
	}
}

func (r *Registry) slot(id ID) *entry {
	i, ok := r.index[id]
	if !ok {
		return nil
	}
	return &r.slots[i]
}

// EnsureParam inserts id with the given initial value if absent, up to
// the registry's capacity bound. No-op if already present or if the
// registry is full.
func (r *Registry) EnsureParam(id ID, initial float64) {
	if _, ok := r.index[id]; ok {
		return
	}
	if len(r.slots) == cap(r.slots) {
		return
	}
	r.slots = append(r.slots, entry{
		id:      id,
		current: initial,
		target:  initial,
		present: true,
	})
	r.index[id] = len(r.slots) - 1
}

// SetSmoothing sets the interpolation kind used by future rampTo calls.
func (r *Registry) SetSmoothing(id ID, kind Kind) {
	if e := r.slot(id); e != nil {
		e.kind = kind
	}
}

// SetImmediate sets current and target to value and clears any
// in-flight ramp. Writes to unknown ids are no-ops.
func (r *Registry) SetImmediate(id ID, value float64) {
	e := r.slot(id)
	if e == nil {
		return
	}
	e.current = value
	e.target = value
	e.samplesLeft = 0
	e.deltaPerSample = 0
}

// RampTo schedules a ramp to target over rampMs milliseconds. A
// rampMs of zero (or a computed sample count of zero) behaves like
// SetImmediate.
func (r *Registry) RampTo(id ID, target float64, rampMs float64) {
	e := r.slot(id)
	if e == nil {
		return
	}
	samples := int(roundHalfAwayFromZero(rampMs * r.sampleRate / 1000))
	if samples <= 0 {
		e.current = target
		e.target = target
		e.samplesLeft = 0
		e.deltaPerSample = 0
		return
	}
	e.target = target
	e.samplesLeft = samples
	switch e.kind {
	case Linear:
		e.deltaPerSample = (target - e.current) / float64(samples)
	case Expo:
		tauMs := rampMs / 2
		if tauMs < minTauMs {
			tauMs = minTauMs
		}
		tauSamples := tauMs * r.sampleRate / 1000
		// Coefficient such that after tauSamples samples the
		// remaining distance to target has decayed to 1/e, i.e.
		// ~63% of the distance has been covered — matches the
		// "~63% reached in rampMs/2" contract in spec.md 4.2.
		e.deltaPerSample = expCoefficient(tauSamples)
	default: // Step
		e.current = target
		e.samplesLeft = 0
	}
}

// Next advances the parameter one sample and returns the new current
// value. Unknown ids yield 0.
func (r *Registry) Next(id ID) float64 {
	e := r.slot(id)
	if e == nil {
		return 0
	}
	if e.samplesLeft <= 0 {
		return e.current
	}
	switch e.kind {
	case Linear:
		e.current += e.deltaPerSample
		e.samplesLeft--
		if e.samplesLeft <= 0 {
			e.current = e.target
		}
	case Expo:
		e.current += (e.target - e.current) * e.deltaPerSample
		e.samplesLeft--
		if e.samplesLeft <= 0 {
			e.current = e.target
		}
	default:
		e.current = e.target
		e.samplesLeft = 0
	}
	return e.current
}

// Current reads the parameter without advancing it. Unknown ids yield 0.
func (r *Registry) Current(id ID) float64 {
	e := r.slot(id)
	if e == nil {
		return 0
	}
	return e.current
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	i := float64(int64(v))
	if v-i >= 0.5 {
		return i + 1
	}
	return i
}

// expCoefficient returns the per-sample interpolation factor k such
// that repeatedly applying current += (target-current)*k for
// tauSamples samples leaves ~1/e of the original distance remaining.
func expCoefficient(tauSamples float64) float64 {
	if tauSamples < 1e-6 {
		return 1
	}
	// (1-k)^tauSamples = 1/e  =>  k = 1 - e^(-1/tauSamples)
	return 1 - math.Exp(-1/tauSamples)
}
