// Package transport expands a declarative bar/step pattern description
// into an absolute-sample-time Command list, the deterministic
// sequencer half of spec.md 4.6. It holds no state of its own and
// performs no I/O — grounded on the teacher's ahx_replayer.go tick
// stepper, which walks the same kind of bar/row/tempo structure into a
// concrete per-row timeline, generalized here from fixed 50Hz replay
// ticks to an arbitrary sample-rate, bar-relative schedule.
package transport

import (
	"math"
	"sort"

	"github.com/nyquistlabs/rackengine/internal/command"
)

// TempoRamp changes the active bpm starting at Bar (inclusive).
type TempoRamp struct {
	Bar int
	BPM float64
}

// Lock is a per-step parameter event layered onto a Pattern.
type Lock struct {
	Step    int
	ParamID uint16
	Value   float64
	RampMs  float64
}

// Pattern is one node's step sequence: each rune in Steps is 'x' for a
// trigger, anything else (conventionally '.') for a rest. Steps wraps
// if shorter than Resolution steps-per-bar.
type Pattern struct {
	NodeID string
	Steps  string
	Locks  []Lock
}

// Spec is the full declarative transport description, expanded once
// into a Command list by Generate.
type Spec struct {
	BPM           float64
	LengthBars    int
	Resolution    int
	SwingPercent  float64
	SwingExponent float64
	TempoRamps    []TempoRamp
	Patterns      []Pattern
}

// Generate expands spec into a sample-time-sorted Command list at
// sampleRate, per spec.md 4.6's algorithm.
func Generate(spec Spec, sampleRate float64) []command.Command {
	if spec.Resolution <= 0 || spec.LengthBars <= 0 {
		return nil
	}
	swingExp := spec.SwingExponent
	if swingExp == 0 {
		swingExp = 1
	}

	ramps := append([]TempoRamp(nil), spec.TempoRamps...)
	sort.Slice(ramps, func(i, j int) bool { return ramps[i].Bar < ramps[j].Bar })

	bpmAtBar := func(bar int) float64 {
		bpm := spec.BPM
		for _, r := range ramps {
			if r.Bar <= bar {
				bpm = r.BPM
			} else {
				break
			}
		}
		return bpm
	}

	var out []command.Command
	var barStartSample float64

	for bar := 0; bar < spec.LengthBars; bar++ {
		bpm := bpmAtBar(bar)
		if bpm <= 0 {
			bpm = 120
		}
		framesPerBar := roundHalf(4 * 60 / bpm * sampleRate)
		framesPerStep := framesPerBar / float64(spec.Resolution)

		for withinBar := 0; withinBar < spec.Resolution; withinBar++ {
			stepTime := barStartSample + float64(withinBar)*framesPerStep
			if withinBar%2 == 1 {
				effectivePercent := shapeSwing(spec.SwingPercent, swingExp)
				stepTime += roundHalf(framesPerStep * effectivePercent / 100 * 0.5)
			}
			sampleTime := uint64(roundHalf(math.Max(0, stepTime)))

			for _, p := range spec.Patterns {
				if len(p.Steps) == 0 {
					continue
				}
				idx := withinBar % len(p.Steps)
				if p.Steps[idx] == 'x' {
					out = append(out, command.Command{
						SampleTime: sampleTime,
						NodeID:     p.NodeID,
						Type:       command.Trigger,
					})
				}
				for _, lock := range p.Locks {
					if lock.Step != withinBar%spec.Resolution {
						continue
					}
					typ := command.SetParam
					if lock.RampMs > 0 {
						typ = command.SetParamRamp
					}
					out = append(out, command.Command{
						SampleTime: sampleTime,
						NodeID:     p.NodeID,
						Type:       typ,
						ParamID:    lock.ParamID,
						Value:      lock.Value,
						RampMs:     lock.RampMs,
					})
				}
			}
		}
		barStartSample += framesPerBar
	}

	sort.SliceStable(out, func(i, j int) bool { return command.Less(out[i], out[j]) })
	return out
}

// shapeSwing applies swingExponent to percent: identity at 1.0, softer
// (closer to zero) below 1.0 at low percentages, per spec.md 4.6.
func shapeSwing(percent, exponent float64) float64 {
	if percent <= 0 {
		return 0
	}
	return 100 * math.Pow(percent/100, 1/exponent)
}

func roundHalf(v float64) float64 {
	if v >= 0 {
		return math.Floor(v + 0.5)
	}
	return math.Ceil(v - 0.5)
}
