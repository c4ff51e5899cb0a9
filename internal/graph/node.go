// Package graph implements the per-rack audio graph: node topology,
// the Kahn level schedule, per-edge gain/port accumulation, mixer
// summing and soft clipping.
//
// The Node capability-set interface below adopts spec.md 9's
// re-architecture guidance directly: a small required interface plus
// narrow optional sub-interfaces. The Graph picks each node's
// processing call with a type switch on these interfaces once per node
// per segment, never per sample.
package graph

import "github.com/nyquistlabs/rackengine/internal/abuffer"

// ProcessContext is the per-segment tuple handed to every node call.
type ProcessContext struct {
	SampleRate float64
	Frames     int
	BlockStart uint64
}

// Command mirrors the scheduler's event shape without importing the
// command package, keeping Node's event-handling surface decoupled
// from queue/transport mechanics.
type Command struct {
	Type    CommandType
	ParamID uint16
	Value   float64
	RampMs  float64
}

type CommandType int

const (
	CmdTrigger CommandType = iota
	CmdSetParam
	CmdSetParamRamp
)

// Node is the capability every graph participant implements.
type Node interface {
	Prepare(sampleRate float64, maxBlockFrames int)
	Reset()
	HandleEvent(cmd Command)
	LatencySamples() int
}

// Generator writes its own output, ignoring any input buffers routed
// to it (oscillator, noise, chip and subtractive voices).
type Generator interface {
	Node
	Process(ctx ProcessContext, out *abuffer.Buffer)
}

// Insert transforms a buffer in place (delay, reverb, wiretap).
type Insert interface {
	Node
	ProcessInPlace(ctx ProcessContext, io *abuffer.Buffer)
}

// SidechainInsert is an Insert that also accepts a separate detector
// input (compressor, spectral ducker).
type SidechainInsert interface {
	Node
	ApplySidechain(ctx ProcessContext, main, sidechain *abuffer.Buffer)
}

// Meter copies input to output and snapshots peak/RMS, observable via
// atomic loads from any thread.
type Meter interface {
	Node
	ProcessMeter(ctx ProcessContext, io *abuffer.Buffer)
	Peak() float32
	RMS() float32
}

// Kind reports which capability a node primarily offers, used only for
// diagnostics and spec-driven dispatch bookkeeping — never for a
// per-sample branch.
type Kind int

const (
	KindGenerator Kind = iota
	KindInsert
	KindSidechainInsert
	KindMeter
	KindMixer
)

func classify(n Node) Kind {
	switch n.(type) {
	case SidechainInsert:
		return KindSidechainInsert
	case Meter:
		return KindMeter
	case Insert:
		return KindInsert
	case Generator:
		return KindGenerator
	default:
		return KindGenerator
	}
}
