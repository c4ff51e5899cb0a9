package session

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// Bus sums its routed rack inputs and then runs an ordered chain of
// insert-capable nodes (delay, reverb, compressor, spectral ducker)
// over the result, per spec.md 4.7's "for each bus, apply inserts in
// order" step.
type Bus struct {
	ID      string
	Inserts []graph.Node // each also implements Insert or SidechainInsert

	SidechainSourceBus string // which bus's pre-insert sum feeds a SidechainInsert, if any

	scratch   *abuffer.Buffer
	sidechain *abuffer.Buffer
}

// NewBus creates an empty bus.
func NewBus(id string) *Bus {
	return &Bus{ID: id}
}

func (b *Bus) ensureBuffers(frames, channels int) {
	if b.scratch == nil {
		b.scratch = abuffer.New(frames, channels)
		b.sidechain = abuffer.New(frames, channels)
		return
	}
	b.scratch.Resize(frames, channels)
	b.sidechain.Resize(frames, channels)
}

// Sum adds src scaled by gain into the bus's accumulator for this
// block. Call Reset first, then Sum once per routed rack, then Process.
func (b *Bus) Sum(src *abuffer.Buffer, gain float32) {
	b.scratch.AddScaled(src, gain)
}

// Reset clears the bus's accumulator ahead of a new block.
func (b *Bus) Reset(frames, channels int) {
	b.ensureBuffers(frames, channels)
	b.scratch.Zero()
}

// SetSidechain installs the pre-insert signal a SidechainInsert in
// this bus's chain should detect against (built by the session from
// the buses/racks SidechainSourceBus names).
func (b *Bus) SetSidechain(src *abuffer.Buffer) {
	copy(b.sidechain.Data, src.Data)
}

// Process runs the insert chain over the bus's summed signal and
// returns the result buffer (owned by the bus; copy it out before the
// next block).
func (b *Bus) Process(ctx graph.ProcessContext) *abuffer.Buffer {
	for _, n := range b.Inserts {
		switch ins := n.(type) {
		case graph.SidechainInsert:
			ins.ApplySidechain(ctx, b.scratch, b.sidechain)
		case graph.Insert:
			ins.ProcessInPlace(ctx, b.scratch)
		case graph.Meter:
			ins.ProcessMeter(ctx, b.scratch)
		}
	}
	return b.scratch
}
