package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/command"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// toggleGenerator writes 1.0 once triggered, 0.0 otherwise -- just
// enough state to check that a Rack feeds and applies commands.
type toggleGenerator struct {
	on bool
}

func (g *toggleGenerator) Prepare(float64, int) {}
func (g *toggleGenerator) Reset()               { g.on = false }
func (g *toggleGenerator) HandleEvent(cmd graph.Command) {
	if cmd.Type == graph.CmdTrigger {
		g.on = true
	}
}
func (g *toggleGenerator) LatencySamples() int { return 0 }
func (g *toggleGenerator) Process(ctx graph.ProcessContext, out *abuffer.Buffer) {
	var v float32
	if g.on {
		v = 1
	}
	for i := range out.Data {
		out.Data[i] = v
	}
}

func newTestRack(id string) (*Rack, *toggleGenerator) {
	g := graph.New(1, nil)
	gen := &toggleGenerator{}
	g.AddNode("gen", gen, 1)
	g.Prepare(48000, 64)
	return NewRack(id, g, 48000, 1, 64), gen
}

func TestRackAppliesQueuedTriggerBeforeItsSegment(t *testing.T) {
	r, _ := newTestRack("a")
	r.SetCommands([]command.Command{{SampleTime: 2, NodeID: "gen", Type: command.Trigger}})

	out := abuffer.New(4, 1)
	r.RenderBlock(4, out, true)
	require.Equal(t, []float32{0, 0, 1, 1}, out.Data)
}

func TestRackInactiveProducesSilenceButAdvancesCounter(t *testing.T) {
	r, _ := newTestRack("a")
	r.SetCommands([]command.Command{{SampleTime: 0, NodeID: "gen", Type: command.Trigger}})

	out := abuffer.New(4, 1)
	r.RenderBlock(4, out, false)
	require.Equal(t, []float32{0, 0, 0, 0}, out.Data)
	require.Equal(t, uint64(4), r.sched.SampleCounter())
}

func TestRackActiveReflectsMuteAndSolo(t *testing.T) {
	r, _ := newTestRack("a")
	require.True(t, r.Active(false))
	require.False(t, r.Active(true), "non-solo rack inactive when another rack is soloed")

	r.Solo = true
	require.True(t, r.Active(true))

	r.Mute = true
	require.False(t, r.Active(false), "muted rack is always inactive regardless of solo")
}

// counterGenerator writes its trigger count so repeated triggers (e.g.
// from a looped command list) are individually observable.
type counterGenerator struct {
	count float32
}

func (g *counterGenerator) Prepare(float64, int) {}
func (g *counterGenerator) Reset()               { g.count = 0 }
func (g *counterGenerator) HandleEvent(cmd graph.Command) {
	if cmd.Type == graph.CmdTrigger {
		g.count++
	}
}
func (g *counterGenerator) LatencySamples() int { return 0 }
func (g *counterGenerator) Process(ctx graph.ProcessContext, out *abuffer.Buffer) {
	for i := range out.Data {
		out.Data[i] = g.count
	}
}

func TestRackLoopsCommandsWithSampleTimeOffset(t *testing.T) {
	g := graph.New(1, nil)
	gen := &counterGenerator{}
	g.AddNode("gen", gen, 1)
	g.Prepare(48000, 64)
	r := NewRack("a", g, 48000, 1, 64)

	r.Loop = true
	r.LoopLengthSamples = 4
	r.SetCommands([]command.Command{{SampleTime: 0, NodeID: "gen", Type: command.Trigger}})

	out := abuffer.New(8, 1)
	r.RenderBlock(8, out, true)
	// First loop pass triggers at sample 0 (count -> 1); the second
	// pass (shifted by LoopLengthSamples=4) re-triggers at sample 4
	// (count -> 2).
	require.Equal(t, []float32{1, 1, 1, 1, 2, 2, 2, 2}, out.Data)
}
