package graph

import (
	"math"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
)

// HandleEvent routes a node-targeted event by id. Unknown ids are
// silently dropped — the scheduler already resolved node existence
// when it built the per-block event list.
func (g *Graph) HandleEvent(nodeID string, cmd Command) {
	idx, ok := g.idToIdx[nodeID]
	if !ok {
		return
	}
	g.nodes[idx].node.HandleEvent(cmd)
}

// Process runs one segment through every node in dependency order,
// then computes the final mix into out. ctx.Frames must not exceed the
// maxBlockFrames given to Prepare. Node output buffers are only resized
// here, within the capacity Prepare reserved. This path still allocates
// on every call: processNode allocates a fresh port-sum buffer for each
// input port of every node with incoming edges, and a silent sidechain
// buffer for a sidechain insert with nothing wired to port 1; a cyclic
// graph also allocates its fallback order.
func (g *Graph) Process(ctx ProcessContext, out *abuffer.Buffer) {
	if !g.built {
		g.buildTopology()
	}

	for _, buf := range g.outputs {
		buf.Resize(ctx.Frames, buf.Channels)
		buf.Zero()
	}

	order := g.order()
	for _, idx := range order {
		g.processNode(ctx, idx)
	}

	g.mix(ctx, out)
}

func (g *Graph) processNode(ctx ProcessContext, idx int) {
	ne := g.nodes[idx]
	outBuf := g.outputs[idx]

	// Empty the per-port map; each port's sum buffer below is allocated
	// afresh for this node.
	for port := range g.portSumsBuf {
		delete(g.portSumsBuf, port)
	}
	for _, e := range g.upstream[idx] {
		dst := g.portSumsBuf[e.ToPort]
		if dst == nil {
			dst = abuffer.New(ctx.Frames, ne.channels)
			g.portSumsBuf[e.ToPort] = dst
		} else {
			dst.Resize(ctx.Frames, ne.channels)
		}
	}
	for port := range g.portSumsBuf {
		g.portSumsBuf[port].Zero()
	}
	for _, e := range g.upstream[idx] {
		src := g.outputs[e.FromIndex]
		g.portSumsBuf[e.ToPort].AddScaled(src, e.Gain)
	}

	switch n := ne.node.(type) {
	case SidechainInsert:
		port0 := g.portSumsBuf[0]
		if port0 != nil {
			copy(outBuf.Data, port0.Data)
		}
		sc := g.portSumsBuf[1]
		if sc == nil {
			sc = abuffer.New(ctx.Frames, ne.channels)
		}
		n.ApplySidechain(ctx, outBuf, sc)
	case Insert:
		port0 := g.portSumsBuf[0]
		if port0 != nil {
			copy(outBuf.Data, port0.Data)
		}
		n.ProcessInPlace(ctx, outBuf)
	case Meter:
		port0 := g.portSumsBuf[0]
		if port0 != nil {
			copy(outBuf.Data, port0.Data)
		}
		n.ProcessMeter(ctx, outBuf)
	case Generator:
		n.Process(ctx, outBuf)
	}
}

// mix computes the final session-wide output for this graph: dry taps
// plus per-node mixer gain (or 1.0 for unassigned sinks), then master
// gain and soft clip if a mixer is installed.
func (g *Graph) mix(ctx ProcessContext, out *abuffer.Buffer) {
	out.Resize(ctx.Frames, out.Channels)
	out.Zero()

	// Dry taps: edges with dryPercent > 0, suppressed if the source
	// also feeds the mixer directly (avoids double-counting).
	for _, e := range g.edges {
		if e.DryPercent <= 0 {
			continue
		}
		if g.isMixerInput[e.FromIndex] {
			continue
		}
		out.AddScaled(g.outputs[e.FromIndex], e.DryPercent/100)
	}

	for idx := range g.nodes {
		var nodeGain float32
		if g.isMixerInput[idx] {
			nodeGain = g.mixerGain[idx]
		} else if !g.hasDownstream[idx] {
			nodeGain = 1.0
		} else {
			continue
		}
		out.AddScaled(g.outputs[idx], nodeGain)
	}

	if g.mixer != nil {
		master := g.mixer.MasterPercent / 100
		for i := range out.Data {
			out.Data[i] *= master
		}
		if g.mixer.SoftClip {
			for i := range out.Data {
				out.Data[i] = softClipSample(out.Data[i])
			}
		}
	}
}

func softClipSample(x float32) float32 {
	// tanh soft clip, the teacher's own overdrive/limiter shape.
	return float32(math.Tanh(float64(x)))
}
