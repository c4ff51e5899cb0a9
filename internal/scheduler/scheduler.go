// Package scheduler drives a graph.Graph from a command.Queue one
// audio block at a time, splitting each block at event boundaries so
// every command takes effect on the exact sample it names. Grounded on
// the teacher's audio_chip.go Tick loop, which also advances a sample
// counter in lockstep with register writes latched between chip ticks.
package scheduler

import (
	"sort"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/command"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// Graph is the subset of *graph.Graph the scheduler drives, narrowed
// to ease testing with a fake.
type Graph interface {
	HandleEvent(nodeID string, cmd graph.Command)
	Process(ctx graph.ProcessContext, out *abuffer.Buffer)
}

// Scheduler owns the sample counter and the scratch event vector
// reused across blocks to avoid per-block allocation.
type Scheduler struct {
	SampleRate float64

	sampleCounter uint64
	scratch       []command.Command
	splits        []int
}

// New creates a Scheduler starting at sample 0.
func New(sampleRate float64) *Scheduler {
	return &Scheduler{SampleRate: sampleRate}
}

// SampleCounter returns the current absolute sample position.
func (s *Scheduler) SampleCounter() uint64 { return s.sampleCounter }

// Reset rewinds the sample counter to 0.
func (s *Scheduler) Reset() { s.sampleCounter = 0 }

// RunBlock drains q up to the block's cutoff, applies events at their
// exact in-block offsets and renders frames of audio into out via g,
// per spec.md 4.5's five-step algorithm.
func (s *Scheduler) RunBlock(g Graph, q *command.Queue, frames int, out *abuffer.Buffer) {
	blockStart := s.sampleCounter
	cutoff := blockStart + uint64(frames)

	s.scratch = q.DrainUpTo(cutoff, s.scratch[:0])
	sort.SliceStable(s.scratch, func(i, j int) bool { return command.Less(s.scratch[i], s.scratch[j]) })
	s.scratch = dedup(s.scratch)

	s.splits = s.splits[:0]
	s.splits = append(s.splits, 0, frames)
	for _, c := range s.scratch {
		off := int(c.SampleTime - blockStart)
		if off > 0 && off < frames {
			s.splits = append(s.splits, off)
		}
	}
	s.splits = uniqueSorted(s.splits)

	for i := 0; i+1 < len(s.splits); i++ {
		a, b := s.splits[i], s.splits[i+1]
		absTime := blockStart + uint64(a)

		for _, c := range s.scratch {
			if c.SampleTime != absTime {
				continue
			}
			if c.Type == command.SetParam || c.Type == command.SetParamRamp {
				g.HandleEvent(c.NodeID, toGraphCommand(c))
			}
		}
		for _, c := range s.scratch {
			if c.SampleTime != absTime {
				continue
			}
			if c.Type == command.Trigger {
				g.HandleEvent(c.NodeID, toGraphCommand(c))
			}
		}

		segCtx := graph.ProcessContext{SampleRate: s.SampleRate, Frames: b - a, BlockStart: blockStart + uint64(a)}
		segOut := sliceBuffer(out, a, b)
		g.Process(segCtx, segOut)
	}

	s.sampleCounter = cutoff
}

func toGraphCommand(c command.Command) graph.Command {
	var t graph.CommandType
	switch c.Type {
	case command.Trigger:
		t = graph.CmdTrigger
	case command.SetParamRamp:
		t = graph.CmdSetParamRamp
	default:
		t = graph.CmdSetParam
	}
	return graph.Command{Type: t, ParamID: c.ParamID, Value: c.Value, RampMs: c.RampMs}
}

// dedup drops exact duplicates per spec.md 4.5 (same time, node, type,
// paramId) after s.scratch has already been sorted.
func dedup(cmds []command.Command) []command.Command {
	if len(cmds) == 0 {
		return cmds
	}
	out := cmds[:1]
	for _, c := range cmds[1:] {
		if command.Equal(out[len(out)-1], c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func uniqueSorted(xs []int) []int {
	sort.Ints(xs)
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// sliceBuffer returns a *abuffer.Buffer view over out's frames [a,b),
// sharing storage so RunBlock's per-segment Process call writes
// straight into the caller's buffer with no copy.
func sliceBuffer(out *abuffer.Buffer, a, b int) *abuffer.Buffer {
	start := a * out.Channels
	end := b * out.Channels
	return &abuffer.Buffer{Frames: b - a, Channels: out.Channels, Data: out.Data[start:end]}
}
