package nodes

import (
	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// WiretapNode is a pass-through insert that taps its input into an
// in-memory capture buffer without altering the signal, letting a
// session attach a debug/offline recording point anywhere in a graph.
// Grounded on the teacher's debug-capture convention of a late-flushed
// accumulation buffer; the actual file write is left to the
// pcmwrite/cmd collaborator, which can hand WiretapNode.Captured
// straight to pcmwrite.WriteWAV once a render completes.
type WiretapNode struct {
	Enabled bool

	channels int
	captured []float32
}

// NewWiretapNode creates an enabled wiretap with an empty capture
// buffer.
func NewWiretapNode() *WiretapNode {
	return &WiretapNode{Enabled: true}
}

func (w *WiretapNode) Prepare(sampleRate float64, maxBlockFrames int) {
	w.channels = 0
	w.captured = w.captured[:0]
}

func (w *WiretapNode) Reset() {
	w.channels = 0
	w.captured = w.captured[:0]
}

func (w *WiretapNode) LatencySamples() int { return 0 }

func (w *WiretapNode) HandleEvent(graph.Command) {}

// ProcessInPlace appends io's current contents to the capture buffer
// and leaves io untouched — a wiretap never affects the signal it
// observes.
func (w *WiretapNode) ProcessInPlace(ctx graph.ProcessContext, io *abuffer.Buffer) {
	if !w.Enabled {
		return
	}
	if w.channels == 0 {
		w.channels = io.Channels
	}
	w.captured = append(w.captured, io.Data[:ctx.Frames*io.Channels]...)
}

// Captured returns the interleaved samples recorded so far, in the
// channel count of the first block processed.
func (w *WiretapNode) Captured() []float32 { return w.captured }

// Channels reports the interleaved channel count of the captured
// buffer, or 0 if nothing has been captured yet.
func (w *WiretapNode) Channels() int { return w.channels }
