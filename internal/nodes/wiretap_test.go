package nodes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
	"github.com/nyquistlabs/rackengine/internal/graph"
)

// TestWiretapNodeCapturesWithoutAlteringSignal checks the tap records
// every block's samples while leaving the buffer it observes
// untouched.
func TestWiretapNodeCapturesWithoutAlteringSignal(t *testing.T) {
	w := NewWiretapNode()
	w.Prepare(48000, 64)

	ctx := graph.ProcessContext{SampleRate: 48000, Frames: 2}
	buf := abuffer.New(2, 2)
	buf.Data[0], buf.Data[1], buf.Data[2], buf.Data[3] = 0.1, -0.2, 0.3, -0.4

	w.ProcessInPlace(ctx, buf)
	require.Equal(t, []float32{0.1, -0.2, 0.3, -0.4}, buf.Data, "a wiretap must never alter the signal it observes")

	buf.Data[0], buf.Data[1], buf.Data[2], buf.Data[3] = 0.5, 0.6, 0.7, 0.8
	w.ProcessInPlace(ctx, buf)

	require.Equal(t, []float32{0.1, -0.2, 0.3, -0.4, 0.5, 0.6, 0.7, 0.8}, w.Captured())
	require.Equal(t, 2, w.Channels())
}

// TestWiretapNodeDisabledCapturesNothing checks Enabled=false is a
// true no-op, including leaving Channels() unset.
func TestWiretapNodeDisabledCapturesNothing(t *testing.T) {
	w := NewWiretapNode()
	w.Enabled = false
	w.Prepare(48000, 64)

	ctx := graph.ProcessContext{SampleRate: 48000, Frames: 1}
	buf := abuffer.New(1, 1)
	buf.Data[0] = 1.0
	w.ProcessInPlace(ctx, buf)

	require.Empty(t, w.Captured())
	require.Equal(t, 0, w.Channels())
}

// TestWiretapNodeResetClearsCapture verifies Reset drops prior capture
// state, letting a rack reuse the node across renders.
func TestWiretapNodeResetClearsCapture(t *testing.T) {
	w := NewWiretapNode()
	w.Prepare(48000, 64)

	ctx := graph.ProcessContext{SampleRate: 48000, Frames: 1}
	buf := abuffer.New(1, 1)
	buf.Data[0] = 1.0
	w.ProcessInPlace(ctx, buf)
	require.NotEmpty(t, w.Captured())

	w.Reset()
	require.Empty(t, w.Captured())
	require.Equal(t, 0, w.Channels())
}
