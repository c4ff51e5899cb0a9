package abuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResizeNeverShrinksCapacity confirms repeated Resize calls at a
// steady block size never reallocate the backing array, the basis for
// spec.md 8's no-allocation-in-steady-state property.
func TestResizeNeverShrinksCapacity(t *testing.T) {
	b := New(128, 2)
	backing := b.Data
	b.Resize(64, 2)
	require.Same(t, &backing[0], &b.Data[0], "shrinking should reuse the same backing array")
	b.Resize(128, 2)
	require.Same(t, &backing[0], &b.Data[0], "growing back to original size should reuse the same backing array")
}

func TestZeroClearsContents(t *testing.T) {
	b := New(4, 2)
	for i := range b.Data {
		b.Data[i] = 1
	}
	b.Zero()
	for _, v := range b.Data {
		require.Equal(t, float32(0), v)
	}
}

func TestFrameReturnsChannelSlice(t *testing.T) {
	b := New(2, 2)
	copy(b.Data, []float32{1, 2, 3, 4})
	require.Equal(t, []float32{1, 2}, b.Frame(0))
	require.Equal(t, []float32{3, 4}, b.Frame(1))
}

// TestAddScaledMatchingChannels verifies straight sample-for-sample
// accumulation when source and destination channel counts match.
func TestAddScaledMatchingChannels(t *testing.T) {
	dst := New(2, 2)
	src := New(2, 2)
	copy(src.Data, []float32{1, 2, 3, 4})
	dst.AddScaled(src, 0.5)
	require.Equal(t, []float32{0.5, 1, 1.5, 2}, dst.Data)
}

// TestAddScaledMonoBroadcast verifies a mono source is broadcast to
// every destination channel, per AudioBuffer's channel-adaptation
// contract.
func TestAddScaledMonoBroadcast(t *testing.T) {
	dst := New(2, 2)
	src := New(2, 1)
	copy(src.Data, []float32{1, 2})
	dst.AddScaled(src, 1.0)
	require.Equal(t, []float32{1, 1, 2, 2}, dst.Data)
}

// TestAddScaledZeroGainSkipsWork confirms a zero gain is a true no-op,
// not just a multiply-by-zero (so callers can cheaply skip silent
// edges without branching themselves).
func TestAddScaledZeroGainSkipsWork(t *testing.T) {
	dst := New(1, 1)
	dst.Data[0] = 7
	src := New(1, 1)
	src.Data[0] = 100
	dst.AddScaled(src, 0)
	require.Equal(t, float32(7), dst.Data[0])
}
