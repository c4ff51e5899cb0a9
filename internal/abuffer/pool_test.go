package abuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeaseReturnsZeroedBuffer(t *testing.T) {
	p := NewPool(2)
	b := p.Lease(4)
	require.Equal(t, 4, b.Frames)
	require.Equal(t, 2, b.Channels)
	for _, v := range b.Data {
		require.Equal(t, float32(0), v)
	}
}

// TestReleaseAllReturnsEveryLoanedBuffer checks that ReleaseAll drains
// every outstanding loan regardless of how many Lease calls were made,
// matching the "guaranteed released on all exit paths" contract.
func TestReleaseAllReturnsEveryLoanedBuffer(t *testing.T) {
	p := NewPool(1)
	a := p.Lease(8)
	b := p.Lease(8)
	a.Data[0] = 9
	b.Data[0] = 9

	p.ReleaseAll()

	c := p.Lease(8)
	d := p.Lease(8)
	require.Equal(t, float32(0), c.Data[0])
	require.Equal(t, float32(0), d.Data[0])
	require.Len(t, p.free, 0)
}

func TestReleaseOfUnknownBufferIsNoop(t *testing.T) {
	p := NewPool(1)
	stray := New(4, 1)
	p.Release(stray) // must not panic or corrupt the free list
	require.Len(t, p.free, 0)
}
