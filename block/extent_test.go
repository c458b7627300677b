package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario E from spec.md §8.
func TestScenarioE_SlabAllocateFree(t *testing.T) {
	var e Extent
	NewSlabExtent(&e, PageSize, PageSize, nil, 1, 0, 0, PagesInBlock)

	require.Equal(t, 0, e.Allocate())
	require.Equal(t, 1, e.Allocate())
	require.Equal(t, 2, e.Allocate())
	assert.Equal(t, 509, e.FreeSlots())

	e.Free(1)
	assert.Equal(t, 510, e.FreeSlots())

	require.Equal(t, 1, e.Allocate(), "setFirst reclaims the lowest clear slot")
	require.Equal(t, 3, e.Allocate(), "slot 2 is still live")
	assert.Equal(t, 508, e.FreeSlots())
}

// Scenario F from spec.md §8.
func TestScenarioF_ContainsAddressRange(t *testing.T) {
	const base uintptr = 0x56789abcd000
	const size uintptr = 13 * PageSize

	var e Extent
	NewLargeExtent(&e, base, size, nil, 1, 0)

	for i := uintptr(0); i < size; i++ {
		require.True(t, e.Contains(base+i), "offset %d", i)
	}
	assert.False(t, e.Contains(base-1))
	assert.False(t, e.Contains(base+size))
}

func TestExtentBitFieldsRoundTrip(t *testing.T) {
	var e Extent
	NewSlabExtent(&e, PageSize, PageSize, nil, 7, (1<<22)-1, 63, 100)

	assert.True(t, e.IsSlab())
	assert.Equal(t, (1<<22)-1, e.ArenaIndex())
	assert.Equal(t, SizeClass(63), e.SizeClass())
	assert.Equal(t, 100, e.FreeSlots())
}

func TestLargeExtentIsNotSlab(t *testing.T) {
	var e Extent
	NewLargeExtent(&e, PageSize, 4*PageSize, nil, 1, 3)
	assert.False(t, e.IsSlab())
	assert.Equal(t, 3, e.ArenaIndex())
}

func TestContainsPointersFollowsArenaParity(t *testing.T) {
	var even, odd Extent
	NewLargeExtent(&even, PageSize, PageSize, nil, 1, 4)
	NewLargeExtent(&odd, PageSize*2, PageSize, nil, 1, 5)
	assert.False(t, even.ContainsPointers())
	assert.True(t, odd.ContainsPointers())
}

func TestNewExtentRejectsMisalignedAddress(t *testing.T) {
	var e Extent
	assert.Panics(t, func() { NewLargeExtent(&e, 1, PageSize, nil, 1, 0) })
}
