//go:build linux

package arena

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugepage-labs/blockcore/block"
)

func TestArenaGrowActivatesADescriptor(t *testing.T) {
	a := New(0, 4, 4, nil)
	defer a.Close()

	d, err := a.Grow(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, d.Address)
	assert.Equal(t, uint64(1), d.Epoch)
	assert.True(t, d.Empty())
}

func TestArenaOldestActiveOrdersByEpoch(t *testing.T) {
	a := New(0, 4, 4, nil)
	defer a.Close()

	first, err := a.Grow(context.Background())
	require.NoError(t, err)
	_, err = a.Grow(context.Background())
	require.NoError(t, err)

	oldest, ok := a.OldestActive()
	require.True(t, ok)
	assert.Same(t, first, oldest)
}

func TestArenaRetireEmptyRequiresEmptyBlock(t *testing.T) {
	a := New(0, 4, 4, nil)
	defer a.Close()

	d, err := a.Grow(context.Background())
	require.NoError(t, err)
	d.Reserve(1)

	ok, err := a.RetireEmpty(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, ok, "a block with a live reservation cannot be retired")

	d.Release(0, 1)
	ok, err = a.RetireEmpty(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, ok)

	_, stillActive := a.OldestActive()
	assert.False(t, stillActive)
}

func TestArenaRetireRecyclesDescriptorSlot(t *testing.T) {
	a := New(0, 4, 4, nil)
	defer a.Close()

	first, err := a.Grow(context.Background())
	require.NoError(t, err)
	ok, err := a.RetireEmpty(context.Background(), first)
	require.NoError(t, err)
	require.True(t, ok)
	retiredGen := first.Generation

	second, err := a.Grow(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second, "an idle descriptor slot is reused before a new one is mapped")
	assert.Equal(t, retiredGen, second.Generation, "reusing an idle slot preserves its bumped generation")
}

func TestArenaExtentLifecycle(t *testing.T) {
	a := New(0, 4, 4, nil)
	defer a.Close()

	d, err := a.Grow(context.Background())
	require.NoError(t, err)

	pageIndex := d.Reserve(1)
	addr := d.Address + uintptr(pageIndex)*block.PageSize

	sizeClass, ok := block.SizeClassForObject(64)
	require.True(t, ok)

	ext, err := a.NewSlabExtent(addr, block.PageSize, d, sizeClass, 64)
	require.NoError(t, err)

	got, ok := a.Lookup(addr + 8)
	require.True(t, ok)
	assert.Same(t, ext, got)

	a.FreeExtent(ext)
	_, ok = a.Lookup(addr + 8)
	assert.False(t, ok)

	assert.True(t, d.Empty(), "FreeExtent releases the extent's pages via its Hpd back-reference")
}
