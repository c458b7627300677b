package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hugepage-labs/blockcore/block"
)

func newTestExtent(addr uintptr) *block.Extent {
	ext := &block.Extent{}
	block.NewLargeExtent(ext, addr, block.PageSize, nil, 0, 0)
	return ext
}

func TestExtentIndexFindExactAndMissing(t *testing.T) {
	var x ExtentIndex
	a := newTestExtent(block.PageSize * 4)
	b := newTestExtent(block.PageSize * 9)
	x.Insert(a)
	x.Insert(b)

	got, ok := x.Find(block.PageSize * 4)
	assert.True(t, ok)
	assert.Same(t, a, got)

	_, ok = x.Find(block.PageSize * 7)
	assert.False(t, ok, "no extent covers an address between two single-page extents")
}

func TestExtentIndexFindWithinRange(t *testing.T) {
	var x ExtentIndex
	ext := &block.Extent{}
	block.NewLargeExtent(ext, block.PageSize*4, block.PageSize*3, nil, 0, 0)
	x.Insert(ext)

	got, ok := x.Find(block.PageSize*4 + 10)
	assert.True(t, ok)
	assert.Same(t, ext, got)

	_, ok = x.Find(block.PageSize * 7)
	assert.False(t, ok, "find is exclusive of the extent's end address")
}

func TestExtentIndexOrdersInsertionsByAddress(t *testing.T) {
	var x ExtentIndex
	third := newTestExtent(block.PageSize * 30)
	first := newTestExtent(block.PageSize * 10)
	second := newTestExtent(block.PageSize * 20)

	x.Insert(third)
	x.Insert(first)
	x.Insert(second)

	require := []uintptr{first.Addr, second.Addr, third.Addr}
	for i, ext := range x.extents {
		assert.Equal(t, require[i], ext.Addr)
	}
}

func TestExtentIndexRemove(t *testing.T) {
	var x ExtentIndex
	a := newTestExtent(block.PageSize * 1)
	b := newTestExtent(block.PageSize * 2)
	x.Insert(a)
	x.Insert(b)

	x.Remove(a.Addr)
	assert.Equal(t, 1, x.Len())

	_, ok := x.Find(a.Addr)
	assert.False(t, ok)

	got, ok := x.Find(b.Addr)
	assert.True(t, ok)
	assert.Same(t, b, got)
}

func TestExtentIndexRemoveMissingIsNoop(t *testing.T) {
	var x ExtentIndex
	a := newTestExtent(block.PageSize)
	x.Insert(a)

	x.Remove(block.PageSize * 99)
	assert.Equal(t, 1, x.Len())
}

func TestExtentIndexInsertRejectsDuplicateAddress(t *testing.T) {
	var x ExtentIndex
	a := newTestExtent(block.PageSize)
	b := newTestExtent(block.PageSize)
	x.Insert(a)

	assert.Panics(t, func() { x.Insert(b) })
}
