//go:build linux

package sysmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugepage-labs/blockcore/block"
)

func TestSlotPoolGetPutRecycles(t *testing.T) {
	p := NewSlotPool[block.Descriptor](4)
	defer p.Close()

	a, err := p.Get()
	require.NoError(t, err)
	a.Epoch = 7

	p.Put(a)

	b, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, a, b, "a freed slot is reused before a new chunk is mapped")
}

func TestSlotPoolGrowsAcrossChunks(t *testing.T) {
	p := NewSlotPool[block.Descriptor](2)
	defer p.Close()

	seen := make(map[*block.Descriptor]bool)
	for i := 0; i < 5; i++ {
		slot, err := p.Get()
		require.NoError(t, err)
		assert.False(t, seen[slot], "every live slot must have a distinct address")
		seen[slot] = true
	}
}

func TestSlotPoolCloseInvalidatesMappings(t *testing.T) {
	p := NewSlotPool[block.Extent](4)
	_, err := p.Get()
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
