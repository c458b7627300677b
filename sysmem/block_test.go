//go:build linux

package sysmem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugepage-labs/blockcore/block"
)

func TestAllocBlockIsHugePageAligned(t *testing.T) {
	addr, err := AllocBlock()
	require.NoError(t, err)
	defer FreeBlock(addr)

	assert.Zero(t, addr%uintptr(block.HugePageSize), "block address must be huge-page aligned")
	assert.NotZero(t, addr)
}

func TestAllocBlockIsWritableAndZeroed(t *testing.T) {
	addr, err := AllocBlock()
	require.NoError(t, err)
	defer FreeBlock(addr)

	p := (*byte)(unsafe.Pointer(addr))
	assert.Equal(t, byte(0), *p, "fresh anonymous mapping starts zeroed")
	*p = 0xff
	assert.Equal(t, byte(0xff), *p)
}

func TestMultipleBlocksDoNotOverlap(t *testing.T) {
	a, err := AllocBlock()
	require.NoError(t, err)
	defer FreeBlock(a)

	b, err := AllocBlock()
	require.NoError(t, err)
	defer FreeBlock(b)

	assert.NotEqual(t, a, b)
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	assert.GreaterOrEqual(t, hi-lo, uintptr(block.HugePageSize))
}
