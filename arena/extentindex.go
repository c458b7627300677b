// Package arena ties block's page-granular primitives to real OS memory:
// it grows blocks by calling sysmem, hands out Descriptor and Extent
// storage from sysmem.SlotPool, and keeps two lookup structures over the
// result — an epoch-ordered heap for oldest-block selection and an
// address-ordered index for locating the extent a pointer falls in.
package arena

import (
	"sort"

	"github.com/hugepage-labs/blockcore/block"
)

// ExtentIndex keeps live extents sorted by address for O(log n) lookup
// by containing pointer. This generalizes the teacher's addrRanges
// (mranges.go): that type coalesces adjacent free ranges because it
// tracks unclaimed address space, where this index tracks claimed
// extents one-for-one and never merges two neighbors into one entry.
//
// The zero value is a ready, empty index.
type ExtentIndex struct {
	extents []*block.Extent // sorted by Addr, ascending
}

// findSucc returns the index of the first extent whose Addr is greater
// than addr, or len(extents) if none is. Mirrors addrRanges.findSucc's
// contract but over a slice of pointers ordered by CompareExtentAddrRange
// rather than over addrRange values compared by base.
func (x *ExtentIndex) findSucc(addr uintptr) int {
	return sort.Search(len(x.extents), func(i int) bool {
		return x.extents[i].Addr > addr
	})
}

// Find returns the extent containing ptr, if any, by binary-searching
// with block.CompareExtentAddrRange: extents are sorted and never
// overlap, so that comparator's sign is monotonic across the slice,
// landing sort.Search on the one extent that could possibly contain ptr.
func (x *ExtentIndex) Find(ptr uintptr) (*block.Extent, bool) {
	i := sort.Search(len(x.extents), func(i int) bool {
		return block.CompareExtentAddrRange(ptr, x.extents[i]) <= 0
	})
	if i < len(x.extents) && block.CompareExtentAddrRange(ptr, x.extents[i]) == 0 {
		return x.extents[i], true
	}
	return nil, false
}

// Insert adds ext to the index. ext.Addr must not already be present.
func (x *ExtentIndex) Insert(ext *block.Extent) {
	i := x.findSucc(ext.Addr)
	if i > 0 {
		prev := x.extents[i-1]
		if prev.Addr == ext.Addr {
			panic("arena: extent index already has an entry at this address")
		}
	}
	x.extents = append(x.extents, nil)
	copy(x.extents[i+1:], x.extents[i:])
	x.extents[i] = ext
}

// Remove deletes the extent at exactly addr. It is a no-op if none
// exists there.
func (x *ExtentIndex) Remove(addr uintptr) {
	i := x.findSucc(addr)
	if i == 0 || x.extents[i-1].Addr != addr {
		return
	}
	x.extents = append(x.extents[:i-1], x.extents[i:]...)
}

// Len reports the number of extents currently indexed.
func (x *ExtentIndex) Len() int { return len(x.extents) }
