// Package block implements the page-granular arena allocator core: a
// BlockDescriptor that owns one huge-page-sized region and tracks page
// occupancy with a bitmap, plus the Extent metadata that describes one
// live allocation carved out of a block.
//
// A Descriptor is single-owner: no primitive may be called concurrently
// on the same Descriptor (spec §5). Callers (arenas) serialize access,
// typically with a per-arena lock. No primitive performs I/O, allocates
// memory, or blocks.
package block

import (
	"github.com/hugepage-labs/blockcore/internal/contract"
	"github.com/hugepage-labs/blockcore/pagebitmap"
)

const (
	// PageSize is the OS's native page size.
	PageSize = 4096
	// PagesInBlock is the number of OS pages in one huge page.
	PagesInBlock = pagebitmap.Bits
	// HugePageSize is the size in bytes of the region one Descriptor owns.
	HugePageSize = PagesInBlock * PageSize
)

// HeapNode and TreeNode are opaque, fixed-size storage reserved inside a
// Descriptor for an external pairing heap and an external ordered tree
// (spec §6, §9). block neither constructs nor traverses these nodes; it
// only guarantees the storage is stable for the lifetime of the
// Descriptor. Callers that embed these must never alias the bytes with
// any other field.
type HeapNode struct{ _ [16]byte }
type TreeNode struct{ _ [16]byte }

// Descriptor owns one 2 MiB huge-page region, divided into PagesInBlock
// pages tracked by AllocatedPages.
type Descriptor struct {
	// Address is the base virtual address of the huge page. It is zero
	// for a descriptor sitting in the unused pool.
	Address uintptr

	// Epoch is a monotonic timestamp assigned when the block is placed
	// into service, used to order blocks "oldest first" in an external
	// min-heap.
	Epoch uint64

	// Generation is incremented each time the underlying slot is
	// recycled; it detects stale references and breaks ties in the
	// unused-block pool.
	Generation uint32

	// AllocCount is the number of outstanding Reserve calls whose result
	// has not been Released.
	AllocCount int

	// UsedCount is the number of pages currently marked allocated.
	// Invariant: UsedCount == AllocatedPages.CountBits(0, PagesInBlock).
	UsedCount int

	// LongestFreeRange caches the length of the longest run of clear
	// bits in AllocatedPages, except during the body of a mutating
	// primitive, which always restores it before returning.
	LongestFreeRange int

	// AllocatedPages is the page occupancy bitmap: 1 means allocated.
	AllocatedPages pagebitmap.Bitmap

	// Intrusive storage for external collaborators; see HeapNode/TreeNode.
	HeapLink HeapNode
	TreeLink TreeNode
}

// Slot carries the generation a metadata-slot provider assigns when it
// hands a storage slot back for reuse (spec §6). Go gives the slot's own
// placement to the caller as the *Descriptor pointer itself (the
// provider's storage, e.g. sysmem.SlotPool, is already addressed by
// pointer); Slot exists only to carry Generation across that boundary,
// not a separate address.
type Slot struct {
	Generation uint32
}

// Init constructs an unused Descriptor in place at d, inheriting the
// generation from slot. The descriptor starts with no address, no
// epoch, and every page free.
func Init(d *Descriptor, slot Slot) {
	*d = Descriptor{
		Generation:       slot.Generation,
		LongestFreeRange: PagesInBlock,
	}
}

// Activate places an unused descriptor into service at address with a
// fresh epoch. epoch must be strictly greater than any epoch previously
// observed on this slot; the caller (arena) is responsible for that
// monotonicity, typically by drawing epochs from a single counter.
func Activate(d *Descriptor, address uintptr, epoch uint64) {
	contract.Requiref(d.Address == 0, "activate called on a descriptor already bound to address %#x", d.Address)
	contract.Requiref(address != 0, "activate requires a non-zero address")
	d.Address = address
	d.Epoch = epoch
}

// Retire returns an empty descriptor to the unused pool, bumping its
// generation so stale references to the old occupant are detectable.
func Retire(d *Descriptor) {
	contract.Require(d.UsedCount == 0, "retire called on a non-empty block")
	gen := d.Generation + 1
	*d = Descriptor{
		Generation:       gen,
		LongestFreeRange: PagesInBlock,
	}
}

// RecycleKey returns the (generation, address) pair CompareByGenerationAddress
// orders a slot provider's free list by.
func (d *Descriptor) RecycleKey() (generation uint32, address uintptr) { return d.Generation, d.Address }

// Empty reports whether the block has no allocated pages.
func (d *Descriptor) Empty() bool { return d.UsedCount == 0 }

// Full reports whether every page in the block is allocated.
func (d *Descriptor) Full() bool { return d.UsedCount == PagesInBlock }

// Reserve selects a free run of length >= pages using best-fit with
// earliest-start tie-break, marks its first pages bits allocated, and
// returns the starting page index.
//
// Precondition: 0 < pages <= d.LongestFreeRange. This lets callers reject
// oversized requests in O(1) before calling Reserve at all.
func (d *Descriptor) Reserve(pages int) int {
	contract.Requiref(pages > 0, "reserve requires pages > 0, got %d", pages)
	contract.Requiref(pages <= d.LongestFreeRange, "reserve(%d) exceeds longest free range %d", pages, d.LongestFreeRange)

	bestIndex, bestLen := -1, 0
	longest, secondLongest := 0, 0

	for cursor := 0; ; {
		idx, length, ok := d.AllocatedPages.NextFreeRange(cursor)
		if !ok {
			break
		}
		cursor = idx + length

		if length > longest {
			secondLongest = longest
			longest = length
		} else if length > secondLongest {
			secondLongest = length
		}

		// Best-fit: only replace the candidate on strict improvement,
		// so among equal-length satisfying runs the earliest start wins.
		if length >= pages && (bestIndex == -1 || length < bestLen) {
			bestIndex, bestLen = idx, length
		}
	}

	contract.Requiref(bestIndex >= 0, "reserve(%d): no free run satisfies the request despite longestFreeRange=%d", pages, d.LongestFreeRange)

	d.AllocatedPages.SetRange(bestIndex, pages)
	d.AllocCount++
	d.UsedCount += pages

	if bestLen == longest {
		d.LongestFreeRange = max(longest-pages, secondLongest)
	}

	return bestIndex
}

// Set attempts to allocate the specific range [index, index+pages),
// growing an existing reservation in place rather than creating a new
// one: it does not increment AllocCount. It returns false, leaving the
// descriptor unchanged, when the clear run starting at index is shorter
// than pages.
func (d *Descriptor) Set(index, pages int) bool {
	contract.Requiref(index >= 0 && pages >= 0 && index+pages <= PagesInBlock, "set(%d,%d) exceeds block of %d pages", index, pages, PagesInBlock)
	if pages == 0 {
		return true
	}

	avail := d.AllocatedPages.FindSet(index) - index
	if avail < pages {
		return false
	}

	runLen := index + avail - (d.AllocatedPages.FindSetBackward(index) + 1)
	consumedLongest := runLen == d.LongestFreeRange
	d.AllocatedPages.SetRange(index, pages)
	d.UsedCount += pages

	if consumedLongest {
		d.recomputeLongestFreeRange()
	}
	return true
}

// Clear clears the range [index, index+pages), every bit of which must
// currently be set, and updates UsedCount. It does not touch AllocCount;
// this is the shrink primitive used by Release.
func (d *Descriptor) Clear(index, pages int) {
	contract.Requiref(index >= 0 && pages >= 0 && index+pages <= PagesInBlock, "clear(%d,%d) exceeds block of %d pages", index, pages, PagesInBlock)
	if pages == 0 {
		return
	}
	contract.Requiref(d.AllocatedPages.CountBits(index, index+pages) == pages, "clear(%d,%d): range is not fully allocated", index, pages)

	d.AllocatedPages.ClearRange(index, pages)
	d.UsedCount -= pages

	start := d.AllocatedPages.FindSetBackward(index) + 1
	end := d.AllocatedPages.FindSet(index + pages - 1)
	if newRun := end - start; newRun > d.LongestFreeRange {
		d.LongestFreeRange = newRun
	}
}

// Release fully deallocates [index, index+pages): it is Clear followed
// by AllocCount--. Spec's open question: Release presumes a 1:1
// correspondence between a Reserve call and the Release that undoes it,
// including any in-place growth performed via Set in between; block
// does not itself track that correspondence (see SPEC_FULL.md §5).
func (d *Descriptor) Release(index, pages int) {
	d.Clear(index, pages)
	d.AllocCount--
	contract.Requiref(d.AllocCount >= 0, "release underflowed allocCount for block at %#x", d.Address)
}

func (d *Descriptor) recomputeLongestFreeRange() {
	longest := 0
	for cursor := 0; ; {
		idx, length, ok := d.AllocatedPages.NextFreeRange(cursor)
		if !ok {
			break
		}
		if length > longest {
			longest = length
		}
		cursor = idx + length
	}
	d.LongestFreeRange = longest
}
