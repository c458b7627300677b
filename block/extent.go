package block

import (
	"github.com/hugepage-labs/blockcore/internal/contract"
	"github.com/hugepage-labs/blockcore/pagebitmap"
)

// Packed bit-field layout of Extent.bits, specified explicitly per spec
// §9 rather than via language bit-field syntax, so each field's bit
// range is fixed and read back with masked shifts.
//
// spec.md §9's literal ranges ([36,58) for arenaIndex, [48,58) for
// freeSlots) overlap each other; this lays the same four fields out
// contiguously from bit 0 instead, in the same order, so no field's
// readback depends on another field's value.
const (
	bitIsSlab      = 0
	bitArenaIndex  = 1
	bitFreeSlots   = 23
	bitSizeClass   = 33
	maskArenaIndex = (1 << 22) - 1 // 22 bits, arenaIndex occupies [1,23)
	maskFreeSlots  = (1 << 10) - 1 // 10 bits, freeSlots occupies [23,33)
	maskSizeClass  = (1 << 6) - 1  // 6 bits, sizeClass occupies [33,39)
)

// Extent describes one live allocation: either a small-object slab over
// a single page, or a multi-page run.
type Extent struct {
	Addr       uintptr
	Size       uintptr
	Generation uint32
	Hpd        *Descriptor // pointer-equality back-reference only, not ownership

	bits uint64

	// SlabData records, for slab extents only, which of the up-to-512
	// fixed-size slots are in use. Meaningful only when IsSlab().
	SlabData pagebitmap.Bitmap

	// Intrusive storage for external collaborators; see HeapNode/TreeNode
	// in descriptor.go. HeapLink is unused by any primitive in this
	// package today but is reserved per spec §6, §9 alongside TreeLink.
	HeapLink HeapNode
	TreeLink TreeNode

	// extentPad rounds sizeof(Extent) up to ExtentSize, enforced at
	// compile time in contracts.go, so slots laid out back to back from
	// an ExtentAlign-aligned base are each aligned to their own size.
	extentPad [extentPadBytes]byte
}

// NewSlabExtent initializes ext in place as a slab extent: one page
// subdivided into slotCount fixed-size slots, all initially free.
func NewSlabExtent(ext *Extent, addr, size uintptr, hpd *Descriptor, generation uint32, arenaIndex int, sizeClass SizeClass, slotCount int) {
	contract.Requiref(addr%PageSize == 0, "extent address %#x is not page-aligned", addr)
	contract.Requiref(arenaIndex >= 0 && arenaIndex <= maskArenaIndex, "arenaIndex %d exceeds 22 bits", arenaIndex)
	contract.Requiref(slotCount >= 0 && slotCount <= pagebitmap.Bits, "slot count %d exceeds slab capacity %d", slotCount, pagebitmap.Bits)

	*ext = Extent{
		Addr:       addr,
		Size:       size,
		Generation: generation,
		Hpd:        hpd,
	}
	ext.bits = 1<<bitIsSlab |
		uint64(arenaIndex)<<bitArenaIndex |
		uint64(slotCount)<<bitFreeSlots |
		uint64(sizeClass)<<bitSizeClass
}

// NewLargeExtent initializes ext in place as a large (non-slab) extent
// describing a multi-page run.
func NewLargeExtent(ext *Extent, addr, size uintptr, hpd *Descriptor, generation uint32, arenaIndex int) {
	contract.Requiref(addr%PageSize == 0, "extent address %#x is not page-aligned", addr)
	contract.Requiref(arenaIndex >= 0 && arenaIndex <= maskArenaIndex, "arenaIndex %d exceeds 22 bits", arenaIndex)

	*ext = Extent{
		Addr:       addr,
		Size:       size,
		Generation: generation,
		Hpd:        hpd,
	}
	ext.bits = uint64(arenaIndex) << bitArenaIndex
}

// IsSlab reports whether ext describes a slab of small-object slots
// rather than a large multi-page run.
func (e *Extent) IsSlab() bool { return e.bits&1 != 0 }

// ArenaIndex returns the index of the arena this extent's memory was
// carved from.
func (e *Extent) ArenaIndex() int { return int((e.bits >> bitArenaIndex) & maskArenaIndex) }

// SizeClass returns the size class this extent's slots belong to. Only
// meaningful when IsSlab() is true.
func (e *Extent) SizeClass() SizeClass { return SizeClass((e.bits >> bitSizeClass) & maskSizeClass) }

// FreeSlots returns the number of unused slab slots. Only meaningful
// when IsSlab() is true.
func (e *Extent) FreeSlots() int { return int((e.bits >> bitFreeSlots) & maskFreeSlots) }

func (e *Extent) setFreeSlots(n int) {
	e.bits = (e.bits &^ (maskFreeSlots << bitFreeSlots)) | (uint64(n) << bitFreeSlots)
}

// ContainsPointers reports whether this extent's memory may hold
// pointers, derived from the arena index's low bit: odd arenas hold
// pointer-bearing memory, even arenas hold raw bytes.
func (e *Extent) ContainsPointers() bool { return e.ArenaIndex()&1 != 0 }

// Allocate claims the lowest free slab slot, returning its index.
// Precondition: IsSlab() and FreeSlots() > 0.
func (e *Extent) Allocate() int {
	contract.Require(e.IsSlab(), "allocate called on a non-slab extent")
	contract.Requiref(e.FreeSlots() > 0, "allocate called on a full slab at %#x", e.Addr)

	slot := e.SlabData.SetFirst()
	e.setFreeSlots(e.FreeSlots() - 1)
	return slot
}

// Free releases slotIndex back to the slab. Precondition: IsSlab() and
// the slot is currently in use.
func (e *Extent) Free(slotIndex int) {
	contract.Require(e.IsSlab(), "free called on a non-slab extent")
	contract.Requiref(e.SlabData.ValueAt(slotIndex), "free(%d): slot already free", slotIndex)

	e.SlabData.ClearRange(slotIndex, 1)
	e.setFreeSlots(e.FreeSlots() + 1)
}

// Contains reports whether ptr falls within this extent's half-open
// address range.
func (e *Extent) Contains(ptr uintptr) bool {
	return e.Addr <= ptr && ptr < e.Addr+e.Size
}

// RecycleKey returns the (generation, address) pair CompareByGenerationAddress
// orders a slot provider's free list by.
func (e *Extent) RecycleKey() (generation uint32, address uintptr) { return e.Generation, e.Addr }
