package block

import "unsafe"

// Address-space and arena geometry, grounded in the teacher's own
// malloc.go constants (heapAddrBits, logHeapArenaBytes): the runtime
// this module imitates targets a 48-bit user address space divided
// into 64 MiB arenas.
const (
	// LgAddressSpace is the number of bits of virtual address the
	// generation+address comparator packs an address into (spec §4.4).
	// The generation occupies the remaining high bits, so this must
	// not exceed 56 to leave it at least one byte.
	LgAddressSpace = 48

	// ArenaShift is log2 of ArenaSize.
	ArenaShift = 26
	// ArenaSize is the granularity an arena hands out to blocks.
	ArenaSize = 1 << ArenaShift
	// ArenaMask extracts an address's offset within its arena.
	ArenaMask = ArenaSize - 1
)

// extentPadBytes pads Extent up to ExtentSize. Computed by hand from
// the preceding fields' natural (compiler-inserted) layout; the
// assertions below catch any future field addition that changes that
// layout without updating this pad.
const extentPadBytes = 120

// ExtentSize is the total size of an Extent, a compile-time constant
// equal to its required alignment (spec §3, §6: "Extents are
// themselves aligned to their size"). ExtentAlign is that same value
// under the name callers use when aligning a slot.
const (
	ExtentSize  = 256
	ExtentAlign = ExtentSize
)

// Compile-time assertions. Each indexes a single-element array with an
// expression that is only in range (0) when the asserted condition
// holds; any other value is a compile error, not a runtime panic.
var (
	_ = [1]byte{}[ExtentSize-unsafe.Sizeof(Extent{})] // sizeof(Extent) == ExtentSize
	_ = [1]byte{}[ExtentSize&(ExtentSize-1)]           // ExtentSize is a power of two
)

func init() {
	contractAssertAddressSpace()
}

func contractAssertAddressSpace() {
	if LgAddressSpace > 56 {
		panic("blockcore: LgAddressSpace exceeds the 56 bits available alongside the generation byte")
	}
}
