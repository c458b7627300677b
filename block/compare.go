package block

// The three total orders named in spec §4.4. Each follows the
// branchless idiom the teacher uses for span and arena ordering
// (mheap.go's offAddr comparisons): return the sign of (l - r) without
// a conditional, so these inline cleanly into a heap or tree's own
// comparison call.

// CompareByEpoch orders two BlockDescriptors by Epoch, oldest first.
// arena.Arena uses this to key its heap of in-service blocks, whose
// root is the block that has been in service longest.
func CompareByEpoch(a, b *Descriptor) int {
	return sign64(a.Epoch, b.Epoch)
}

// generationAddressKey packs a generation and an address into a single
// uint64 with the generation in the bits above LgAddressSpace (the top
// 16 bits at LgAddressSpace = 48), so that comparing the packed values
// orders first by generation, then by address, with one comparison
// instead of two. Address bits at or above LgAddressSpace are masked
// off, and only the low 64-LgAddressSpace bits of the generation are
// kept, so generations that differ only above those bits compare by
// address alone. contracts.go checks at package init that
// LgAddressSpace leaves the generation at least one byte.
func generationAddressKey(generation uint32, address uintptr) uint64 {
	return uint64(generation)<<LgAddressSpace | uint64(address)&addressMask
}

const addressMask = (uint64(1) << LgAddressSpace) - 1

// CompareByGenerationAddress orders unused BlockDescriptors and
// Extents by (generation, address), used to order recycled metadata
// slots so the oldest generation at the lowest address is preferred
// (spec §4.4).
func CompareByGenerationAddress(aGeneration uint32, aAddress uintptr, bGeneration uint32, bAddress uintptr) int {
	return sign64(generationAddressKey(aGeneration, aAddress), generationAddressKey(bGeneration, bAddress))
}

// CompareExtentAddrRange orders a point address against an Extent's
// half-open range [e.Addr, e.Addr+e.Size), returning 0 when addr falls
// inside the range, negative when addr is below it, and positive when
// addr is at or above it. This is the comparator the address-range
// lookup tree (spec §4.4, I8) searches with: descending a tree ordered
// by extent start address using point-vs-range comparisons, rather than
// extent-vs-extent comparisons, is what lets a single walk resolve a
// pointer to its containing extent.
func CompareExtentAddrRange(addr uintptr, e *Extent) int {
	switch {
	case addr < e.Addr:
		return -1
	case addr >= e.Addr+e.Size:
		return 1
	default:
		return 0
	}
}

// sign64 is the branchless three-way comparator spec §4.4 calls for,
// in the same style as the teacher's bool2int(noscan) bit-packing.
func sign64(l, r uint64) int {
	return b2i(l > r) - b2i(l < r)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
