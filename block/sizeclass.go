package block

// SizeClass indexes binInfos. Class 0 is the reserved sentinel row with
// no object size or slots, and SizeClassForObject never returns it;
// NewSlabExtent does not reject it.
type SizeClass uint8

// BinInfo describes one small-object size class: the size of each slot
// and how many slots fit in the single page a slab Extent of this class
// covers. Slots is filled in at package init; NewSlabExtent does not
// read it, its caller passes the slot count explicitly.
type BinInfo struct {
	ObjectSize uintptr
	Slots      int
}

// classCounts mirrors the teacher's split between small (bucketed,
// multi-object-per-page) and large (one object, arbitrary page count)
// classes; this module only buckets small objects, so Large is unused
// but kept so callers can spell out the distinction the way the
// teacher's own class_to_size commentary does.
type classCounts struct {
	Small int
	Large int
}

// ClassCount reports the number of populated rows of binInfos.
var ClassCount = classCounts{Small: len(binInfos) - 1}

// binInfos is indexed by SizeClass. Row 0 is the unused sentinel.
// Object sizes follow the teacher's class_to_size progression
// (mheap.go's makeSpanClass/class_to_size commentary): roughly
// 8-byte steps at the small end widening to coarser steps near one
// page, chosen so internal fragmentation per slot stays bounded.
var binInfos = [...]BinInfo{
	{ObjectSize: 0},
	{ObjectSize: 8},
	{ObjectSize: 16},
	{ObjectSize: 24},
	{ObjectSize: 32},
	{ObjectSize: 48},
	{ObjectSize: 64},
	{ObjectSize: 80},
	{ObjectSize: 96},
	{ObjectSize: 112},
	{ObjectSize: 128},
	{ObjectSize: 160},
	{ObjectSize: 192},
	{ObjectSize: 224},
	{ObjectSize: 256},
	{ObjectSize: 320},
	{ObjectSize: 384},
	{ObjectSize: 448},
	{ObjectSize: 512},
	{ObjectSize: 640},
	{ObjectSize: 768},
	{ObjectSize: 896},
	{ObjectSize: 1024},
	{ObjectSize: 1280},
	{ObjectSize: 1536},
	{ObjectSize: 2048},
}

func init() {
	for i := range binInfos {
		if binInfos[i].ObjectSize == 0 {
			continue
		}
		binInfos[i].Slots = PageSize / int(binInfos[i].ObjectSize)
	}
}

// SizeClassForObject returns the smallest size class whose ObjectSize
// is >= size, or false if size exceeds the largest small class (the
// caller should use a large Extent instead).
func SizeClassForObject(size uintptr) (SizeClass, bool) {
	for i := 1; i < len(binInfos); i++ {
		if binInfos[i].ObjectSize >= size {
			return SizeClass(i), true
		}
	}
	return 0, false
}
