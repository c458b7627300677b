package arena

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hugepage-labs/blockcore/block"
	"github.com/hugepage-labs/blockcore/internal/contract"
	"github.com/hugepage-labs/blockcore/internal/obslog"
	"github.com/hugepage-labs/blockcore/sysmem"
)

// blockHeap is a container/heap min-heap of active descriptors ordered
// oldest-epoch-first, used to pick a reclamation candidate in O(log n)
// rather than scanning every block. Shaped on the teacher corpus's
// freeCellHeap (fastalloc.go): a []*T heap.Interface keyed by a single
// comparable field, here block.CompareByEpoch instead of cell size.
type blockHeap []*block.Descriptor

func (h blockHeap) Len() int { return len(h) }

func (h blockHeap) Less(i, j int) bool {
	return block.CompareByEpoch(h[i], h[j]) < 0
}

func (h blockHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *blockHeap) Push(x any) {
	*h = append(*h, x.(*block.Descriptor))
}

func (h *blockHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return d
}

// Arena owns a growable set of huge-page blocks, the off-heap metadata
// slots describing them, and the two lookup structures (blockHeap,
// ExtentIndex) callers use to find an allocation candidate or resolve a
// pointer back to its extent. One Arena corresponds to the teacher's
// per-arena slice of mheapArena plus the subset of mheap's bookkeeping
// that is scoped to a single arena rather than the whole heap.
//
// Arena serializes all of its own operations with mu; block's own
// primitives remain single-owner (spec §5). The ones Arena calls itself
// (Release, from FreeExtent) run inside that lock; callers that reserve
// or release directly on a descriptor returned by Grow are not
// serialized by mu.
type Arena struct {
	mu sync.Mutex

	index int
	log   *obslog.Logger

	descriptors *sysmem.SlotPool[block.Descriptor]
	extentSlots *sysmem.SlotPool[block.Extent]

	active blockHeap // blocks activated by Grow and not yet retired, empty or not
	idle   []*block.Descriptor

	extents ExtentIndex

	nextEpoch uint64
}

// New creates an empty arena. descriptorChunk and extentChunk size the
// underlying slot pools' mmap granularity; callers with no opinion
// should pass 0 to take sysmem's default.
func New(index int, descriptorChunk, extentChunk int, log *obslog.Logger) *Arena {
	if log == nil {
		log = obslog.Noop()
	}
	return &Arena{
		index:       index,
		log:         log.WithArena(index),
		descriptors: sysmem.NewSlotPool[block.Descriptor](descriptorChunk),
		extentSlots: sysmem.NewSlotPool[block.Extent](extentChunk),
	}
}

// Grow maps one new huge-page block, activates a descriptor for it, and
// makes it the newest entry in the active heap. It returns the
// descriptor so the caller can begin reserving pages from it
// immediately.
func (a *Arena) Grow(ctx context.Context) (*block.Descriptor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr, err := sysmem.AllocBlock()
	if err != nil {
		a.log.LogArenaGrow(ctx, a.index, 0, err)
		return nil, fmt.Errorf("arena %d: grow: %w", a.index, err)
	}

	d, slot, err := a.takeDescriptor()
	if err != nil {
		_ = sysmem.FreeBlock(addr)
		a.log.LogArenaGrow(ctx, a.index, 0, err)
		return nil, fmt.Errorf("arena %d: grow: %w", a.index, err)
	}

	block.Init(d, slot)
	a.nextEpoch++
	block.Activate(d, addr, a.nextEpoch)
	heap.Push(&a.active, d)

	a.log.LogArenaGrow(ctx, a.index, addr, nil)
	a.log.LogActivate(ctx, addr, a.nextEpoch)
	return d, nil
}

// takeDescriptor reuses an idle descriptor's slot if one exists, rather
// than mapping a fresh one, so a block that cycles through Grow/Retire
// repeatedly doesn't grow the metadata slot pool without bound. a.idle
// is kept sorted ascending by block.CompareByGenerationAddress (see
// insertIdle), so the slot reused here is always the lowest-generation
// one retired, per spec §4.4's stated purpose for that comparator.
func (a *Arena) takeDescriptor() (*block.Descriptor, block.Slot, error) {
	if n := len(a.idle); n > 0 {
		d := a.idle[0]
		a.idle = a.idle[1:]
		return d, block.Slot{Generation: d.Generation}, nil
	}
	d, err := a.descriptors.Get()
	if err != nil {
		return nil, block.Slot{}, err
	}
	return d, block.Slot{Generation: d.Generation}, nil
}

// insertIdle inserts d into a.idle, keeping it sorted ascending by
// (Generation, Address) via block.CompareByGenerationAddress.
func (a *Arena) insertIdle(d *block.Descriptor) {
	i := sort.Search(len(a.idle), func(i int) bool {
		return block.CompareByGenerationAddress(a.idle[i].Generation, a.idle[i].Address, d.Generation, d.Address) >= 0
	})
	a.idle = append(a.idle, nil)
	copy(a.idle[i+1:], a.idle[i:])
	a.idle[i] = d
}

// OldestActive returns the active block with the smallest epoch, i.e.
// the one that has been in service the longest, without removing it
// from the heap. It is the arena's reclamation candidate: an allocator
// preferring to drain and retire long-lived, now-empty blocks ahead of
// younger ones asks here first.
func (a *Arena) OldestActive() (*block.Descriptor, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.active) == 0 {
		return nil, false
	}
	return a.active[0], true
}

// RetireEmpty removes d from the active heap and returns its block to
// the OS, provided d currently holds no allocated pages. It reports
// false without effect if d is not empty or is not a member of this
// arena's active set.
func (a *Arena) RetireEmpty(ctx context.Context, d *block.Descriptor) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !d.Empty() {
		return false, nil
	}

	i := a.indexOf(d)
	if i < 0 {
		return false, nil
	}
	heap.Remove(&a.active, i)

	addr := d.Address
	block.Retire(d)
	a.insertIdle(d)

	if err := sysmem.FreeBlock(addr); err != nil {
		return false, fmt.Errorf("arena %d: retire: %w", a.index, err)
	}
	a.log.LogRetire(ctx, addr, d.Generation)
	return true, nil
}

func (a *Arena) indexOf(d *block.Descriptor) int {
	for i, candidate := range a.active {
		if candidate == d {
			return i
		}
	}
	return -1
}

// NewSlabExtent carves a slot for an Extent out of the metadata pool and
// initializes it as a slab, registering it in the address index. hpd
// must belong to this arena.
func (a *Arena) NewSlabExtent(addr, size uintptr, hpd *block.Descriptor, sizeClass block.SizeClass, slotCount int) (*block.Extent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ext, err := a.extentSlots.Get()
	if err != nil {
		return nil, fmt.Errorf("arena %d: new slab extent: %w", a.index, err)
	}
	block.NewSlabExtent(ext, addr, size, hpd, hpd.Generation, a.index, sizeClass, slotCount)
	a.extents.Insert(ext)
	return ext, nil
}

// NewLargeExtent is NewSlabExtent's counterpart for a multi-page run.
func (a *Arena) NewLargeExtent(addr, size uintptr, hpd *block.Descriptor) (*block.Extent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ext, err := a.extentSlots.Get()
	if err != nil {
		return nil, fmt.Errorf("arena %d: new large extent: %w", a.index, err)
	}
	block.NewLargeExtent(ext, addr, size, hpd, hpd.Generation, a.index)
	a.extents.Insert(ext)
	return ext, nil
}

// FreeExtent removes ext from the address index, releases the pages it
// held back to its owning block via ext.Hpd, and returns ext's slot to
// the metadata pool. The caller must have already freed every slab slot
// ext described, if any; the page range itself is released here. An
// extent with no owning descriptor (ext.Hpd == nil, as in a bare index
// entry with no backing block) skips the release step.
func (a *Arena) FreeExtent(ext *block.Extent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ext.Hpd != nil {
		pageIndex := int((ext.Addr - ext.Hpd.Address) / block.PageSize)
		pages := int(ext.Size / block.PageSize)
		ext.Hpd.Release(pageIndex, pages)
	}

	a.extents.Remove(ext.Addr)
	a.extentSlots.Put(ext)
}

// Lookup resolves ptr to the extent that contains it, if any is
// currently registered in this arena.
func (a *Arena) Lookup(ptr uintptr) (*block.Extent, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.extents.Find(ptr)
}

// Close unmaps every still-active block (retired blocks were already
// unmapped by RetireEmpty) and releases the metadata slot pools. It is
// an error to use the arena afterward.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var first error
	for len(a.active) > 0 {
		d := heap.Pop(&a.active).(*block.Descriptor)
		contract.Requiref(d.Address != 0, "arena %d: active descriptor has no address", a.index)
		if err := sysmem.FreeBlock(d.Address); err != nil && first == nil {
			first = err
		}
	}
	if err := a.descriptors.Close(); err != nil && first == nil {
		first = err
	}
	if err := a.extentSlots.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
