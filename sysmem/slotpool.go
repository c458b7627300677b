package sysmem

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/hugepage-labs/blockcore/block"
)

// recyclable is implemented by slot types that carry a recycling order.
// When T's *T satisfies it, SlotPool keeps free in ascending
// block.CompareByGenerationAddress order instead of plain LIFO, so Get
// hands out the lowest-generation freed slot first (spec §4.4's stated
// purpose for that comparator). Types with no such order (T without a
// RecycleKey method) fall back to a plain stack.
type recyclable interface {
	RecycleKey() (generation uint32, address uintptr)
}

// SlotPool hands out stable-address slots of T from chunks of
// anonymously mmap'd memory, recycling freed slots before mapping a
// new chunk. This generalizes fixalloc (mfixalloc.go) — same chunk +
// free-list shape — using a type parameter in place of the runtime's
// unsafe.Pointer-and-size-in-bytes interface, since this module isn't
// constrained to compile without generics the way package runtime is.
//
// The zero value is not usable; construct with NewSlotPool. A SlotPool
// is safe for concurrent use.
type SlotPool[T any] struct {
	mu       sync.Mutex
	chunkLen int
	free     []*T
	mappings [][]byte // backing storage for chunks, kept alive for Close
}

// NewSlotPool creates a pool that maps chunkLen slots of T at a time.
// A chunkLen <= 0 defaults to 128, matching the teacher's choice to
// round fixalloc's chunk size well above any single allocation.
func NewSlotPool[T any](chunkLen int) *SlotPool[T] {
	if chunkLen <= 0 {
		chunkLen = 128
	}
	return &SlotPool[T]{chunkLen: chunkLen}
}

// Get returns a slot of T, allocating a new chunk if the free list is
// empty. A slot from a fresh chunk holds T's zero value; a recycled
// slot is returned as its last user left it. When T supports recycling
// order, this is
// the freed slot with the lowest (generation, address) key, since Put
// keeps free sorted ascending by that key and Get always takes the
// front.
func (p *SlotPool[T]) Get() (*T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		if err := p.grow(); err != nil {
			return nil, err
		}
	}
	slot := p.free[0]
	p.free = p.free[1:]
	return slot, nil
}

// Put returns slot to the pool. The caller must not use slot again
// afterward; a later Get may hand the same address back out. When T
// supports recycling order, slot is inserted so the free list stays
// sorted ascending by block.CompareByGenerationAddress; types without
// that order are a plain stack, pushed on the front where Get takes
// from.
func (p *SlotPool[T]) Put(slot *T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := any(slot).(recyclable)
	if !ok {
		p.free = append(p.free, nil)
		copy(p.free[1:], p.free)
		p.free[0] = slot
		return
	}
	gen, addr := r.RecycleKey()
	i := sort.Search(len(p.free), func(i int) bool {
		fgen, faddr := any(p.free[i]).(recyclable).RecycleKey()
		return block.CompareByGenerationAddress(fgen, faddr, gen, addr) >= 0
	})
	p.free = append(p.free, nil)
	copy(p.free[i+1:], p.free[i:])
	p.free[i] = slot
}

// Close unmaps every chunk this pool has ever allocated. Slots handed
// out and not returned become invalid.
func (p *SlotPool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var first error
	for _, m := range p.mappings {
		if err := unix.Munmap(m); err != nil && first == nil {
			first = fmt.Errorf("sysmem: unmap metadata chunk: %w", err)
		}
	}
	p.mappings = nil
	p.free = nil
	return first
}

func (p *SlotPool[T]) grow() error {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	n := int(elemSize) * p.chunkLen

	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return fmt.Errorf("sysmem: map metadata chunk: %w", err)
	}

	chunk := unsafe.Slice((*T)(unsafe.Pointer(&b[0])), p.chunkLen)
	p.mappings = append(p.mappings, b)
	for i := range chunk {
		p.free = append(p.free, &chunk[i])
	}
	return nil
}
