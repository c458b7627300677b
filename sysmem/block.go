// Package sysmem provides the two kinds of memory block needs from the
// OS: huge-page-aligned block-sized regions for the allocator's own
// address space, and off-heap, stable-address metadata slots for
// BlockDescriptors and Extents. Both are grounded in the teacher's
// mem_linux.go (mmap/madvise wrapping) and mfixalloc.go (chunked,
// free-listed fixed-size allocation), translated from the runtime's
// assembly-adjacent internals into a real syscall package this module
// can actually link: golang.org/x/sys/unix.
package sysmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/hugepage-labs/blockcore/block"
)

// AllocBlock reserves a block.HugePageSize region aligned to
// block.HugePageSize, in the style of the teacher's sysReserveOS
// followed by sysMapOS: map twice the needed size, trim the unaligned
// head and tail, and advise the kernel to back the remainder with
// transparent huge pages (mem_linux.go's sysHugePageOS).
//
// On Linux there's no separate reserve/commit phase the way there is
// on Windows (mem_linux.go's own comment on sysMapOS notes this), so
// the mapping returned is immediately readable and writable.
func AllocBlock() (uintptr, error) {
	size := uintptr(block.HugePageSize)

	raw, err := unix.Mmap(-1, 0, int(2*size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("sysmem: reserve block: %w", err)
	}

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := alignUp(base, size)
	head := aligned - base
	tail := uintptr(len(raw)) - head - size

	if head > 0 {
		if err := unix.Munmap(raw[:head]); err != nil {
			return 0, fmt.Errorf("sysmem: trim unaligned head: %w", err)
		}
	}
	if tail > 0 {
		if err := unix.Munmap(raw[head+size:]); err != nil {
			return 0, fmt.Errorf("sysmem: trim unaligned tail: %w", err)
		}
	}

	alignedBytes := unsafe.Slice((*byte)(unsafe.Pointer(aligned)), int(size))
	_ = unix.Madvise(alignedBytes, unix.MADV_HUGEPAGE) // best-effort; absence of THP support isn't fatal

	return aligned, nil
}

// FreeBlock releases a region previously returned by AllocBlock. addr
// must be exactly the value AllocBlock returned; this is not a general
// munmap wrapper.
func FreeBlock(addr uintptr) error {
	size := uintptr(block.HugePageSize)
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("sysmem: free block at %#x: %w", addr, err)
	}
	return nil
}

func alignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}
