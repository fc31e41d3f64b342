// Package pagealloc implements a fixed-size page allocator over a single
// contiguous kernel heap region, the linker-provided _heap_start/_heap_size
// range described in spec.md §6. It hands out zero-initialized 4 KiB
// pages, identified by their 32-bit physical address, and can free them,
// tracking free slots with a freelist threaded through the free pages
// themselves (no separate bitmap allocation, matching the "no allocator
// needed" spirit of biscuit's page-table code, which never allocates
// metadata for something the freed page itself has room for).
package pagealloc

import (
	"unsafe"

	"github.com/danielg0/quartos/internal/kerrors"
	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/internal/physmem"
)

// freeNode is overlaid on a free page's first bytes. It is only valid
// while the page is on the freelist; once allocated the full page is
// handed to the caller.
type freeNode struct {
	next *freeNode
}

// Allocator hands out zero-initialized pages from the physical range
// [base, base+size).
type Allocator struct {
	base  uint32
	size  uint32
	free  *freeNode
	total int
	used  int
}

// New carves an Allocator out of the physical range [base, base+size).
// size is rounded down to a whole number of pages; base must already be
// page-aligned. physmem.Init must have been called first (hosted
// builds) or the build is the freestanding target, where base is a real
// physical address the linker placed the heap at.
func New(base, size uint32) *Allocator {
	if base%klimits.PageSize != 0 {
		panic("pagealloc: heap base not page aligned")
	}
	a := &Allocator{base: base, size: size - size%klimits.PageSize}
	n := int(a.size / klimits.PageSize)
	a.total = n
	for i := n - 1; i >= 0; i-- {
		p := (*freeNode)(physmem.Ptr(base + uint32(i)*klimits.PageSize))
		p.next = a.free
		a.free = p
	}
	return a
}

// Alloc returns the physical address of a fresh, zero-filled page, or
// kerrors.ErrOutOfMemory if the region is exhausted.
func (a *Allocator) Alloc() (uint32, error) {
	if a.free == nil {
		return 0, kerrors.ErrOutOfMemory
	}
	n := a.free
	a.free = n.next
	a.used++

	p := hostToPhys(a, unsafe.Pointer(n))
	zero(p)
	return p, nil
}

// Free returns a page previously obtained from Alloc back to the pool.
// It panics if ptr is not page-aligned or does not belong to this
// allocator's range — freeing a page we don't own would silently
// corrupt whatever does own it.
func (a *Allocator) Free(ptr uint32) {
	if !a.Owns(ptr) {
		panic("pagealloc: free of pointer outside heap range")
	}
	if ptr%klimits.PageSize != 0 {
		panic("pagealloc: free of unaligned pointer")
	}
	n := (*freeNode)(physmem.Ptr(ptr))
	n.next = a.free
	a.free = n
	a.used--
}

// Owns reports whether ptr falls inside this allocator's heap range,
// regardless of whether the specific page is currently allocated. Higher
// layers use this during remapping to decide whether a backing page may
// be freed or is externally owned (e.g. MMIO).
func (a *Allocator) Owns(ptr uint32) bool {
	return ptr >= a.base && ptr < a.base+a.size
}

// Used returns the number of pages currently allocated.
func (a *Allocator) Used() int { return a.used }

// Total returns the total number of pages the allocator manages.
func (a *Allocator) Total() int { return a.total }

func zero(p uint32) {
	page := (*[klimits.PageSize]byte)(physmem.Ptr(p))
	for i := range page {
		page[i] = 0
	}
}

// hostToPhys recovers the physical address of a pointer physmem.Ptr
// itself produced: the freelist only ever contains pointers physmem.Ptr
// handed out, so the address is derived by pointer arithmetic against
// the allocator's base page, without depending on physmem's internal
// representation.
func hostToPhys(a *Allocator, p unsafe.Pointer) uint32 {
	ref := physmem.Ptr(a.base)
	delta := uintptr(p) - uintptr(ref)
	return a.base + uint32(delta)
}
