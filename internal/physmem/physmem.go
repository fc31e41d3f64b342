//go:build !quartos_bare

// Package physmem translates the kernel's 32-bit physical address space
// into real host memory for hosted (test) builds. On real RV32
// hardware, code running in machine mode is never translated by Sv32 —
// the MMU only applies to S/U mode — so the freestanding build (see
// physmem_bare.go) treats a physical address as a pointer directly.
// A hosted `go test` binary has no such luxury: a Go-allocated byte
// slice's real address is a 64-bit host pointer that does not fit the
// kernel's 32-bit physical address space, so this file keeps a table of
// direct-map windows translating one to the other, the same role
// biscuit's mem.Dmaplen/Vdirect plays for its recursive/direct-mapped
// kernel virtual addresses. A real system has several disjoint physical
// regions live at once (the kernel heap, and each MMIO device at its
// own fixed address), so unlike a single Vdirect window this keeps one
// entry per region rather than assuming they are contiguous.
package physmem

import "unsafe"

type window struct {
	base     uint32
	size     uint32
	hostBase uintptr
	pin      any
}

var windows []window

// Init installs (or, called again with the same physBase, replaces) a
// direct-map window: physical address physBase corresponds to the first
// byte of arena. arena is retained to keep it alive for the window's
// lifetime. Tests call this once per region they touch — the kernel
// heap, and separately for each simulated MMIO device.
func Init(physBase uint32, arena []byte) {
	if len(arena) == 0 {
		panic("physmem: empty arena")
	}
	w := window{
		base:     physBase,
		size:     uint32(len(arena)),
		hostBase: uintptr(unsafe.Pointer(&arena[0])),
		pin:      arena,
	}
	for i := range windows {
		if windows[i].base == physBase {
			windows[i] = w
			return
		}
	}
	windows = append(windows, w)
}

// Ptr translates a physical address into a host pointer valid for this
// process's lifetime. It panics if phys falls outside every window
// installed by Init — an unmapped physical address is a kernel bug in
// both the real and the hosted build.
func Ptr(phys uint32) unsafe.Pointer {
	for _, w := range windows {
		if phys >= w.base && phys-w.base < w.size {
			return unsafe.Pointer(w.hostBase + uintptr(phys-w.base))
		}
	}
	panic("physmem: no mapped window for physical address")
}

// Base returns the physical base of the first window installed by
// Init, matching the original single-window call pattern most callers
// use (one kernel-heap region plus occasional device windows looked up
// by Ptr alone).
func Base() uint32 {
	if len(windows) == 0 {
		return 0
	}
	return windows[0].base
}
