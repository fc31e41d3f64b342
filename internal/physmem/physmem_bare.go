//go:build quartos_bare

// Bare-metal counterpart to physmem.go: machine mode is never translated
// by Sv32 (only S/U mode is), so a physical address already is the
// pointer the CPU will dereference; no direct-map window is needed.
package physmem

import "unsafe"

// Init is a no-op on real hardware: physical addresses are pointers.
func Init(physBase uint32, arena []byte) {}

// Ptr returns phys reinterpreted as a pointer; identity on real hardware.
func Ptr(phys uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(phys))
}

// Base always reads as 0 on real hardware: there is no window offset.
func Base() uint32 { return 0 }
