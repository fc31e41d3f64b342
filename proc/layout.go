package proc

import "unsafe"

// These offsets are what the trap stub (trap/stub_bare.s) actually
// encodes as immediates into its csrrw/lw/sw sequence: it never imports
// this package, it is handed these constants at assembly time. Keeping
// them here, computed via unsafe.Offsetof against the real field
// layout, means a field reorder in Process is a compile-time-visible
// change to these values rather than a silent stub/struct mismatch.
const (
	OffsetSaved      = unsafe.Offsetof(header{}.Saved)
	OffsetPC         = unsafe.Offsetof(header{}.PC)
	OffsetFaultCause = unsafe.Offsetof(header{}.FaultCause)
	OffsetMagic      = unsafe.Offsetof(header{}.Magic)
)

// stackBytes (defined in proc.go as klimits.PageSize - headerSize) makes
// Process exactly one page on any platform by construction: growing
// header always shrinks Stack by the same amount. What differs between
// the freestanding RV32 target and a hosted test build is how much of
// that page is left for Stack, since list.Elem's pointer fields are 4
// bytes on target and 8 bytes hosted. layout_bare.go asserts the
// target build still leaves a sane minimum; a hosted build never
// addresses a Process record as a real kernel stack, so no such
// assertion applies there.
