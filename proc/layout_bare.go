//go:build quartos_bare

package proc

import (
	"unsafe"

	"github.com/danielg0/quartos/internal/klimits"
)

// On the real RV32 target the per-process kernel stack is whatever is
// left in the page after header; confirm at compile time that this
// still leaves a sane minimum worth of stack, and that the record as a
// whole is still exactly one page, since the trap stub's sp =
// record_base+PageSize arithmetic assumes it without checking.
var _ [stackBytes - minBareStack]byte
var _ [unsafe.Sizeof(Process{}) - klimits.PageSize]byte
var _ [klimits.PageSize - unsafe.Sizeof(Process{})]byte

// minBareStack is a floor well under stackBytes on the 4-byte-pointer
// target build; header growing enough to threaten it would be a silent,
// severe regression the build should refuse to ship.
const minBareStack = 1024
