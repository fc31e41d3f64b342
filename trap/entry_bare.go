//go:build quartos_bare

// Entry points stub_bare.s calls into. Like riscv/csr_bare.s, stub_bare.s
// is real RV32 assembly assembled by the project's own freestanding
// build harness, not `cmd/asm` — there is no GOARCH=riscv32. This file
// documents and names the Go side of that boundary; the calling
// convention itself (argument registers, stack discipline at the call
// site) is the build harness's concern, out of scope per spec.md §6.
package trap

import (
	"unsafe"

	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/riscv"
)

// active is the one Core the freestanding image installs at boot; the
// stub has no other way to reach it since it calls by bare symbol name,
// not through a Go value it holds.
var active *Core

// Install registers core as the target of HandleTrap. Called once from
// kernel init, after NewCore.
func Install(core *Core) { active = core }

// HandleTrap is stub_bare.s's call target (step 8 of spec.md §4.6's trap
// stub): running is the process whose register file the stub just
// saved, with PC and FaultCause already populated from mepc/mtval. It
// writes the process the stub should resume into mscratch, where the
// stub's return path reads it, and also returns it.
//
//go:nosplit
func HandleTrap(mcauseVal uint32, runningPtr unsafe.Pointer) unsafe.Pointer {
	running := (*proc.Process)(runningPtr)
	next := active.Dispatch(mcauseVal, running)
	riscv.WriteMscratch(uint32(uintptr(unsafe.Pointer(next))))
	return unsafe.Pointer(next)
}

// InvalidRunningPanic is stub_bare.s's invalid_running path's call
// target: mscratch failed pointer validation (step 3 of spec.md §4.6).
// This is the one trap-stub failure mode spec.md §7 singles out as
// catching memory corruption rather than a plain kernel bug; it panics
// unconditionally, the kernel stack already re-established by the
// caller.
//
//go:nosplit
func InvalidRunningPanic(faultPC uint32, badPtr unsafe.Pointer) {
	panic("trap: invalid mscratch pointer at pc")
}

// StubAddr returns the link-time address of trap_stub, implemented in
// stub_bare.s. Kernel init passes it straight to riscv.WriteMtvec.
func StubAddr() uint32
