package trap

import (
	"unsafe"

	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/riscv"
)

// Launch implements spec.md §4.6's initial launch: the one-shot,
// non-trap-mediated path from kernel init into the first user process.
// It clears PMP, points mscratch at p, sets mepc to p's entry PC, drops
// mstatus.MPP to user mode, and issues mret. It does not return on the
// real target; riscv.Mret is documented as not returning to its caller.
//
// This is portable Go, not assembly: riscv.WriteMscratch/WriteMepc/
// WriteMstatus/Mret are implemented both for the freestanding target
// (real CSR writes, riscv/csr_bare.s) and for hosted builds (riscv.Sim,
// riscv/csr_sim.go), so a test can call Launch and assert against
// riscv.Sim exactly as spec.md §8's scenarios describe the one-shot
// path behaving. Launch does not load p.Saved into the integer
// registers: on the real target the process starts with whatever
// register values are live at the mret, and a hosted build has no
// registers to load into; the test only checks the CSR-level setup.
func Launch(p *proc.Process) {
	riscv.ClearPMP()
	riscv.WriteMscratch(uint32(uintptr(unsafe.Pointer(p))))
	riscv.WriteMepc(p.PC)
	riscv.WriteMstatus(riscv.SetMPP(riscv.ReadMstatus(), riscv.MStatusMPPUser))
	p.SetState(proc.Running)
	riscv.Mret()
}
