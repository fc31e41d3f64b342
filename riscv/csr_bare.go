//go:build quartos_bare

// Package riscv's bare-metal CSR accessors. Gated behind the quartos_bare
// build tag, the way usbarmory-tamago gates its hand-written MMU
// assembly behind "+build tamago,arm": the accessors below only make
// sense linked against the freestanding RV32 kernel image, never a
// hosted `go test` binary, and the upstream Go toolchain has no RV32
// (GOARCH=riscv32 does not exist; only riscv64) assembler to emit them
// for in the first place. The freestanding build supplies its own
// assembler/linker pass over csr_bare.s; see the build harness (out of
// scope per spec.md §6).
package riscv

// ReadMscratch returns the current mscratch CSR value.
func ReadMscratch() uint32

// WriteMscratch installs v into mscratch.
func WriteMscratch(v uint32)

// ReadMepc returns the current mepc CSR value.
func ReadMepc() uint32

// WriteMepc installs v into mepc.
func WriteMepc(v uint32)

// ReadMcause returns the current mcause CSR value.
func ReadMcause() uint32

// ReadMtval returns the current mtval CSR value.
func ReadMtval() uint32

// WriteSatp installs v into satp and issues sfence.vma to make the
// change visible to subsequent translations.
func WriteSatp(v uint32)

// WriteMtvec installs the trap vector base address (with mode bits
// already folded in by the caller).
func WriteMtvec(v uint32)

// ReadMstatus returns the current mstatus CSR value.
func ReadMstatus() uint32

// WriteMstatus installs v into mstatus.
func WriteMstatus(v uint32)

// Mret performs the machine-mode trap return: restores privilege from
// mstatus.MPP and jumps to mepc. It does not return to its caller.
func Mret()

// ClearPMP programs PMP entry 0 to grant read/write/execute over the
// whole address space, so what user mode (post-mret) may access is
// restricted by the page table alone.
func ClearPMP()
