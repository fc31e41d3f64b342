// Package riscv names the RV32IMA + Zicsr constants shared by paging and
// trap: Sv32 PTE bit layout, CSR bit fields, and the trap-kind encoding.
// Splitting these out of both packages follows gopher-os's kernel/cpu
// vs. kernel/mem/vmm seam — two packages that both need the same
// architecture constants get a third, narrower package instead of one
// importing the other for unrelated reasons.
package riscv

// PTE bit positions and masks, Sv32 (RISC-V privileged spec, "Sv32: Page
// Table Entry"). Leaves encode r/w/x/u directly; non-leaves must have
// all four permission bits clear.
const (
	PTEValid  uint32 = 1 << 0
	PTERead   uint32 = 1 << 1
	PTEWrite  uint32 = 1 << 2
	PTEExec   uint32 = 1 << 3
	PTEUser   uint32 = 1 << 4
	PTEGlobal uint32 = 1 << 5
	PTEAccess uint32 = 1 << 6
	PTEDirty  uint32 = 1 << 7

	pteRSWShift = 8
	ptePPNShift = 10

	PTEPermMask = PTERead | PTEWrite | PTEExec
)

// PPN extracts the 22-bit physical page number from a PTE.
func PPN(pte uint32) uint32 { return pte >> ptePPNShift }

// MakePTE assembles a PTE for physical page ppn (already shifted so its
// low bit is the page number, not a byte address) with the given flag
// bits OR'd in.
func MakePTE(ppn uint32, flags uint32) uint32 {
	return ppn<<ptePPNShift | flags
}

// IsLeaf reports whether pte encodes a leaf entry: at least one of r/w/x
// is set. A non-leaf (pointer to the next level) has all three clear.
func IsLeaf(pte uint32) bool {
	return pte&PTEPermMask != 0
}

// satp (Supervisor Address Translation and Protection) field layout for
// Sv32: MODE is the top bit, PPN the low 22.
const (
	SatpModeSv32 uint32 = 1 << 31
	satpPPNMask  uint32 = 0x3fffff
)

// MakeSatp builds the satp value to enable Sv32 translation rooted at
// the page aligned physical address root.
func MakeSatp(rootPhys uint32) uint32 {
	ppn := (rootPhys >> 12) & satpPPNMask
	return SatpModeSv32 | ppn
}

// TrapKind enumerates the mcause exception/interrupt codes the trap
// dispatcher can route on, encoding the interrupt bit as the
// conventional +16 offset rather than a separate bool field so it fits
// in a single map key.
type TrapKind uint32

const interruptBit TrapKind = 16

const (
	InstrAddrMisaligned TrapKind = 0
	InstrAccessFault    TrapKind = 1
	IllegalInstruction  TrapKind = 2
	Breakpoint          TrapKind = 3
	LoadAddrMisaligned  TrapKind = 4
	LoadAccessFault     TrapKind = 5
	StoreAddrMisaligned TrapKind = 6
	StoreAccessFault    TrapKind = 7
	ECallFromU          TrapKind = 8
	ECallFromS          TrapKind = 9
	ECallFromM          TrapKind = 11
	InstrPageFault      TrapKind = 12
	LoadPageFault       TrapKind = 13
	StorePageFault      TrapKind = 15

	SoftwareInterruptS TrapKind = interruptBit + 1
	SoftwareInterruptM TrapKind = interruptBit + 3
	TimerInterruptS    TrapKind = interruptBit + 5
	TimerInterruptM    TrapKind = interruptBit + 7
	ExternalInterruptS TrapKind = interruptBit + 9
	ExternalInterruptM TrapKind = interruptBit + 11
)

// DecodeCause turns a raw mcause CSR value into a TrapKind: the sign bit
// marks an interrupt, and the low bits name the exception/interrupt
// code.
func DecodeCause(mcause uint32) TrapKind {
	const interruptFlag = uint32(1) << 31
	code := TrapKind(mcause &^ interruptFlag)
	if mcause&interruptFlag != 0 {
		return code + interruptBit
	}
	return code
}

// mstatus.MPP (previous privilege mode) values relevant to dropping into
// user mode on initial launch.
const (
	MStatusMPPUser    uint32 = 0 << 11
	MStatusMPPMachine uint32 = 3 << 11
	mstatusMPPMask    uint32 = 3 << 11
)

// SetMPP returns mstatus with MPP replaced by mpp (one of the
// MStatusMPP* constants).
func SetMPP(mstatus, mpp uint32) uint32 {
	return mstatus&^mstatusMPPMask | mpp
}
