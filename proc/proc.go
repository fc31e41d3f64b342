// Package proc defines the process record the rest of the kernel
// revolves around: a fixed-size, page-aligned struct the trap stub
// reaches into using compile-time offsets, following spec.md §3's
// layout invariant. Structurally this plays the role biscuit splits
// across proc.Proc_t (process state) and the per-thread Tnote_t
// (tinfo.Tnote_t) the runtime keeps in a scratch register; this kernel
// has no runtime of its own backing user threads, so both roles merge
// into one record, addressed directly through mscratch instead of a
// goroutine-local pointer.
package proc

import (
	"unsafe"

	"github.com/danielg0/quartos/internal/accnt"
	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/list"
	"github.com/danielg0/quartos/paging"
)

// State is a process's scheduling state.
type State int32

const (
	Running State = iota
	Ready
	Blocked
	// Dying marks a process that faulted outside the stack-growth
	// policy or otherwise needs to be torn down; spec.md §4.3/§7 call
	// this out as the intended production behavior in place of the
	// MVP's panic.
	Dying
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Ready:
		return "ready"
	case Blocked:
		return "blocked"
	case Dying:
		return "dying"
	default:
		return "invalid"
	}
}

// Regs holds the 31 saved integer registers in the exact order the trap
// stub's save/restore sequence uses: ra, sp, gp, tp, t0-t2, s0, s1,
// a0-a7, s2-s11, t3-t6. x0 (zero) is never saved; x31 (t6) is the last
// entry and is the register the stub itself uses as scratch via
// sscratch during entry/exit.
type Regs struct {
	RA, SP, GP, TP uint32
	T0, T1, T2     uint32
	S0, S1         uint32
	A0, A1, A2, A3 uint32
	A4, A5, A6, A7 uint32
	S2, S3, S4, S5 uint32
	S6, S7, S8, S9 uint32
	S10, S11       uint32
	T3, T4, T5, T6 uint32
}

// header holds every Process field except the trailing kernel stack. It
// exists as its own type purely so headerSize below can be computed
// without Process referring to its own size — Stack is then sized as
// "whatever is left in one page", guaranteeing Stack ends exactly at the
// record's last byte with no manual byte arithmetic to keep in sync by
// hand.
type header struct {
	ID   uint16
	Name [klimits.NameLen]byte
	Vers State

	Saved      Regs
	PC         uint32
	FaultCause uint32

	PageTable paging.Root

	AllElem list.Elem
	Elem    list.Elem

	Magic uint16

	Accnt accnt.Accnt
}

const headerSize = unsafe.Sizeof(header{})
const stackBytes = klimits.PageSize - headerSize

// Process is the per-process record. Its layout is fixed and flat (no
// embedded interfaces, no slices), and because Stack is sized as
// klimits.PageSize - headerSize, unsafe.Sizeof(Process{}) is exactly
// klimits.PageSize and Stack ends at the last byte of the record on any
// platform; the trap stub computes sp as record_base+PageSize from these
// facts alone. See layout.go for the ABI offset constants the stub
// relies on and layout_bare.go for the compile-time assertions of the
// freestanding build. A hosted (non-quartos_bare) build uses 8-byte
// pointers, so its header is larger and its Stack correspondingly
// smaller.
type Process struct {
	header
	Stack [stackBytes]byte
}

// GetState returns p's current scheduling state.
func (p *Process) GetState() State { return p.Vers }

// SetState transitions p to s. Callers are responsible for moving p
// between the scheduler's queues to match; SetState itself only records
// the state.
func (p *Process) SetState(s State) { p.Vers = s }

// SetName copies name into the fixed-length Name field, zero-padding or
// truncating as needed per spec.md §3.
func (p *Process) SetName(name string) {
	for i := range p.Name {
		p.Name[i] = 0
	}
	copy(p.Name[:], name)
}

// NameString returns the process name up to its first NUL byte.
func (p *Process) NameString() string {
	n := 0
	for n < len(p.Name) && p.Name[n] != 0 {
		n++
	}
	return string(p.Name[:n])
}

// KernelSP returns the address one-past-the-end of p's record: the
// value the trap stub loads into sp/fp before calling into the
// kernel-level handler, per spec.md §4.6 step 7.
func (p *Process) KernelSP() uintptr {
	return uintptr(unsafe.Pointer(p)) + unsafe.Sizeof(Process{})
}
