// Package trap implements TrapCore: the handler registry and the
// kernel-level dispatch logic spec.md §4.6 calls the "Rust-level"
// trap_handler — the Go code the machine-mode trap stub calls into once
// it has saved a process's register file and switched onto that
// process's kernel stack. The stub itself (save/restore through
// mscratch, the pointer-validation panic path, and the final mret) is
// real RV32 assembly outside what `go build` can assemble, following
// the same quartos_bare/hosted split as riscv/csr_bare.s; see
// stub_bare.s for that half of the contract and entry_bare.go for the
// assembly-callable entry points.
//
// Grounded on biscuit's trap/trap.go dispatch table (an array of
// handler funcs indexed by interrupt vector), adapted from biscuit's
// fixed-size array (biscuit only ever dispatches a handful of numbered
// vectors) to a map keyed by riscv.TrapKind, since this kernel's kind
// space includes the +16 interrupt offset and is sparser.
package trap

import (
	"fmt"

	"github.com/danielg0/quartos/internal/accnt"
	"github.com/danielg0/quartos/pagealloc"
	"github.com/danielg0/quartos/paging"
	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/riscv"
	"github.com/danielg0/quartos/sched"
	"github.com/danielg0/quartos/timer"
)

// Handler is invoked with the process that trapped; PC and FaultCause
// are already populated from mepc/mtval by the stub before the call. It
// may mutate the process's state, registers, or page table.
type Handler func(core *Core, p *proc.Process)

// Core owns the handler registry and the scheduler. One Core exists per
// kernel image; spec.md §9 models it as the sort of single global
// struct a freestanding kernel has no multi-instance use for.
type Core struct {
	sched    *sched.Scheduler
	alloc    *pagealloc.Allocator
	handlers map[riscv.TrapKind]Handler
}

// NewCore creates a Core wired to s and alloc, with the timer and
// page-fault handlers pre-registered, following spec.md §4.6's
// component list: every kernel installs these two before creating its
// first process.
func NewCore(s *sched.Scheduler, alloc *pagealloc.Allocator) *Core {
	c := &Core{
		sched:    s,
		alloc:    alloc,
		handlers: make(map[riscv.TrapKind]Handler),
	}
	c.Register(riscv.TimerInterruptM, timerHandler)
	c.Register(riscv.InstrPageFault, pageFaultHandler)
	c.Register(riscv.LoadPageFault, pageFaultHandler)
	c.Register(riscv.StorePageFault, pageFaultHandler)
	return c
}

// Register installs handler for kind. Registering the same kind twice
// panics: spec.md §4.6 calls registering a duplicate handler a build-time
// mistake, not a runtime condition to recover from.
func (c *Core) Register(kind riscv.TrapKind, handler Handler) {
	if _, dup := c.handlers[kind]; dup {
		panic(fmt.Sprintf("trap: handler already registered for kind %d", kind))
	}
	c.handlers[kind] = handler
}

// Dispatch implements spec.md §4.6's kernel-level handler: decode
// mcause, look up and invoke the registered handler, ask the scheduler
// who runs next, and enable that process's page table. It returns the
// process that should now run; entry_bare.go's assembly-callable wrapper
// writes it into mscratch and returns to the stub for context restore.
func (c *Core) Dispatch(mcause uint32, running *proc.Process) *proc.Process {
	kind := riscv.DecodeCause(mcause)
	handler, ok := c.handlers[kind]
	if !ok {
		panic(fmt.Sprintf("trap: no handler registered for kind %d", kind))
	}
	handler(c, running)

	next := c.sched.Next(running)
	paging.Enable(next.PageTable)
	return next
}

// timerHandler implements spec.md §4.6's timer handler: the running
// process is marked Ready (not Running, not Blocked — the scheduler's
// Next requeues it), and mtimecmp is reprogrammed one tick further out.
// It also advances accnt's uptime counter by the real mtime delta since
// the previous tick, converted from CLINT ticks to nanoseconds, so the
// scheduler's Utadd charging and DumpAccounting reflect actual elapsed
// time rather than a clock that never moves.
func timerHandler(core *Core, p *proc.Process) {
	now := timer.Now()
	if lastTick != 0 {
		deltaTicks := now - lastTick
		accnt.AdvanceTicks(int64(deltaTicks * nsPerSec / timer.FreqHz))
	}
	lastTick = now

	p.SetState(proc.Ready)
	timer.Set(timer.Offset(secondsPerTick))
}

// lastTick is the mtime reading at the previous timer interrupt; zero
// means "no previous tick yet", skipping the bogus first delta that
// would otherwise span all of boot-to-first-tick.
var lastTick uint64

const secondsPerTick = 1
const nsPerSec = 1_000_000_000

// pageFaultHandler implements spec.md §4.3's stack-growth policy via
// paging.HandleFault: success leaves the process Ready to resume at the
// same PC; failure marks it Dying, the documented intended design for a
// user-process fault outside the policy (spec.md §7) — as opposed to a
// kernel-invariant violation, which panics instead.
func pageFaultHandler(c *Core, p *proc.Process) {
	err := paging.HandleFault(c.alloc, p.PageTable, p.FaultCause, p.Saved.SP)
	if err != nil {
		p.SetState(proc.Dying)
		if OnKill != nil {
			OnKill(p, p.FaultCause)
		}
		return
	}
	p.SetState(proc.Ready)
}

// OnKill, if set, is called with the faulting process and address right
// before it transitions to Dying. kernel.New wires this to a diagnostic
// that looks up and demangles the faulting symbol in the process's
// loaded binary; trap has no notion of "the binary" itself (uelf
// forgets it once loaded), so the lookup lives one layer up.
var OnKill func(p *proc.Process, faultAddr uint32)
