// Package kernel ties the rest of quartos together into the single
// process-wide struct spec.md §9 calls for: "model [the scheduler's
// lists, the page allocator, the registered trap-handler table, and the
// running process] as a single Kernel struct owned by the top-level
// entry point." Everything reachable from a Kernel value is ordinary Go
// state; the only genuinely global things left are the ones that must
// cross the hand-written assembly boundary by bare symbol name —
// riscv.Sim/the real CSRs, and trap.active, both already singletons in
// their own packages for exactly that reason — plus trap.OnKill, which
// New points at this Kernel's kill diagnostic.
package kernel

import (
	"fmt"

	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/pagealloc"
	"github.com/danielg0/quartos/paging"
	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/riscv"
	"github.com/danielg0/quartos/sched"
	"github.com/danielg0/quartos/trap"
	"github.com/danielg0/quartos/uart"
)

// Kernel owns the allocator, scheduler, and trap core spec.md's control
// flow paragraph brings up in this order at boot.
type Kernel struct {
	Alloc *pagealloc.Allocator
	Sched *sched.Scheduler
	Trap  *trap.Core

	// binaries retains each live process's loaded ELF bytes, keyed by
	// ID, purely for symbolName's use diagnosing a kill — uelf.Load
	// itself discards the binary once the LOAD segments are copied in,
	// since nothing else in the scheduling path needs it.
	binaries map[uint16][]byte
}

// New brings up the page allocator, the scheduler (which itself loads
// the idle process from idleBinary), and the trap core with its timer
// and page-fault handlers registered — spec.md §2's control flow up to,
// but not including, creating the initial user process and launching
// it, which the caller does with Spawn and Boot once it has an initial
// binary to load.
func New(heapBase, heapSize uint32, idleBinary []byte) (*Kernel, error) {
	alloc := pagealloc.New(heapBase, heapSize)
	s, err := sched.New(alloc, idleBinary)
	if err != nil {
		return nil, fmt.Errorf("kernel: bringing up scheduler: %w", err)
	}
	core := trap.NewCore(s, alloc)
	k := &Kernel{Alloc: alloc, Sched: s, Trap: core, binaries: make(map[uint16][]byte)}
	trap.OnKill = k.diagnoseKill
	return k, nil
}

// uartMapping is the conventional UART device mapping spec.md §6 says
// user programs expect: RW at klimits.UARTUserVA, backed by the real
// UART MMIO page.
func uartMapping() sched.Mapping {
	return sched.Mapping{
		VA: klimits.UARTUserVA, Phys: uart.Base,
		R: true, W: true, X: false, User: true,
	}
}

// Spawn creates a user process with the conventional UART mapping
// already installed — the shape every end-to-end scenario in spec.md §8
// uses — on the given priority's ready queue.
func (k *Kernel) Spawn(name string, binary []byte, prio sched.Priority) (*proc.Process, error) {
	p, err := k.Sched.Create(name, binary, []sched.Mapping{uartMapping()}, prio)
	if err != nil {
		return nil, err
	}
	k.binaries[p.ID] = binary
	return p, nil
}

// diagnoseKill is trap.OnKill's target: it prints the offending
// process's name, the faulting address, and (best-effort) the
// containing symbol, to UART — a kill is not a kernel panic, so Fail is
// not involved, but losing a process silently would make the
// illegal-fault scenario in spec.md §8 impossible to debug on real
// hardware where there is no debugger attached.
func (k *Kernel) diagnoseKill(p *proc.Process, faultAddr uint32) {
	name := symbolName(k.binaries[p.ID], faultAddr)
	uart.PutString(fmt.Sprintf("kill: process %q faulted at %#08x (%s)\r\n", p.NameString(), faultAddr, name))
}

// Boot performs the rest of spec.md §2's control flow: install the trap
// base, point the trap stub's Go-side dispatch target at this Kernel's
// Core, enable init's page table, and hand-launch init per §4.6's
// "initial launch" — the one non-trap-mediated entry to user mode. It
// does not return on the real target; on the hosted build it returns
// once riscv.Sim has recorded the simulated mret.
func (k *Kernel) Boot(init *proc.Process) {
	riscv.WriteMtvec(trap.StubAddr())
	trap.Install(k.Trap)
	paging.Enable(init.PageTable)
	trap.Launch(init)
}
