// Package sched implements the three-priority round-robin scheduler:
// driver/server/user ready queues, a blocked queue, the master "all
// processes" list, a dedicated idle process, and the fixed-capacity
// process pool the rest of the kernel draws from. Grounded on biscuit's
// proc.Proc_t pool and its Userful/Runnable/Blocked bookkeeping, adapted
// from biscuit's dynamically allocated Proc_t records and single ready
// queue to the spec's statically pooled records and priority queues.
package sched

import (
	"github.com/danielg0/quartos/internal/accnt"
	"github.com/danielg0/quartos/internal/kerrors"
	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/list"
	"github.com/danielg0/quartos/pagealloc"
	"github.com/danielg0/quartos/paging"
	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/uelf"
)

// Priority selects which ready queue a newly created process lands on.
type Priority int

const (
	PriorityDriver Priority = iota
	PriorityServer
	PriorityUser
)

// Mapping is one additional virtual-to-physical mapping Create installs
// after loading the ELF image, typically the UART device page.
type Mapping struct {
	VA            uint32
	Phys          uint32
	R, W, X, User bool
}

// Scheduler owns the process pool and every list a process can be a
// member of. It is not safe for concurrent use from more than one hart;
// spec.md's concurrency model assumes a single active hart at a time.
type Scheduler struct {
	alloc *pagealloc.Allocator

	pool     [klimits.MaxProcs]proc.Process
	poolUsed int

	all    list.List
	driver list.List
	server list.List
	user   list.List
	blocked list.List

	idle *proc.Process

	// lastDispatch is the accnt.Uptime() reading at the last call to
	// Next; the gap between it and the current reading is what gets
	// charged to current's accounting counters below.
	lastDispatch int64
}

// New creates a scheduler with its lists initialized and its idle
// process installed from idleBinary. idleBinary is typically a tiny
// embedded ELF that loops on `wfi`.
func New(alloc *pagealloc.Allocator, idleBinary []byte) (*Scheduler, error) {
	s := &Scheduler{alloc: alloc}
	s.all.Init()
	s.driver.Init()
	s.server.Init()
	s.user.Init()
	s.blocked.Init()

	idle, err := s.Create("idle", idleBinary, nil, PriorityUser)
	if err != nil {
		return nil, err
	}
	s.removeFromReady(idle)
	idle.SetState(proc.Ready)
	s.idle = idle

	return s, nil
}

// Create allocates a process record from the static pool, builds a
// fresh page table, loads binary into it, installs extra mappings
// (typically the UART page), and pushes the new process onto the all
// list and the ready list matching prio.
func (s *Scheduler) Create(name string, binary []byte, mappings []Mapping, prio Priority) (*proc.Process, error) {
	if s.poolUsed >= len(s.pool) {
		return nil, kerrors.ErrOutOfMemory
	}
	p := &s.pool[s.poolUsed]
	s.poolUsed++

	root, err := paging.CreateRoot(s.alloc)
	if err != nil {
		return nil, err
	}
	entry, err := uelf.Load(s.alloc, root, binary)
	if err != nil {
		return nil, err
	}
	for _, m := range mappings {
		if err := paging.SetMapping(s.alloc, root, m.VA, m.Phys, m.R, m.W, m.X, m.User); err != nil {
			return nil, err
		}
	}

	p.ID = uint16(s.poolUsed)
	p.SetName(name)
	p.PageTable = root
	p.PC = entry
	p.Magic = klimits.ProcessMagic
	p.SetState(proc.Ready)

	s.all.PushBack(&p.AllElem)
	s.readyQueue(prio).PushBack(&p.Elem)

	return p, nil
}

func (s *Scheduler) readyQueue(prio Priority) *list.List {
	switch prio {
	case PriorityDriver:
		return &s.driver
	case PriorityServer:
		return &s.server
	default:
		return &s.user
	}
}

// removeFromReady unlinks p from whatever ready list Create just put it
// on; used only to pull the idle process back off before it is ever
// dispatched through the normal ready-queue path.
func (s *Scheduler) removeFromReady(p *proc.Process) {
	if p.Elem.InList() {
		s.user.Remove(&p.Elem)
	}
}

// Idle returns the scheduler's dedicated idle process.
func (s *Scheduler) Idle() *proc.Process { return s.idle }

// Processes returns every process currently on the all list, live or
// idle, for diagnostic consumers like kernel.DumpAccounting — the
// scheduling queues alone would miss whichever process is Running and
// off every queue.
func (s *Scheduler) Processes() []*proc.Process {
	procs := make([]*proc.Process, 0, s.poolUsed)
	for e := s.all.First(); !s.all.AtEnd(e); e = e.Next() {
		procs = append(procs, fromAllElem(e))
	}
	return procs
}

// Next implements spec.md §4.5's scheduling decision. current is the
// process that was running before this call (nil only on the very
// first scheduling decision, which the initial-launch path in trap
// bypasses entirely by never calling Next).
func (s *Scheduler) Next(current *proc.Process) *proc.Process {
	now := accnt.Uptime()
	if current != nil {
		current.Accnt.Utadd(now - s.lastDispatch)
	}
	s.lastDispatch = now

	if current != nil && current != s.idle {
		switch current.GetState() {
		case proc.Running:
			return current
		case proc.Ready:
			s.user.PushBack(&current.Elem)
		case proc.Blocked:
			s.blocked.PushBack(&current.Elem)
		case proc.Dying:
			s.reap(current)
		}
	} else if current == s.idle {
		s.idle.SetState(proc.Ready)
	}

	next := s.popReady()
	if next == nil {
		next = s.idle
	}
	next.SetState(proc.Running)
	return next
}

func (s *Scheduler) popReady() *proc.Process {
	for _, q := range []*list.List{&s.driver, &s.server, &s.user} {
		if e := q.PopFront(); e != nil {
			return list.Data[proc.Process](e, elemOffset)
		}
	}
	return nil
}

// fromAllElem recovers the *proc.Process owning e, where e is known to
// be a process's AllElem hook (as opposed to its Elem ready/blocked
// hook — the two live at different offsets within Process).
func fromAllElem(e *list.Elem) *proc.Process {
	return list.Data[proc.Process](e, allElemOffset)
}

// reap removes a Dying process from the all list. Per spec.md's
// Non-goals, memory reclamation (freeing its page table and pages) is
// not implemented; the record simply stops being scheduled.
func (s *Scheduler) reap(p *proc.Process) {
	s.all.Remove(&p.AllElem)
}

// Unblock moves p from the blocked queue to the user-ready queue,
// transitioning it to Ready per spec.md §4.5's resolved Open Question
// (the spec states explicitly: Ready, not Running).
func (s *Scheduler) Unblock(p *proc.Process) {
	s.blocked.Remove(&p.Elem)
	p.SetState(proc.Ready)
	s.user.PushBack(&p.Elem)
}

// UnblockByID scans the all list for a process with the given ID and
// unblocks it. Returns kerrors.ErrProcessNotFound if no such process is
// on the all list.
func (s *Scheduler) UnblockByID(id uint16) error {
	for e := s.all.First(); !s.all.AtEnd(e); e = e.Next() {
		p := fromAllElem(e)
		if p.ID == id {
			s.Unblock(p)
			return nil
		}
	}
	return kerrors.ErrProcessNotFound
}
