// Package accnt accumulates per-process CPU-time accounting, adapted
// from biscuit's accnt.Accnt_t. The teacher's version times itself
// against time.Now(), which depends on an OS-backed monotonic clock;
// this kernel has no such clock in machine mode, so Now reads a package
// counter the timer trap handler advances on every tick instead (see
// timerHandler in the trap package). The bookkeeping shape — two atomically-updated
// nanosecond counters, a mutex for consistent snapshots, merge on
// process exit — survives unchanged.
package accnt

import (
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats the large nanosecond counters in String with
// thousands separators, the same x/text/message idiom the teacher's
// toolchain side uses for byte/count diagnostics — a raw %d on a
// multi-day uptime in nanoseconds is unreadable at a glance.
var printer = message.NewPrinter(language.English)

// ticks counts nanoseconds of elapsed machine uptime as advanced by the
// timer handler; it stands in for the wall clock the teacher's Now used.
var ticks int64

// AdvanceTicks is called by the timer interrupt handler with the
// duration, in nanoseconds, since the previous tick.
func AdvanceTicks(deltaNS int64) {
	atomic.AddInt64(&ticks, deltaNS)
}

// Uptime returns the kernel's current uptime counter, in nanoseconds.
// It is the package-level form of (*Accnt).Now, for callers (the
// scheduler's dispatch path) that need the clock without charging any
// particular process's counters.
func Uptime() int64 {
	return atomic.LoadInt64(&ticks)
}

// Accnt accumulates user and system CPU time for one process, in
// nanoseconds. The embedded mutex lets Fetch produce a consistent
// snapshot of both counters together.
type Accnt struct {
	Userns int64
	Sysns  int64
	sync.Mutex
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// Now returns the kernel's current uptime counter, in nanoseconds.
func (a *Accnt) Now() int64 {
	return atomic.LoadInt64(&ticks)
}

// IOTime removes time spent waiting for I/O from system time.
func (a *Accnt) IOTime(since int64) {
	a.Systadd(-(a.Now() - since))
}

// SleepTime removes time spent blocked from system time.
func (a *Accnt) SleepTime(since int64) {
	a.Systadd(-(a.Now() - since))
}

// Finish adds the time since inttime to system time, at process exit.
func (a *Accnt) Finish(inttime int64) {
	a.Systadd(a.Now() - inttime)
}

// Add merges n's counters into a, used when a reaped child's usage is
// folded into its parent per the wait()-family accounting convention.
func (a *Accnt) Add(n *Accnt) {
	a.Lock()
	a.Userns += n.Userns
	a.Sysns += n.Sysns
	a.Unlock()
}

// Snapshot is a consistent, lock-protected copy of a's counters.
type Snapshot struct {
	Userns int64
	Sysns  int64
}

// Fetch returns a consistent snapshot of a's accounting counters.
func (a *Accnt) Fetch() Snapshot {
	a.Lock()
	s := Snapshot{Userns: a.Userns, Sysns: a.Sysns}
	a.Unlock()
	return s
}

// String renders a Snapshot for diagnostic dumps (the panic path,
// quartosprof), with thousands separators on both counters.
func (s Snapshot) String() string {
	return printer.Sprintf("user=%dns sys=%dns", s.Userns, s.Sysns)
}
