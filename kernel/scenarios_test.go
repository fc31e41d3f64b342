package kernel

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/internal/physmem"
	"github.com/danielg0/quartos/pagealloc"
	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/riscv"
	"github.com/danielg0/quartos/sched"
	"github.com/danielg0/quartos/timer"
	"github.com/danielg0/quartos/trap"
	"github.com/danielg0/quartos/uart"
	"golang.org/x/tools/txtar"
)

// loadParams parses a scenario's "params.txt" file (simple "key: value"
// lines) out of its txtar archive. The archive's leading comment holds
// the scenario's human-readable description and is not otherwise used
// by the test — it documents intent for a reader of testdata/ rather
// than driving any assertion.
func loadParams(t *testing.T, name string) map[string]string {
	t.Helper()
	arc, err := txtar.ParseFile(filepath.Join("..", "testdata", name))
	if err != nil {
		t.Fatalf("parsing %s: %v", name, err)
	}
	params := map[string]string{}
	for _, f := range arc.Files {
		if f.Name != "params.txt" {
			continue
		}
		for _, line := range strings.Split(string(f.Data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			k, v, ok := strings.Cut(line, ":")
			if !ok {
				t.Fatalf("%s: malformed params line %q", name, line)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return params
}

func hexParam(t *testing.T, params map[string]string, key string) uint32 {
	t.Helper()
	v, ok := params[key]
	if !ok {
		t.Fatalf("missing param %q", key)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 32)
	if err != nil {
		t.Fatalf("param %q = %q is not hex: %v", key, v, err)
	}
	return uint32(n)
}

// newScenarioCore mirrors newTestKernel/newTestCore but returns the
// lower-level trap.Core and sched.Scheduler the fault-driven scenarios
// below drive directly, the same pair trap_test.go's own tests use.
func newScenarioCore(t *testing.T, npages int) (*trap.Core, *sched.Scheduler, *pagealloc.Allocator) {
	t.Helper()
	physmem.Init(testHeapBase, make([]byte, npages*klimits.PageSize))
	physmem.Init(uart.Base, make([]byte, 8))
	physmem.Init(timer.MtimeAddr, make([]byte, 8))
	physmem.Init(timer.MtimeCmpAddr, make([]byte, 8))

	// Pre-set the line-status register's TX-empty bit (offset 5, bit 5),
	// the same way kernel_test.go and uart_test.go do, so any PutByte
	// call against this simulated UART returns instead of spinning
	// forever on an always-zero register.
	lineStatus := (*byte)(physmem.Ptr(uart.Base + 5))
	*lineStatus = 1 << 5

	alloc := pagealloc.New(testHeapBase, uint32(npages*klimits.PageSize))
	s, err := sched.New(alloc, buildNopELF(0x1000, 0x1000))
	if err != nil {
		t.Fatalf("sched.New: %v", err)
	}
	return trap.NewCore(s, alloc), s, alloc
}

// TestScenarioHelloWorldKillsOnUnmappedJump exercises the kernel-side
// half of the hello-world scenario: this test build has no RV32
// instruction interpreter to run the user ELF's own store/jump
// sequence, so it stands in for "the process wrote its message" with a
// direct uart.PutString and focuses the real assertion on the fault
// path that follows — a jump far outside the stack-growth window kills
// the process rather than resuming it.
func TestScenarioHelloWorldKillsOnUnmappedJump(t *testing.T) {
	params := loadParams(t, "hello-world.txtar")
	core, s, _ := newScenarioCore(t, 16)

	p, err := s.Create("hello", buildNopELF(0x1000, 0x1000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	running := s.Next(nil)
	uart.PutString(params["message"] + "\r\n")

	running.Saved.SP = hexParam(t, params, "sp")
	running.FaultCause = hexParam(t, params, "fault_va")

	next := core.Dispatch(uint32(riscv.LoadPageFault), running)
	if next != s.Idle() {
		t.Fatalf("expected idle once %s faulted outside its stack-growth window, got %v", p.NameString(), next.NameString())
	}
	if p.GetState() != proc.Dying {
		t.Fatalf("state = %v, want Dying", p.GetState())
	}
}

// TestScenarioFibonacci40KillsOnUnmappedJump is the same shape as
// TestScenarioHelloWorldKillsOnUnmappedJump with the fibonacci-40
// fixture, confirming the fault path's outcome does not depend on
// which message the process had printed beforehand.
func TestScenarioFibonacci40KillsOnUnmappedJump(t *testing.T) {
	params := loadParams(t, "fibonacci-40.txtar")
	core, s, _ := newScenarioCore(t, 16)

	p, err := s.Create("fib40", buildNopELF(0x1000, 0x1000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	running := s.Next(nil)
	uart.PutString(params["message"] + "\r\n")

	running.Saved.SP = hexParam(t, params, "sp")
	running.FaultCause = hexParam(t, params, "fault_va")

	next := core.Dispatch(uint32(riscv.LoadPageFault), running)
	if next != s.Idle() {
		t.Fatalf("expected idle once %s faulted outside its stack-growth window, got %v", p.NameString(), next.NameString())
	}
}

// TestScenarioTimerPreemptionSharesCPU drives repeated timer interrupts
// across two ready processes and checks neither starves — the same
// invariant the timer-preemption fixture describes in prose.
func TestScenarioTimerPreemptionSharesCPU(t *testing.T) {
	params := loadParams(t, "timer-preemption.txtar")
	ticks, err := strconv.Atoi(params["ticks"])
	if err != nil {
		t.Fatalf("ticks: %v", err)
	}
	minEach, err := strconv.Atoi(params["min_dispatches_each"])
	if err != nil {
		t.Fatalf("min_dispatches_each: %v", err)
	}

	core, s, _ := newScenarioCore(t, 16)
	a, err := s.Create("A", buildNopELF(0x1000, 0x1000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create A: %v", err)
	}
	b, err := s.Create("B", buildNopELF(0x2000, 0x2000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create B: %v", err)
	}

	dispatches := map[*proc.Process]int{a: 0, b: 0}
	current := s.Next(nil)
	dispatches[current]++

	mcause := uint32(1)<<31 | uint32(riscv.TimerInterruptM-16)
	for i := 0; i < ticks; i++ {
		current = core.Dispatch(mcause, current)
		dispatches[current]++
	}

	if dispatches[a] < minEach {
		t.Fatalf("A dispatched %d times in %d ticks, want at least %d", dispatches[a], ticks, minEach)
	}
	if dispatches[b] < minEach {
		t.Fatalf("B dispatched %d times in %d ticks, want at least %d", dispatches[b], ticks, minEach)
	}
}

// TestScenarioStackGrowthFaultAddsOnePage checks the faulting process
// resumes with one new stack page mapped, and that the resident page
// count grows within the fixture's range: the leaf page, plus possibly
// a level-2 table.
func TestScenarioStackGrowthFaultAddsOnePage(t *testing.T) {
	params := loadParams(t, "stack-growth-fault.txtar")
	core, s, alloc := newScenarioCore(t, 16)

	p, err := s.Create("a", buildNopELF(0x1000, 0x1000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	running := s.Next(nil)

	sp := hexParam(t, params, "sp")
	offset := hexParam(t, params, "fault_offset")
	running.Saved.SP = sp
	running.FaultCause = sp + offset

	before := alloc.Used()
	next := core.Dispatch(uint32(riscv.LoadPageFault), running)

	if next != p {
		t.Fatal("process should resume itself after a successfully handled stack-growth fault")
	}
	if next.GetState() != proc.Running {
		t.Fatalf("state = %v, want Running", next.GetState())
	}
	// The leaf data page always costs one; a second page is spent on a
	// level-2 table if the faulting address's megapage region had no
	// mapping yet, as here since sp sits far from the ELF's own mapping.
	min, _ := strconv.Atoi(params["expect_resident_delta_min"])
	max, _ := strconv.Atoi(params["expect_resident_delta_max"])
	if got := alloc.Used() - before; got < min || got > max {
		t.Fatalf("resident pages increased by %d, want between %d and %d", got, min, max)
	}
}

// TestScenarioIllegalFaultKillsProcess mirrors
// TestDispatchIllegalFaultKillsProcess, parameterized by the
// illegal-fault fixture instead of inline constants.
func TestScenarioIllegalFaultKillsProcess(t *testing.T) {
	params := loadParams(t, "illegal-fault.txtar")
	core, s, _ := newScenarioCore(t, 16)

	p, err := s.Create("a", buildNopELF(0x1000, 0x1000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	running := s.Next(nil)
	running.Saved.SP = hexParam(t, params, "sp")
	running.FaultCause = hexParam(t, params, "fault_va")

	next := core.Dispatch(uint32(riscv.LoadPageFault), running)
	if next != s.Idle() {
		t.Fatalf("expected idle once %s was killed, got %v", p.NameString(), next.NameString())
	}
	if p.GetState() != proc.Dying {
		t.Fatalf("state = %v, want Dying", p.GetState())
	}
}

// TestScenarioIdleFallbackThenUnblock exercises the idle-fallback
// fixture: a process that blocks immediately yields idle, and
// unblocking it by ID makes the next scheduling decision return it,
// Running.
func TestScenarioIdleFallbackThenUnblock(t *testing.T) {
	loadParams(t, "idle-fallback.txtar") // no parameters; confirms the fixture still parses
	_, s, _ := newScenarioCore(t, 16)

	p, err := s.Create("blocker", buildNopELF(0x1000, 0x1000), nil, sched.PriorityUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	running := s.Next(nil)
	if running != p {
		t.Fatal("expected the newly created process dispatched first")
	}

	running.SetState(proc.Blocked)
	next := s.Next(running)
	if next != s.Idle() {
		t.Fatalf("expected idle once the only process blocked, got %v", next.NameString())
	}

	if err := s.UnblockByID(p.ID); err != nil {
		t.Fatalf("UnblockByID: %v", err)
	}
	next = s.Next(next)
	if next != p {
		t.Fatalf("expected %s rescheduled after unblocking, got %v", p.NameString(), next.NameString())
	}
	if next.GetState() != proc.Running {
		t.Fatalf("state = %v, want Running", next.GetState())
	}
}
