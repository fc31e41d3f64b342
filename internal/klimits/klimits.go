// Package klimits collects the kernel's build-time constants: page
// geometry, process pool sizing, and the stack-growth ceiling. Grouping
// them here (rather than scattering magic numbers through paging, proc,
// and sched) follows biscuit's limits.Syslimit_t, adapted from a runtime
// struct of tunables to a freestanding kernel's compile-time constants —
// there is no filesystem at boot to read a config file from.
package klimits

const (
	// PageSize is the Sv32 page size in bytes.
	PageSize = 4096

	// PTEsPerTable is the number of 32-bit entries in one page table page.
	PTEsPerTable = PageSize / 4

	// MaxProcs bounds the static process record pool.
	MaxProcs = 4096

	// ProcessMagic is the sentinel the trap stub checks before trusting
	// a pointer it reads out of mscratch.
	ProcessMagic = 0x242

	// NameLen is the fixed, zero-padded process name length.
	NameLen = 16

	// NumSavedRegs is the number of integer registers the trap stub
	// saves and restores, per the canonical order in spec.md §3.
	NumSavedRegs = 31

	// MaxStack is the ceiling on demand-grown user stack size (8 MiB),
	// measured down from the top of the 32-bit address space.
	MaxStack = 8 * 1024 * 1024

	// KernelHeapNibbleLow and KernelHeapNibbleHigh bound the high
	// nibble a valid mscratch pointer must fall in, i.e. addresses in
	// [0x8000_0000, 0xC000_0000).
	KernelHeapNibbleLow  = 0x8
	KernelHeapNibbleHigh = 0xB

	// UARTUserVA is the conventional virtual address user programs
	// expect the UART MMIO page mapped at.
	UARTUserVA = 0x5000

	// TimerPeriodSeconds is how far into the future each timer
	// handler invocation reprograms mtimecmp.
	TimerPeriodSeconds = 1
)
