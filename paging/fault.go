package paging

import (
	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/pagealloc"
)

// HandleFault implements spec.md §4.3's stack-growth policy for
// InstrPageFault/LoadPageFault/StorePageFault: if the faulting address
// lies at or above the process's stack pointer, and that stack pointer
// is still within the 8 MiB stack ceiling, grow the stack by one
// read/write, non-executable, user page at the faulting address and
// report success so the caller can resume the process. Otherwise the
// access is illegal and ErrIllegalFault is returned — the caller then
// follows the MVP policy of killing the process (spec.md §7).
//
// All arithmetic here is unsigned uint32 comparison deliberately: the
// threshold sp >= UINT32_MAX-MaxStack only behaves correctly near the
// top of the address space if wraparound is never introduced by a
// signed interpretation.
func HandleFault(alloc *pagealloc.Allocator, root Root, faultAddr, sp uint32) error {
	const maxUint32 = ^uint32(0)
	threshold := maxUint32 - uint32(klimits.MaxStack)

	if faultAddr >= sp && sp >= threshold {
		pageVA := faultAddr &^ (klimits.PageSize - 1)
		_, err := CreatePage(alloc, root, pageVA, true, true, false, true)
		return err
	}
	return ErrIllegalFault
}
