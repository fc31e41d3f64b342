// Package paging implements Sv32 two-level page tables: per-process
// root tables, mapping creation and lookup, and MMU enable/disable.
// Ported from biscuit's vm.Vm_t/mem.Pmap_t pair (x86-64, four levels)
// down to RISC-V Sv32's two levels, keeping biscuit's separation between
// the page-table walk itself and the higher-level address-space object
// that owns the mutex and region bookkeeping — here that higher layer is
// proc.Process, not a standalone Vm_t, since this kernel gives every
// process exactly one address space and no shared/COW regions.
package paging

import (
	"github.com/danielg0/quartos/internal/kerrors"
	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/internal/physmem"
	"github.com/danielg0/quartos/pagealloc"
	"github.com/danielg0/quartos/riscv"
)

// Root identifies a process's Sv32 root page table by its physical
// address.
type Root uint32

// Table is a page-aligned array of 1024 Sv32 PTEs: one page, one
// translation level.
type Table [klimits.PTEsPerTable]uint32

func tableAt(phys uint32) *Table {
	return (*Table)(physmem.Ptr(phys))
}

func index1(va uint32) uint32 { return va >> 22 }
func index2(va uint32) uint32 { return (va >> 12) & 0x3ff }
func pageOffset(va uint32) uint32 { return va & 0xfff }

// CreateRoot allocates a fresh, all-invalid Sv32 root table.
func CreateRoot(alloc *pagealloc.Allocator) (Root, error) {
	p, err := alloc.Alloc()
	if err != nil {
		return 0, err
	}
	return Root(p), nil
}

// ensureLeafSlot walks root to the level-2 PTE governing va, creating
// the level-2 table if the level-1 entry is absent. It never creates the
// level-2 leaf itself — callers (CreatePage, SetMapping) decide what
// to install there.
//
// Leaving the level-1 allocation in place even if the caller goes on to
// fail allocating the leaf page keeps the table consistent: a present,
// empty level-2 table with no valid leaves is indistinguishable from one
// that simply has no mappings yet, so there is never a dangling
// non-leaf.
func ensureLeafSlot(alloc *pagealloc.Allocator, root Root, va uint32) (*uint32, error) {
	l1 := tableAt(uint32(root))
	pte1 := &l1[index1(va)]

	var l2phys uint32
	if *pte1&riscv.PTEValid == 0 {
		p, err := alloc.Alloc()
		if err != nil {
			return nil, err
		}
		*pte1 = riscv.MakePTE(p>>12, riscv.PTEValid)
		l2phys = p
	} else {
		if riscv.IsLeaf(*pte1) {
			panic("paging: superpage found during walk")
		}
		l2phys = riscv.PPN(*pte1) << 12
	}

	l2 := tableAt(l2phys)
	return &l2[index2(va)], nil
}

// CreatePage installs (or extends) a leaf mapping for va in root with
// the given permissions, allocating a fresh zeroed page if none is
// mapped yet. If a mapping already exists, its permissions are unioned
// with the requested ones rather than replaced — permissions grow
// monotonically under CreatePage; a caller wanting strict replacement
// uses SetMapping instead. Returns the physical address of the backing
// page either way.
func CreatePage(alloc *pagealloc.Allocator, root Root, va uint32, r, w, x, u bool) (uint32, error) {
	slot, err := ensureLeafSlot(alloc, root, va)
	if err != nil {
		return 0, err
	}

	if *slot&riscv.PTEValid == 0 {
		p, err := alloc.Alloc()
		if err != nil {
			return 0, err
		}
		*slot = riscv.MakePTE(p>>12, leafFlags(r, w, x, u))
		return p, nil
	}

	if !riscv.IsLeaf(*slot) {
		panic("paging: invalid non-leaf PTE at final translation level")
	}
	*slot |= leafFlags(r, w, x, u)
	return riscv.PPN(*slot) << 12, nil
}

// SetMapping installs a leaf pointing at the externally owned physical
// page phys (e.g. MMIO), replacing whatever was there. If a mapping
// already existed and its backing page came from alloc, that page is
// freed back to the pool first; an externally owned previous mapping is
// simply overwritten. Unlike CreatePage, permissions replace rather than
// union.
func SetMapping(alloc *pagealloc.Allocator, root Root, va uint32, phys uint32, r, w, x, u bool) error {
	slot, err := ensureLeafSlot(alloc, root, va)
	if err != nil {
		return err
	}

	if *slot&riscv.PTEValid != 0 {
		if !riscv.IsLeaf(*slot) {
			panic("paging: invalid non-leaf PTE at final translation level")
		}
		old := riscv.PPN(*slot) << 12
		if alloc.Owns(old) {
			alloc.Free(old)
		}
	}

	*slot = riscv.MakePTE(phys>>12, leafFlags(r, w, x, u))
	return nil
}

func leafFlags(r, w, x, u bool) uint32 {
	f := riscv.PTEValid | riscv.PTEAccess | riscv.PTEDirty
	if r {
		f |= riscv.PTERead
	}
	if w {
		f |= riscv.PTEWrite
	}
	if x {
		f |= riscv.PTEExec
	}
	if u {
		f |= riscv.PTEUser
	}
	return f
}

// PhysFromVirt performs a read-only Sv32 walk, returning the physical
// address of the page backing va, or ok=false if no valid leaf exists.
func PhysFromVirt(root Root, va uint32) (phys uint32, ok bool) {
	l1 := tableAt(uint32(root))
	pte1 := l1[index1(va)]
	if pte1&riscv.PTEValid == 0 {
		return 0, false
	}
	if riscv.IsLeaf(pte1) {
		panic("paging: superpage found during walk")
	}

	l2 := tableAt(riscv.PPN(pte1) << 12)
	pte2 := l2[index2(va)]
	if pte2&riscv.PTEValid == 0 {
		return 0, false
	}
	if !riscv.IsLeaf(pte2) {
		panic("paging: invalid non-leaf PTE at final translation level")
	}
	return riscv.PPN(pte2)<<12 | pageOffset(va), true
}

// Enable installs root as the active Sv32 translation and flushes stale
// TLB entries.
func Enable(root Root) {
	riscv.WriteSatp(riscv.MakeSatp(uint32(root)))
}

// Disable turns off Sv32 translation entirely.
func Disable() {
	riscv.WriteSatp(0)
}

// ErrIllegalFault is returned by HandleFault when a faulting access
// falls outside the stack-growth policy. The trap package's page-fault
// handler responds by marking the offending process Dying, and the
// scheduler takes it off the all list on its next Next call.
var ErrIllegalFault = kerrors.ErrIllegalFault
