// Package kerrors names the sentinel errors normal-operation failures
// return. Everything else the kernel can encounter is either success or
// an invariant violation, and invariant violations panic per spec.md §7
// rather than returning an error — they represent a kernel bug, not a
// recoverable condition.
package kerrors

import "errors"

var (
	// ErrOutOfMemory is returned by the page allocator when its backing
	// heap region is exhausted.
	ErrOutOfMemory = errors.New("kernel: out of memory")

	// ErrInvalidMagic is returned by the ELF loader when the file does
	// not begin with the ELF magic bytes.
	ErrInvalidMagic = errors.New("uelf: invalid ELF magic")

	// ErrUnsupportedBinary is returned when the ELF header does not
	// describe a 32-bit little-endian RISC-V static executable.
	ErrUnsupportedBinary = errors.New("uelf: unsupported ELF binary")

	// ErrSegmentOffsetOutsideBinary is returned when a program header
	// names a file range that runs past the end of the binary.
	ErrSegmentOffsetOutsideBinary = errors.New("uelf: segment offset outside binary")

	// ErrIllegalFault is returned when a page fault falls outside the
	// stack-growth policy: the MVP response is to kill the process.
	ErrIllegalFault = errors.New("paging: illegal access, outside stack-growth policy")

	// ErrProcessNotFound is returned when a process ID passed to
	// UnblockByID does not name any live process on the all list.
	ErrProcessNotFound = errors.New("sched: process not found")
)
