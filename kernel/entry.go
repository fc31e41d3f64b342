package kernel

import (
	"unsafe"

	"github.com/danielg0/quartos/fdt"
	"github.com/danielg0/quartos/proc"
	"github.com/danielg0/quartos/uart"
)

// DebugFDT controls whether Entry pretty-prints the device-tree blob
// QEMU hands the kernel at boot before continuing, per spec.md §6: "a
// flag selects whether to pretty-print and continue." It defaults off;
// the build harness (or a debug build of the entry point) can set it.
var DebugFDT = false

// Entry is the boot assembly's call target — spec.md §6's
// entry(fdtb_ptr), with the device-tree blob pointer in the first
// argument register. k and init are assumed already constructed (by
// New and Spawn); Entry's own job is strictly the fdtbPtr handling
// spec.md explicitly carves out of the hard core, before handing off to
// Boot for the rest of the control-flow sequence.
func Entry(k *Kernel, init *proc.Process, fdtbPtr uintptr) {
	if DebugFDT && fdtbPtr != 0 {
		printFDT(fdtbPtr)
	}
	k.Boot(init)
}

// printFDT reads just enough of the blob at fdtbPtr to learn its total
// size (the second big-endian uint32 in the FDT header) before handing
// the full slice to fdt.Parse — taking the whole blob on faith without
// that bounds check would let a corrupt or truncated blob walk fdt.Walk
// off the end of mapped memory.
func printFDT(fdtbPtr uintptr) {
	head := unsafe.Slice((*byte)(unsafe.Pointer(fdtbPtr)), 8)
	total := uint32(head[4])<<24 | uint32(head[5])<<16 | uint32(head[6])<<8 | uint32(head[7])
	blob := unsafe.Slice((*byte)(unsafe.Pointer(fdtbPtr)), total)

	tree, err := fdt.Parse(blob)
	if err != nil {
		uart.PutString("fdt: " + err.Error() + "\r\n")
		return
	}
	fdt.Print(uartWriter{}, tree)
}

// uartWriter adapts uart.PutString to io.Writer so fdt.Print (or any
// other diagnostic code that wants a Writer) can target the UART
// without a byte-by-byte loop at every call site.
type uartWriter struct{}

func (uartWriter) Write(p []byte) (int, error) {
	uart.PutString(string(p))
	return len(p), nil
}
