// Package uart drives the NS16550-compatible UART QEMU's virt machine
// exposes at a fixed physical address. Grounded on the MMIO
// register-offset-and-bitmask style of mazarin's uart_qemu.go (ARM
// PL011), adapted here to the NS16550's much smaller register set and
// routed through internal/physmem rather than a raw pointer cast, since
// this kernel already uses that package everywhere else it touches
// physical memory.
package uart

import "github.com/danielg0/quartos/internal/physmem"

const (
	// Base is the NS16550 UART's physical base address on QEMU virt.
	Base = 0x10000000

	offData       = 0
	offLineStatus = 5

	lsrRXReady = 1 << 0
	lsrTXEmpty = 1 << 5
)

func reg(off uint32) *byte {
	return (*byte)(physmem.Ptr(Base + off))
}

// PutByte blocks until the transmit holding register is empty, then
// writes b.
func PutByte(b byte) {
	for *reg(offLineStatus)&lsrTXEmpty == 0 {
	}
	*reg(offData) = b
}

// PutString writes every byte of s via PutByte, in order.
func PutString(s string) {
	for i := 0; i < len(s); i++ {
		PutByte(s[i])
	}
}

// RxReady reports whether a received byte is waiting to be read.
func RxReady() bool {
	return *reg(offLineStatus)&lsrRXReady != 0
}

// GetByte reads one received byte. Callers should check RxReady first;
// GetByte does not block.
func GetByte() byte {
	return *reg(offData)
}
