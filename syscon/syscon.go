// Package syscon drives QEMU virt's SiFive test/syscon device: a
// single 32-bit MMIO register that triggers an orderly poweroff or
// reboot on a magic write. Grounded on spec.md §6/§7 — the panic
// handler's terminal action is a syscon poweroff, mirroring how a real
// kernel's last line of defense has nowhere softer to land.
package syscon

import "github.com/danielg0/quartos/internal/physmem"

const (
	// Base is the syscon device's physical address on QEMU virt.
	Base = 0x00100000

	valuePoweroff = 0x5555
	valueReboot   = 0x7777
)

func reg() *uint32 { return (*uint32)(physmem.Ptr(Base)) }

// Poweroff writes the poweroff magic value. On real QEMU this never
// returns; callers should treat it as a terminal call.
func Poweroff() { *reg() = valuePoweroff }

// Reboot writes the reboot magic value.
func Reboot() { *reg() = valueReboot }
