//go:build !quartos_bare

package trap

// StubAddr is the hosted build's stand-in for the real trap_stub
// address (see entry_bare.go): riscv.Sim never dispatches through
// mtvec, so the value itself is inert, but kernel init still writes it
// through the same riscv.WriteMtvec call both builds share.
func StubAddr() uint32 { return 0 }

// active mirrors entry_bare.go's package var of the same name. Nothing
// in the hosted build ever dispatches through it — tests call
// Core.Dispatch directly — but kernel.Boot calls Install unconditionally
// so the two builds share one code path.
var active *Core

// Install registers core as the active Core. See entry_bare.go's
// Install for the real build's HandleTrap, the only thing that actually
// reads active there.
func Install(core *Core) { active = core }
