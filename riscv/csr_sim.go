//go:build !quartos_bare

// Package riscv's hosted CSR simulator. Tests (and any tool built with
// `go test`/`go build` on a developer's workstation rather than the
// freestanding kernel image) link this file instead of csr_bare.s: it
// keeps the same CSR values in ordinary Go package state so trap
// dispatch and paging logic can be exercised without real RV32
// hardware. Exactly one of csr_bare.go/csr_bare.s or this file is
// compiled, selected by the quartos_bare build tag.
package riscv

// Sim is the process-wide simulated CSR file used by hosted builds.
// Production code never touches it directly; it exists so tests can
// arrange mscratch/mepc/mcause/mtval the way real hardware would after
// a trap.
var Sim struct {
	Mscratch uint32
	Mepc     uint32
	Mcause   uint32
	Mtval    uint32
	Satp     uint32
	Mtvec    uint32
	Mstatus  uint32
	// MretCount counts calls to Mret, so tests can assert a launch
	// path actually reached it.
	MretCount int
}

func ReadMscratch() uint32   { return Sim.Mscratch }
func WriteMscratch(v uint32) { Sim.Mscratch = v }
func ReadMepc() uint32       { return Sim.Mepc }
func WriteMepc(v uint32)     { Sim.Mepc = v }
func ReadMcause() uint32     { return Sim.Mcause }
func ReadMtval() uint32      { return Sim.Mtval }
func WriteSatp(v uint32)     { Sim.Satp = v }
func WriteMtvec(v uint32)    { Sim.Mtvec = v }
func ReadMstatus() uint32    { return Sim.Mstatus }
func WriteMstatus(v uint32)  { Sim.Mstatus = v }
func Mret()                  { Sim.MretCount++ }
func ClearPMP()               {}
