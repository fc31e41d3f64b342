package kernel

import (
	"encoding/binary"
	"fmt"

	"github.com/danielg0/quartos/internal/klimits"
	"github.com/danielg0/quartos/uart"
)

// profRecordSize is the size of one process's encoded accounting
// record: its fixed-length name, then two big-endian nanosecond
// counters (user, then system time).
const profRecordSize = klimits.NameLen + 8 + 8

// DumpAccounting hex-dumps one fixed-width binary record per live
// process to UART, in the offset-prefixed hex format biscuit's
// bprof_t.dump uses for its D_PROF profiling device — "dumps profile to
// serial console/vga for xxd -r". The kernel has no filesystem to write
// a profile to, so the serial console doubling as the transport is the
// teacher's own answer to the same constraint; cmd/quartosprof reverses
// the encoding on the host side into a pprof profile.
func (k *Kernel) DumpAccounting() {
	procs := k.Sched.Processes()
	buf := make([]byte, 0, len(procs)*profRecordSize)
	for _, p := range procs {
		var rec [profRecordSize]byte
		copy(rec[:klimits.NameLen], p.Name[:])
		snap := p.Accnt.Fetch()
		binary.BigEndian.PutUint64(rec[klimits.NameLen:], uint64(snap.Userns))
		binary.BigEndian.PutUint64(rec[klimits.NameLen+8:], uint64(snap.Sysns))
		buf = append(buf, rec[:]...)
	}
	hexdump(buf)
}

// hexdump writes buf sixteen bytes per line as "offset: hex-pairs",
// grounded on biscuit's kernel/main.go hexdump (pair-grouped, no ASCII
// gutter) so cmd/quartosprof's parser only has to undo one format.
func hexdump(buf []byte) {
	for i := 0; i < len(buf); i += 16 {
		cur := buf[i:]
		if len(cur) > 16 {
			cur = cur[:16]
		}
		line := fmt.Sprintf("%07x: ", i)
		for j, b := range cur {
			line += fmt.Sprintf("%02x", b)
			if j%2 == 1 {
				line += " "
			}
		}
		uart.PutString(line + "\r\n")
	}
}
