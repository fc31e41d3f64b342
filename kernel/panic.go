package kernel

import (
	"fmt"

	"github.com/danielg0/quartos/syscon"
	"github.com/danielg0/quartos/uart"
)

// Fail is the kernel's unrecoverable-error path, spec.md §7's catch-all
// for invariant violations (a missing trap handler, a superpage found
// mid-walk, a process record that is not page-sized, an invalid
// mscratch pointer): print a one-line reason to UART, then power off —
// there is no supervisor above the kernel to hand control back to.
// Grounded on gopheros's kfmt.Panic (banner, one-line cause, halt) and
// biscuit's caller.Callerdump, adapted from a hosted Go stack trace
// (meaningless once the hart has nothing left to resume to) down to the
// one line the UART path can still show on real hardware with no
// debugger attached.
func Fail(reason string, args ...any) {
	uart.PutString("\r\n*** quartos panic: system halted ***\r\n")
	uart.PutString(fmt.Sprintf(reason, args...))
	uart.PutString("\r\n")
	syscon.Poweroff()
	for {
	}
}

// Recover, when deferred, routes a panic escaping the deferring call to
// Fail. Neither Kernel.Boot nor the trap path defers it in this
// package; it takes effect only where a caller defers it. A
// freestanding image has no outer frame above its own entry point
// to catch an escaping panic otherwise, the same role gopheros's
// "redirect-from runtime.gopanic" comment documents for its own
// Panic: the project's build harness resolves Go's ordinary panic/
// recover machinery down to this call rather than an OS-level signal.
func Recover() {
	if r := recover(); r != nil {
		Fail("%v", r)
	}
}
