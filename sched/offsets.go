package sched

import (
	"unsafe"

	"github.com/danielg0/quartos/proc"
)

// allElemOffset and elemOffset let the scheduler recover a *proc.Process
// from a *list.Elem it pulled off one of its lists, following the
// container-of pattern spec.md §4.1 calls for. proc.Process carries two
// independent list.Elem hooks at different offsets, so the caller must
// know which list it popped from to pick the right one.
const (
	allElemOffset = unsafe.Offsetof(proc.Process{}.AllElem)
	elemOffset    = unsafe.Offsetof(proc.Process{}.Elem)
)
