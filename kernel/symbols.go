package kernel

import (
	"bytes"
	"debug/elf"

	"github.com/ianlancetaylor/demangle"
)

// symbolName returns the best-effort demangled name of the function
// containing vaddr in binary, for the one-line diagnostic diagnoseKill
// prints when a user process is killed for an access outside the stack-growth
// policy. debug/elf parses the static symbol table the ELF loader
// itself never looks at (uelf.Load only cares about LOAD segments);
// ianlancetaylor/demangle recovers a readable name when the symbol
// happens to be Itanium-mangled and passes anything else through
// unchanged, so the common case (a plain C-ABI RV32 symbol) costs
// nothing extra.
func symbolName(binary []byte, vaddr uint32) string {
	f, err := elf.NewFile(bytes.NewReader(binary))
	if err != nil {
		return "?"
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		return "?"
	}

	var best *elf.Symbol
	for i := range syms {
		s := &syms[i]
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		if uint64(vaddr) < s.Value || uint64(vaddr) >= s.Value+s.Size {
			continue
		}
		best = s
		break
	}
	if best == nil {
		return "?"
	}
	return demangle.Filter(best.Name)
}
