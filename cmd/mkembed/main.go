// Command mkembed turns a directory of built RV32 ELF user binaries
// into a generated Go source file the kernel image can import, the way
// biscuit's chentry.go is a small host-side tool that edits a compiled
// ELF rather than something the running kernel does to itself, and in
// the single-purpose, flag-free style of biscuit's misc/depgraph
// (one job, argv in, a file on disk out, panic on anything unexpected
// since this only ever runs as a build step a human is watching).
package main

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <binary-dir> <output.go> <package-name>\n", os.Args[0])
	os.Exit(1)
}

func main() {
	if len(os.Args) != 4 {
		usage()
	}
	binDir, outPath, pkgName := os.Args[1], os.Args[2], os.Args[3]

	entries, err := os.ReadDir(binDir)
	if err != nil {
		panic(err)
	}

	type image struct {
		varName  string
		fileName string
	}
	var images []image
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(binDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			panic(err)
		}
		if err := checkRV32Executable(data); err != nil {
			panic(fmt.Sprintf("%s: %v", path, err))
		}
		images = append(images, image{
			varName:  exportedName(e.Name()),
			fileName: e.Name(),
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].varName < images[j].varName })

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by mkembed from %s. DO NOT EDIT.\n\n", binDir)
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	buf.WriteString("import _ \"embed\"\n\n")
	for _, img := range images {
		fmt.Fprintf(&buf, "//go:embed %s\n", img.fileName)
		fmt.Fprintf(&buf, "var %s []byte\n\n", img.varName)
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		panic(err)
	}
}

// checkRV32Executable rejects anything that is not a little-endian
// RV32 ET_EXEC binary before it gets baked into the kernel image —
// uelf.Load performs its own, stricter validation at boot, but failing
// a malformed image at build time rather than at a QEMU run is cheaper
// for whoever is iterating on the build.
func checkRV32Executable(data []byte) error {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return fmt.Errorf("not a 32-bit ELF")
	}
	if f.Data != elf.ELFDATA2LSB {
		return fmt.Errorf("not little-endian")
	}
	if f.Type != elf.ET_EXEC {
		return fmt.Errorf("not an executable ELF")
	}
	if f.Machine != elf.EM_RISCV {
		return fmt.Errorf("machine = %v, want EM_RISCV", f.Machine)
	}
	return nil
}

// exportedName turns a file name like "hello-world.elf" into a valid
// exported Go identifier, HelloWorld.
func exportedName(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	var b strings.Builder
	upperNext := true
	for _, r := range base {
		switch {
		case r == '-' || r == '_' || r == '.':
			upperNext = true
		case upperNext:
			b.WriteRune(toUpper(r))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
