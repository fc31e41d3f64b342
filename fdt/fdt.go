// Package fdt walks a flattened device-tree blob (the format QEMU's
// virt machine hands the kernel at boot in a0) well enough to pretty-
// print it for a debug flag. It is not a general DT consumer: quartos
// has no driver model that binds to device-tree nodes, so there is
// nothing here but a header check and a node/property visitor, in the
// same spirit as gopheros's multiboot package (a self-contained walker
// over a raw byte slice, reached by a tag/token loop rather than a
// parsed tree).
package fdt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats struct/strings block sizes with thousands separators
// in Print's summary line, the same x/text/message idiom accnt uses for
// its nanosecond counters.
var printer = message.NewPrinter(language.English)

// token values from the devicetree.org 0.4 spec, struct block.
const (
	tokenBeginNode uint32 = 1
	tokenEndNode   uint32 = 2
	tokenProp      uint32 = 3
	tokenNop       uint32 = 4
	tokenEnd       uint32 = 9
)

const magic uint32 = 0xd00dfeed

// ErrBadMagic is returned by Parse when blob does not start with the
// flattened device-tree magic number.
var ErrBadMagic = errors.New("fdt: bad magic")

// header mirrors struct fdt_header from the devicetree.org spec. Every
// field is a big-endian uint32 on the wire.
type header struct {
	totalSize       uint32
	offStruct       uint32
	offStrings      uint32
	offMemRsvmap    uint32
	version         uint32
	lastCompVersion uint32
	bootCPUIDPhys   uint32
	sizeStrings     uint32
	sizeStruct      uint32
}

// Tree is a parsed flattened device-tree blob, kept as the raw bytes
// plus the header fields findTagByType-style walkers need; there is no
// in-memory node tree, mirroring multiboot's decision to re-scan the
// flat buffer on every query rather than build one.
type Tree struct {
	blob []byte
	hdr  header
}

// Parse validates blob's header and returns a Tree ready for Walk. It
// does not copy blob; the caller must keep it alive and unmodified for
// the Tree's lifetime.
func Parse(blob []byte) (*Tree, error) {
	if len(blob) < 40 {
		return nil, errors.New("fdt: blob shorter than header")
	}
	if binary.BigEndian.Uint32(blob[0:4]) != magic {
		return nil, ErrBadMagic
	}
	h := header{
		totalSize:       binary.BigEndian.Uint32(blob[4:8]),
		offStruct:       binary.BigEndian.Uint32(blob[8:12]),
		offStrings:      binary.BigEndian.Uint32(blob[12:16]),
		offMemRsvmap:    binary.BigEndian.Uint32(blob[16:20]),
		version:         binary.BigEndian.Uint32(blob[20:24]),
		lastCompVersion: binary.BigEndian.Uint32(blob[24:28]),
		bootCPUIDPhys:   binary.BigEndian.Uint32(blob[28:32]),
		sizeStrings:     binary.BigEndian.Uint32(blob[32:36]),
		sizeStruct:      binary.BigEndian.Uint32(blob[36:40]),
	}
	if int(h.totalSize) > len(blob) {
		return nil, fmt.Errorf("fdt: totalsize %d exceeds blob length %d", h.totalSize, len(blob))
	}
	if int(h.offStruct+h.sizeStruct) > len(blob) || int(h.offStrings+h.sizeStrings) > len(blob) {
		return nil, errors.New("fdt: struct or strings block out of bounds")
	}
	return &Tree{blob: blob, hdr: h}, nil
}

// Visitor is invoked once per struct-block event while Walk scans the
// tree depth-first. name is the node name on entering a node (prop is
// empty then); for a property, prop is the property name and value is
// its raw bytes. enter is false on the matching FDT_END_NODE for a node
// (name and prop are both empty then). depth matches dtc's -O dts
// indentation: a node's own enter/exit events report its parent's
// nesting level, while its properties and child nodes report one level
// deeper, so a node's opening and closing lines line up at the same
// indent, and its contents sit one indent further in. Returning false
// from Visitor stops the walk early.
type Visitor func(depth int, name, prop string, value []byte, enter bool) bool

// Walk scans the struct block depth-first, the same flat tag-loop style
// findTagByType uses, but FDT nests BEGIN/END markers instead of a flat
// tag list, so Walk tracks depth as it goes rather than stopping at the
// first match.
func (t *Tree) Walk(visit Visitor) error {
	block := t.blob[t.hdr.offStruct : t.hdr.offStruct+t.hdr.sizeStruct]
	strs := t.blob[t.hdr.offStrings : t.hdr.offStrings+t.hdr.sizeStrings]

	depth := 0
	off := 0
	for off < len(block) {
		if off+4 > len(block) {
			return errors.New("fdt: truncated token")
		}
		tok := binary.BigEndian.Uint32(block[off : off+4])
		off += 4

		switch tok {
		case tokenNop:
			continue

		case tokenEnd:
			return nil

		case tokenBeginNode:
			name, n, err := readCString(block[off:])
			if err != nil {
				return err
			}
			off += align4(n)
			if !visit(depth, name, "", nil, true) {
				return nil
			}
			depth++

		case tokenEndNode:
			depth--
			if !visit(depth, "", "", nil, false) {
				return nil
			}

		case tokenProp:
			if off+8 > len(block) {
				return errors.New("fdt: truncated prop header")
			}
			length := binary.BigEndian.Uint32(block[off : off+4])
			nameOff := binary.BigEndian.Uint32(block[off+4 : off+8])
			off += 8
			if off+int(length) > len(block) {
				return errors.New("fdt: prop value runs past struct block")
			}
			value := block[off : off+int(length)]
			off += align4(int(length))

			propName, _, err := readCString(strs[nameOff:])
			if err != nil {
				return err
			}
			if !visit(depth, "", propName, value, true) {
				return nil
			}

		default:
			return fmt.Errorf("fdt: unknown token %#x at struct offset %d", tok, off-4)
		}
	}
	return errors.New("fdt: struct block ended without FDT_END")
}

// readCString returns the NUL-terminated string starting at b[0] and
// the number of bytes consumed including the terminator.
func readCString(b []byte) (string, int, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), i + 1, nil
		}
	}
	return "", 0, errors.New("fdt: unterminated string")
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// Print pretty-prints the tree to w, indenting by depth, the debug dump
// spec.md §6 gates behind a boot flag. Empty properties print as
// <empty>, a NUL-terminated printable string prints quoted, and any
// other value prints as its byte length, since FDT does not
// self-describe property value types.
func Print(w io.Writer, t *Tree) error {
	printer.Fprintf(w, "# fdt: %d bytes struct, %d bytes strings, boot hart %d\n",
		t.hdr.sizeStruct, t.hdr.sizeStrings, t.hdr.bootCPUIDPhys)
	return t.Walk(func(depth int, name, prop string, value []byte, enter bool) bool {
		indent := func() {
			for i := 0; i < depth; i++ {
				io.WriteString(w, "  ")
			}
		}
		switch {
		case prop != "":
			indent()
			fmt.Fprintf(w, "%s = %s;\n", prop, formatPropValue(value))
		case enter:
			indent()
			label := name
			if label == "" {
				label = "/"
			}
			fmt.Fprintf(w, "%s {\n", label)
		default:
			indent()
			io.WriteString(w, "};\n")
		}
		return true
	})
}

// formatPropValue renders a property value the way dtc's -O dts output
// does for the common cases: empty (boolean present flag), a single
// NUL-terminated printable string, or a raw byte count otherwise. quartos
// has no schema to decode typed cells (e.g. #address-cells-driven
// reg arrays) against, so anything that is not obviously a C string
// falls back to a length.
func formatPropValue(v []byte) string {
	if len(v) == 0 {
		return "<empty>"
	}
	if isPrintableCString(v) {
		return fmt.Sprintf("%q", string(v[:len(v)-1]))
	}
	return fmt.Sprintf("<%d bytes>", len(v))
}

func isPrintableCString(v []byte) bool {
	if v[len(v)-1] != 0 {
		return false
	}
	for _, b := range v[:len(v)-1] {
		if b == 0 || b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
