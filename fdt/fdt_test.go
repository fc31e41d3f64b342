package fdt

import (
	"bytes"
	"strings"
	"testing"
)

// buildFDT assembles a minimal flattened device-tree blob by hand: a
// root node with one string property and one nop-padded subnode
// containing a boolean (empty) property, enough to exercise Walk's
// token loop without needing a real dtc-compiled fixture.
func buildFDT() []byte {
	var strs bytes.Buffer
	modelOff := strs.Len()
	strs.WriteString("model\x00")
	statusOff := strs.Len()
	strs.WriteString("status\x00")
	strTab := strs.Bytes()

	var structBlock bytes.Buffer
	putToken := func(tok uint32) { putU32BE(&structBlock, tok) }
	putName := func(name string) {
		structBlock.WriteString(name)
		structBlock.WriteByte(0)
		pad(&structBlock)
	}
	putProp := func(nameOff uint32, value []byte) {
		putToken(tokenProp)
		putU32BE(&structBlock, uint32(len(value)))
		putU32BE(&structBlock, nameOff)
		structBlock.Write(value)
		pad(&structBlock)
	}

	putToken(tokenBeginNode)
	putName("")
	putProp(uint32(modelOff), []byte("riscv-virt,qemu\x00"))
	putToken(tokenNop)
	putToken(tokenBeginNode)
	putName("cpus")
	putProp(uint32(statusOff), []byte{})
	putToken(tokenEndNode)
	putToken(tokenEndNode)
	putToken(tokenEnd)

	structBytes := structBlock.Bytes()

	const headerLen = 40
	offStruct := uint32(headerLen)
	offStrings := offStruct + uint32(len(structBytes))
	total := offStrings + uint32(len(strTab))

	var blob bytes.Buffer
	putU32BE(&blob, magic)
	putU32BE(&blob, total)
	putU32BE(&blob, offStruct)
	putU32BE(&blob, offStrings)
	putU32BE(&blob, headerLen) // offMemRsvmap, unused by Walk
	putU32BE(&blob, 17)        // version
	putU32BE(&blob, 16)        // lastCompVersion
	putU32BE(&blob, 0)         // bootCPUIDPhys
	putU32BE(&blob, uint32(len(strTab)))
	putU32BE(&blob, uint32(len(structBytes)))
	blob.Write(structBytes)
	blob.Write(strTab)

	return blob.Bytes()
}

func putU32BE(b *bytes.Buffer, v uint32) {
	b.WriteByte(byte(v >> 24))
	b.WriteByte(byte(v >> 16))
	b.WriteByte(byte(v >> 8))
	b.WriteByte(byte(v))
}

func pad(b *bytes.Buffer) {
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	blob := buildFDT()
	blob[0] ^= 0xff
	if _, err := Parse(blob); err != ErrBadMagic {
		t.Fatalf("Parse() err = %v, want ErrBadMagic", err)
	}
}

func TestParseRejectsShortBlob(t *testing.T) {
	if _, err := Parse([]byte{0xd0, 0x0d}); err == nil {
		t.Fatal("expected error parsing a too-short blob")
	}
}

func TestWalkVisitsNodesAndPropertiesInOrder(t *testing.T) {
	tree, err := Parse(buildFDT())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	type event struct {
		depth int
		name  string
		prop  string
		enter bool
	}
	var got []event
	err = tree.Walk(func(depth int, name, prop string, value []byte, enter bool) bool {
		got = append(got, event{depth, name, prop, enter})
		return true
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []event{
		{0, "", "", true},      // root enter
		{1, "", "model", true}, // root's model property, one indent in
		{1, "cpus", "", true},  // cpus enter, same indent as root's contents
		{2, "", "status", true},
		{1, "", "", false}, // cpus exit, lined up with its own enter
		{0, "", "", false}, // root exit, lined up with its own enter
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWalkStopsEarlyWhenVisitorReturnsFalse(t *testing.T) {
	tree, err := Parse(buildFDT())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	calls := 0
	tree.Walk(func(depth int, name, prop string, value []byte, enter bool) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPrintRendersNestedBraceSyntax(t *testing.T) {
	tree, err := Parse(buildFDT())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf bytes.Buffer
	if err := Print(&buf, tree); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"/ {",
		`model = "riscv-virt,qemu";`,
		"cpus {",
		"status = <empty>;",
		"};",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Print output missing %q, got:\n%s", want, out)
		}
	}
}

func TestFormatPropValueFallsBackToLengthForBinaryData(t *testing.T) {
	v := []byte{0x00, 0x00, 0x00, 0x08}
	got := formatPropValue(v)
	if got != "<4 bytes>" {
		t.Fatalf("formatPropValue(%v) = %q, want <4 bytes>", v, got)
	}
}
