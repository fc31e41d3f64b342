package timer

import (
	"testing"

	"github.com/danielg0/quartos/internal/physmem"
)

func newTestTimer(t *testing.T) {
	t.Helper()
	physmem.Init(MtimeAddr, make([]byte, 8))
	physmem.Init(MtimeCmpAddr, make([]byte, 8))
}

func TestNowReadsLowAndHighWords(t *testing.T) {
	newTestTimer(t)
	*lo(MtimeAddr) = 0x12345678
	*hi(MtimeAddr) = 0x9

	want := uint64(0x9)<<32 | 0x12345678
	if got := Now(); got != want {
		t.Fatalf("Now() = %#x, want %#x", got, want)
	}
}

func TestOffsetAddsSecondsInTicks(t *testing.T) {
	newTestTimer(t)
	*lo(MtimeAddr) = 0
	*hi(MtimeAddr) = 0

	got := Offset(2)
	want := uint64(2 * FreqHz)
	if got != want {
		t.Fatalf("Offset(2) = %d, want %d", got, want)
	}
}

func TestSetWritesLowHighLowSequence(t *testing.T) {
	newTestTimer(t)
	wake := uint64(0x1_00000001)
	Set(wake)

	if got := *hi(MtimeCmpAddr); got != uint32(wake>>32) {
		t.Fatalf("mtimecmp high word = %#x, want %#x", got, uint32(wake>>32))
	}
	if got := *lo(MtimeCmpAddr); got != uint32(wake) {
		t.Fatalf("mtimecmp low word = %#x, want %#x", got, uint32(wake))
	}
}
