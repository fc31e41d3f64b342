package syscon

import (
	"testing"

	"github.com/danielg0/quartos/internal/physmem"
)

func TestPoweroffWritesMagicValue(t *testing.T) {
	physmem.Init(Base, make([]byte, 4))
	Poweroff()
	if got := *reg(); got != valuePoweroff {
		t.Fatalf("syscon register = %#x, want %#x", got, valuePoweroff)
	}
}

func TestRebootWritesMagicValue(t *testing.T) {
	physmem.Init(Base, make([]byte, 4))
	Reboot()
	if got := *reg(); got != valueReboot {
		t.Fatalf("syscon register = %#x, want %#x", got, valueReboot)
	}
}
