package cpu

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestByteHalves(t *testing.T) {
	c := New(0)
	c.SetReg(AX, 0x1234)
	if c.Reg(AL) != 0x34 || c.Reg(AH) != 0x12 {
		t.Errorf("AL=%02X AH=%02X", c.Reg(AL), c.Reg(AH))
	}
	c.SetReg(AH, 0xFFAB)
	c.SetReg(BL, 0x77)
	if c.Reg(AX) != 0xAB34 {
		t.Errorf("AX=%04X after AH write", c.Reg(AX))
	}
	if c.Reg(BX) != 0x0077 {
		t.Errorf("BX=%04X after BL write", c.Reg(BX))
	}
}

func TestParseNames(t *testing.T) {
	if r, ok := ParseRegister(" dh "); !ok || r != DH {
		t.Errorf("dh parsed as %v %v", r, ok)
	}
	if _, ok := ParseRegister("EAX"); ok {
		t.Error("EAX accepted")
	}
	if s, ok := ParseSegment("ss"); !ok || s != SS {
		t.Errorf("ss parsed as %v %v", s, ok)
	}
	if f, ok := ParseFlag("of"); !ok || f != OF {
		t.Errorf("of parsed as %v %v", f, ok)
	}
}

func TestMemoryWrap(t *testing.T) {
	c := New(0)
	if c.Physical(0xFFFF, 0x0010) != 0 {
		t.Errorf("FFFF:0010 maps to %05X", c.Physical(0xFFFF, 0x0010))
	}
	c.Write16(0x2000, 0xFFFF, 0xBEEF)
	if c.Read8(0x2000, 0xFFFF) != 0xEF || c.Read8(0x2000, 0) != 0xBE {
		t.Error("word write did not wrap within the segment")
	}
	if c.Read16(0x2000, 0xFFFF) != 0xBEEF {
		t.Errorf("read back %04X", c.Read16(0x2000, 0xFFFF))
	}
}

func TestPushPop(t *testing.T) {
	c := New(0x20000)
	c.SetSeg(SS, 0x1000)
	c.Push(0x1234)
	c.Push(0x5678)
	if c.Reg(SP) != 0xFFFC {
		t.Errorf("SP=%04X", c.Reg(SP))
	}
	if c.Read16(0x1000, 0xFFFE) != 0x1234 {
		t.Error("first push not at top of stack")
	}
	if v := c.Pop(); v != 0x5678 {
		t.Errorf("popped %04X", v)
	}
	if v := c.Pop(); v != 0x1234 {
		t.Errorf("popped %04X", v)
	}
	if c.Reg(SP) != 0 {
		t.Errorf("SP=%04X after pops", c.Reg(SP))
	}
}

func TestFlags(t *testing.T) {
	c := New(0)
	if c.Flags != 0x0002 {
		t.Errorf("reset FLAGS %04X", c.Flags)
	}
	c.SetFlag(CF, true)
	c.SetFlag(ZF, true)
	c.SetFlag(OF, true)
	if s := c.FlagString(); s != "O----Z--C" {
		t.Errorf("flag string %q", s)
	}
	c.SetFlag(ZF, false)
	if c.Flag(ZF) {
		t.Error("ZF still set")
	}
	if w := c.FlagsWord(); w != 0x0803 {
		t.Errorf("PUSHF word %04X", w)
	}
	c.SetFlagsWord(0xFFFF)
	if c.Flags != 0x0FD7 {
		t.Errorf("POPF of FFFF gave %04X", c.Flags)
	}
}

func TestLoadCodeAndReset(t *testing.T) {
	c := New(0)
	c.LoadCode(0x0700, 0x0100, []byte{0x90, 0xF4})
	if c.Seg(CS) != 0x0700 || c.IP() != 0x0100 {
		t.Errorf("CS:IP %04X:%04X", c.Seg(CS), c.IP())
	}
	if c.Mem[0x7100] != 0x90 || c.Mem[0x7101] != 0xF4 {
		t.Errorf("code not at 07100: %s", spew.Sdump(c.Mem[0x7100:0x7102]))
	}
	c.Halt()
	c.Reset()
	if c.Halted || c.IP() != 0 || c.Seg(CS) != 0 {
		t.Error("reset left state behind")
	}
	if c.Mem[0x7100] != 0x90 {
		t.Error("reset cleared memory")
	}
}

func TestPorts(t *testing.T) {
	c := New(0)
	c.Out(0x60, true, 0xA55A)
	if c.In(0x60, false) != 0x5A || c.In(0x61, false) != 0xA5 {
		t.Error("word OUT not split into two ports")
	}
	if c.In(0x60, true) != 0xA55A {
		t.Errorf("word IN gave %04X", c.In(0x60, true))
	}
}
