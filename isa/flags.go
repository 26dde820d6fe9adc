package isa

import (
	"math/bits"

	"github.com/Urethramancer/i8086/cpu"
)

// Width is an operand size in bits.
type Width uint8

const (
	Byte Width = 8
	Word Width = 16
)

func widthOf(wide bool) Width {
	if wide {
		return Word
	}
	return Byte
}

// Mask is the largest value of the width.
func (w Width) Mask() uint32 {
	return 1<<uint(w) - 1
}

// Sign is the sign bit of the width.
func (w Width) Sign() uint32 {
	return 1 << uint(w-1)
}

// Status holds the six arithmetic flags computed for one result.
type Status struct {
	CF, PF, AF, ZF, SF, OF bool
}

// Arith is the mask of all six arithmetic flags.
const Arith = cpu.CF | cpu.PF | cpu.AF | cpu.ZF | cpu.SF | cpu.OF

func parity(b byte) bool {
	return bits.OnesCount8(b)%2 == 0
}

// result fills the flags every operation derives from the masked result alone.
func result(w Width, r uint32) Status {
	r &= w.Mask()
	return Status{
		ZF: r == 0,
		SF: r&w.Sign() != 0,
		PF: parity(byte(r)),
	}
}

// Add computes a+b+carry at width w.
func Add(w Width, a, b uint16, carry bool) (uint16, Status) {
	ua, ub := uint32(a)&w.Mask(), uint32(b)&w.Mask()
	c := uint32(0)
	if carry {
		c = 1
	}
	raw := ua + ub + c
	r := raw & w.Mask()
	s := result(w, r)
	s.CF = raw > w.Mask()
	s.OF = ^(ua^ub)&(ua^r)&w.Sign() != 0
	s.AF = (ua^ub^r)&0x10 != 0
	return uint16(r), s
}

// Sub computes a-b-borrow at width w, as SUB, SBB and CMP do.
func Sub(w Width, a, b uint16, borrow bool) (uint16, Status) {
	ua, ub := uint32(a)&w.Mask(), uint32(b)&w.Mask()
	c := uint32(0)
	if borrow {
		c = 1
	}
	r := (ua - ub - c) & w.Mask()
	s := result(w, r)
	s.CF = ua < ub+c
	s.OF = (ua^ub)&(ua^r)&w.Sign() != 0
	s.AF = (ua^ub^r)&0x10 != 0
	return uint16(r), s
}

// Logic computes the flags of a bitwise result; CF, OF and AF are cleared.
func Logic(w Width, r uint16) Status {
	return result(w, uint32(r))
}

// Apply copies the flags selected by mask into the machine.
func (s Status) Apply(m Machine, mask cpu.Flag) {
	set := func(f cpu.Flag, v bool) {
		if mask&f != 0 {
			m.SetFlag(f, v)
		}
	}
	set(cpu.CF, s.CF)
	set(cpu.PF, s.PF)
	set(cpu.AF, s.AF)
	set(cpu.ZF, s.ZF)
	set(cpu.SF, s.SF)
	set(cpu.OF, s.OF)
}
