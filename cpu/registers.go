package cpu

import "strings"

// Register names a general purpose register or one of its byte halves.
// The low three bits are the encoding used in the reg and rm fields.
type Register uint8

// Byte registers, then word registers, each in encoding order.
const (
	AL Register = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
	AX
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

var registerNames = [...]string{
	"AL", "CL", "DL", "BL", "AH", "CH", "DH", "BH",
	"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI",
}

// Reg8 returns the byte register with the given 3-bit code.
func Reg8(code uint8) Register {
	return Register(code & 7)
}

// Reg16 returns the word register with the given 3-bit code.
func Reg16(code uint8) Register {
	return AX + Register(code&7)
}

// RegW returns the byte or word register for code, depending on w.
func RegW(code uint8, wide bool) Register {
	if wide {
		return Reg16(code)
	}
	return Reg8(code)
}

// Wide is true for 16-bit registers.
func (r Register) Wide() bool {
	return r >= AX
}

// Code returns the 3-bit encoding of the register.
func (r Register) Code() uint8 {
	return uint8(r) & 7
}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return "??"
}

// ParseRegister looks up a register by name, ignoring case.
func ParseRegister(s string) (Register, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range registerNames {
		if n == s {
			return Register(i), true
		}
	}
	return 0, false
}

// Segment names a segment register, in encoding order.
type Segment uint8

const (
	ES Segment = iota
	CS
	SS
	DS
)

var segmentNames = [...]string{"ES", "CS", "SS", "DS"}

func (s Segment) String() string {
	if int(s) < len(segmentNames) {
		return segmentNames[s]
	}
	return "??"
}

// ParseSegment looks up a segment register by name, ignoring case.
func ParseSegment(s string) (Segment, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range segmentNames {
		if n == s {
			return Segment(i), true
		}
	}
	return 0, false
}

// Reg returns the value of a register. Byte registers are zero-extended.
func (c *CPU) Reg(r Register) uint16 {
	if r.Wide() {
		return c.regs[r.Code()]
	}
	code := r.Code()
	if code < 4 {
		return c.regs[code] & 0xFF
	}
	return c.regs[code-4] >> 8
}

// SetReg writes a register. Byte registers take the low byte of v.
func (c *CPU) SetReg(r Register, v uint16) {
	if r.Wide() {
		c.regs[r.Code()] = v
		return
	}
	code := r.Code()
	if code < 4 {
		c.regs[code] = c.regs[code]&0xFF00 | v&0xFF
		return
	}
	c.regs[code-4] = c.regs[code-4]&0x00FF | (v&0xFF)<<8
}

// Seg returns a segment register.
func (c *CPU) Seg(s Segment) uint16 {
	return c.segs[s&3]
}

// SetSeg writes a segment register.
func (c *CPU) SetSeg(s Segment, v uint16) {
	c.segs[s&3] = v
}
