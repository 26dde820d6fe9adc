package cpu

import "strings"

// Flag is a bit in the FLAGS word.
type Flag uint16

// Status and control flags.
const (
	// CF is carry
	CF Flag = 1 << 0
	// PF is parity
	PF Flag = 1 << 2
	// AF is auxiliary carry
	AF Flag = 1 << 4
	// ZF is zero
	ZF Flag = 1 << 6
	// SF is sign
	SF Flag = 1 << 7
	// TF is trap
	TF Flag = 1 << 8
	// IF is interrupt enable
	IF Flag = 1 << 9
	// DF is direction
	DF Flag = 1 << 10
	// OF is overflow
	OF Flag = 1 << 11
)

// flagsWritable masks the FLAGS bits that exist on the 8086.
// Bits 12-15 read as set on real hardware; they are kept clear here.
const flagsWritable = 0x0FD5

// AllFlags lists the flags in display order.
var AllFlags = []Flag{OF, DF, IF, TF, SF, ZF, AF, PF, CF}

var flagNames = map[Flag]string{
	CF: "CF", PF: "PF", AF: "AF", ZF: "ZF", SF: "SF",
	TF: "TF", IF: "IF", DF: "DF", OF: "OF",
}

func (f Flag) String() string {
	if n, ok := flagNames[f]; ok {
		return n
	}
	return "??"
}

// ParseFlag looks up a flag by name, ignoring case.
func ParseFlag(s string) (Flag, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for f, n := range flagNames {
		if n == s {
			return f, true
		}
	}
	return 0, false
}

// Flag reports whether f is set.
func (c *CPU) Flag(f Flag) bool {
	return c.Flags&uint16(f) != 0
}

// SetFlag sets or clears f.
func (c *CPU) SetFlag(f Flag, on bool) {
	if on {
		c.Flags |= uint16(f)
	} else {
		c.Flags &^= uint16(f)
	}
}

// FlagsWord returns FLAGS as PUSHF stores it.
func (c *CPU) FlagsWord() uint16 {
	return c.Flags&flagsWritable | 0x0002
}

// SetFlagsWord loads FLAGS as POPF does.
func (c *CPU) SetFlagsWord(v uint16) {
	c.Flags = v&flagsWritable | 0x0002
}

// FlagString renders set flags as their letters and clear ones as '-'.
func (c *CPU) FlagString() string {
	var b strings.Builder
	for _, f := range AllFlags {
		if c.Flag(f) {
			b.WriteByte(f.String()[0])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
