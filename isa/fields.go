package isa

import "github.com/Urethramancer/i8086/cpu"

// Mod is the addressing-mode class held in the top two bits of ModRM.
type Mod uint8

const (
	// ModNoDisp is memory with no displacement, or a direct address when rm=110.
	ModNoDisp Mod = iota
	// ModDisp8 is memory with a sign-extended 8-bit displacement.
	ModDisp8
	// ModDisp16 is memory with a 16-bit displacement.
	ModDisp16
	// ModRegister selects a register in rm.
	ModRegister
)

var modNames = [...]string{"MEM", "MEM8", "MEM16", "REG"}

func (m Mod) String() string {
	return modNames[m&3]
}

// DispBytes is the number of displacement bytes following ModRM.
// The direct-address case is handled by the ea field, not here.
func (m Mod) DispBytes() int {
	switch m {
	case ModDisp8:
		return 1
	case ModDisp16:
		return 2
	}
	return 0
}

// Base is an effective-address base/index combination from rm when mod is not ModRegister.
type Base uint8

const (
	BaseBXSI Base = iota
	BaseBXDI
	BaseBPSI
	BaseBPDI
	BaseSI
	BaseDI
	BaseBP
	BaseBX
)

// directRM is the rm value that means a 16-bit direct address when mod is ModNoDisp.
const directRM = 6

var baseRegs = [...][]cpu.Register{
	{cpu.BX, cpu.SI},
	{cpu.BX, cpu.DI},
	{cpu.BP, cpu.SI},
	{cpu.BP, cpu.DI},
	{cpu.SI},
	{cpu.DI},
	{cpu.BP},
	{cpu.BX},
}

// Regs returns the registers summed to form the effective address.
func (b Base) Regs() []cpu.Register {
	return baseRegs[b&7]
}

// Segment returns the default segment: SS when BP takes part, DS otherwise.
func (b Base) Segment() cpu.Segment {
	for _, r := range b.Regs() {
		if r == cpu.BP {
			return cpu.SS
		}
	}
	return cpu.DS
}

func (b Base) String() string {
	regs := b.Regs()
	s := regs[0].String()
	for _, r := range regs[1:] {
		s += "+" + r.String()
	}
	return s
}

// baseFor finds the combination made of exactly the given registers.
func baseFor(regs []cpu.Register) (Base, bool) {
	for i, set := range baseRegs {
		if len(set) != len(regs) {
			continue
		}
		match := true
		for _, r := range regs {
			found := false
			for _, s := range set {
				if s == r {
					found = true
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return Base(i), true
		}
	}
	return 0, false
}

// Cond is a conditional jump condition, in encoding order.
type Cond uint8

var condNames = [...]string{
	"JO", "JNO", "JB", "JNB", "JZ", "JNZ", "JBE", "JA",
	"JS", "JNS", "JP", "JNP", "JL", "JNL", "JLE", "JG",
}

// condAliases are the alternative spellings accepted by the assembler.
var condAliases = [...][]string{
	nil, nil, {"JC", "JNAE"}, {"JNC", "JAE"}, {"JE"}, {"JNE"}, {"JNA"}, {"JNBE"},
	nil, nil, {"JPE"}, {"JPO"}, {"JNGE"}, {"JGE"}, {"JNG"}, {"JNLE"},
}

func (c Cond) String() string {
	return condNames[c&15]
}

// Holds evaluates the condition against the machine's flags.
func (c Cond) Holds(m Machine) bool {
	var r bool
	switch c >> 1 {
	case 0:
		r = m.Flag(cpu.OF)
	case 1:
		r = m.Flag(cpu.CF)
	case 2:
		r = m.Flag(cpu.ZF)
	case 3:
		r = m.Flag(cpu.CF) || m.Flag(cpu.ZF)
	case 4:
		r = m.Flag(cpu.SF)
	case 5:
		r = m.Flag(cpu.PF)
	case 6:
		r = m.Flag(cpu.SF) != m.Flag(cpu.OF)
	case 7:
		r = m.Flag(cpu.ZF) || m.Flag(cpu.SF) != m.Flag(cpu.OF)
	}
	if c&1 != 0 {
		return !r
	}
	return r
}
