package isa

import "github.com/Urethramancer/i8086/cpu"

// The decimal adjusts follow the reference manual: DAA and DAS test the
// original AL against 0x99, and AAA/AAS carry into AH by exactly one.

func setSZP(m Machine, al uint16) {
	Logic(Byte, al).Apply(m, cpu.SF|cpu.ZF|cpu.PF)
}

func execAaa(x *Exec) error {
	al, ah := x.M.Reg(cpu.AL), x.M.Reg(cpu.AH)
	adjust := al&0x0F > 9 || x.M.Flag(cpu.AF)
	if adjust {
		al += 6
		ah++
	}
	x.M.SetFlag(cpu.AF, adjust)
	x.M.SetFlag(cpu.CF, adjust)
	x.M.SetReg(cpu.AL, al&0x0F)
	x.M.SetReg(cpu.AH, ah)
	return nil
}

func execAas(x *Exec) error {
	al, ah := x.M.Reg(cpu.AL), x.M.Reg(cpu.AH)
	adjust := al&0x0F > 9 || x.M.Flag(cpu.AF)
	if adjust {
		al -= 6
		ah--
	}
	x.M.SetFlag(cpu.AF, adjust)
	x.M.SetFlag(cpu.CF, adjust)
	x.M.SetReg(cpu.AL, al&0x0F)
	x.M.SetReg(cpu.AH, ah)
	return nil
}

func execDaa(x *Exec) error {
	old := x.M.Reg(cpu.AL)
	oldCF := x.M.Flag(cpu.CF)
	al := old
	if al&0x0F > 9 || x.M.Flag(cpu.AF) {
		al += 6
		x.M.SetFlag(cpu.AF, true)
	} else {
		x.M.SetFlag(cpu.AF, false)
	}
	cf := old > 0x99 || oldCF
	if cf {
		al += 0x60
	}
	al &= 0xFF
	x.M.SetReg(cpu.AL, al)
	x.M.SetFlag(cpu.CF, cf)
	setSZP(x.M, al)
	return nil
}

func execDas(x *Exec) error {
	old := x.M.Reg(cpu.AL)
	oldCF := x.M.Flag(cpu.CF)
	al := old
	cf := false
	if al&0x0F > 9 || x.M.Flag(cpu.AF) {
		cf = oldCF || al < 6
		al -= 6
		x.M.SetFlag(cpu.AF, true)
	} else {
		x.M.SetFlag(cpu.AF, false)
	}
	if old > 0x99 || oldCF {
		al -= 0x60
		cf = true
	}
	al &= 0xFF
	x.M.SetReg(cpu.AL, al)
	x.M.SetFlag(cpu.CF, cf)
	setSZP(x.M, al)
	return nil
}

// base is the immediate of AAM/AAD, 10 for the plain spelling.
func base(x *Exec) uint16 {
	if x.F.Has("val") {
		return uint16(x.F.Arg("val"))
	}
	return 10
}

func execAam(x *Exec) error {
	b := base(x)
	if b == 0 {
		return ErrDivideByZero
	}
	al := x.M.Reg(cpu.AL)
	x.M.SetReg(cpu.AH, al/b)
	x.M.SetReg(cpu.AL, al%b)
	setSZP(x.M, al%b)
	return nil
}

func execAad(x *Exec) error {
	al := (x.M.Reg(cpu.AL) + x.M.Reg(cpu.AH)*base(x)) & 0xFF
	x.M.SetReg(cpu.AL, al)
	x.M.SetReg(cpu.AH, 0)
	setSZP(x.M, al)
	return nil
}

// adjustBase builds AAM/AAD: the decimal base renders bare, any other base explicitly.
func adjustBase(name, opcode string) []*Pattern {
	return []*Pattern{
		NewPattern([]string{opcode, "00001010"}, name, nil),
		NewPattern([]string{opcode, "<val>"}, name+" <val>", nil),
	}
}

func bcdFamilies() []*Family {
	return []*Family{
		NewFamily("DAA", execDaa, Single("DAA", "00100111", nil)),
		NewFamily("DAS", execDas, Single("DAS", "00101111", nil)),
		NewFamily("AAA", execAaa, Single("AAA", "00110111", nil)),
		NewFamily("AAS", execAas, Single("AAS", "00111111", nil)),
		NewFamily("AAM", execAam, adjustBase("AAM", "11010100")),
		NewFamily("AAD", execAad, adjustBase("AAD", "11010101")),
	}
}
