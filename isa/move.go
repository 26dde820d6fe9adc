package isa

import "github.com/Urethramancer/i8086/cpu"

func execMov(x *Exec) error {
	dst, src, err := x.Pair()
	if err != nil {
		return err
	}
	dst.Set(src.Get())
	return nil
}

func movFamily() *Family {
	var sreg []*Pattern
	for d := 0; d < 2; d++ {
		text := "MOV <rm>, <seg>"
		if d == 1 {
			text = "MOV <seg>, <rm>"
		}
		sreg = append(sreg, modrm(modLayouts, []string{"100011<d>0"}, "<mod>0<seg><rm>", nil, text,
			map[string]string{"d": fixedBit(d), "w": "1"})...)
	}

	return NewFamily("MOV", execMov,
		[]*Pattern{
			NewPattern([]string{"1011<w><reg>", "<val>"}, "MOV <reg>, <val>", map[string]string{"w": "0"}),
			NewPattern([]string{"1011<w><reg>", "<val>", "<val>"}, "MOV <reg>, <val>", map[string]string{"w": "1"}),
			NewPattern([]string{"1010000<w>", "<ea>", "<ea>"}, "MOV AL, <ea>", map[string]string{"w": "0", "d": "1"}),
			NewPattern([]string{"1010000<w>", "<ea>", "<ea>"}, "MOV AX, <ea>", map[string]string{"w": "1", "d": "1"}),
			NewPattern([]string{"1010001<w>", "<ea>", "<ea>"}, "MOV <ea>, AL", map[string]string{"w": "0", "d": "0"}),
			NewPattern([]string{"1010001<w>", "<ea>", "<ea>"}, "MOV <ea>, AX", map[string]string{"w": "1", "d": "0"}),
		},
		RegMemImm("MOV", "1100011<w>", 0),
		RegMemReg("MOV", "100010"),
		sreg,
	)
}

func execXchg(x *Exec) error {
	var a, b Operand
	var err error
	if x.F.Has("r") {
		a, err = x.Operand("r")
		b = x.acc()
	} else {
		a, b, err = x.Pair()
	}
	if err != nil {
		return err
	}
	va, vb := a.Get(), b.Get()
	a.Set(vb)
	b.Set(va)
	return nil
}

func xchgFamily() *Family {
	return NewFamily("XCHG", execXchg,
		[]*Pattern{
			NewPattern([]string{"10010<r>"}, "XCHG AX, <r>", map[string]string{"w": "1"}),
			NewPattern([]string{"10010<r>"}, "XCHG <r>, AX", map[string]string{"w": "1"}),
		},
		RegMemRegW("XCHG", "1000011"),
	)
}

func execLea(x *Exec) error {
	reg, err := x.Operand("reg")
	if err != nil {
		return err
	}
	_, off := EffectiveAddress(x.M, x.F)
	reg.Set(off)
	return nil
}

func leaFamily() *Family {
	return NewFamily("LEA", execLea,
		modrm(memLayouts, []string{"10001101"}, "<mod><reg><rm>", nil, "LEA <reg>, <rm>", map[string]string{"w": "1"}))
}

// stackTarget is the r, seg or rm operand of PUSH and POP.
func stackTarget(x *Exec) (Operand, error) {
	switch {
	case x.F.Has("r"):
		return x.Operand("r")
	case x.F.Has("seg"):
		return x.Operand("seg")
	}
	return x.Operand("rm")
}

func execPush(x *Exec) error {
	op, err := stackTarget(x)
	if err != nil {
		return err
	}
	v := op.Get()
	if op.Name() == cpu.SP.String() {
		// The 8086 stores SP after the decrement.
		v -= 2
	}
	push(x.M, v)
	return nil
}

func execPop(x *Exec) error {
	op, err := stackTarget(x)
	if err != nil {
		return err
	}
	op.Set(pop(x.M))
	return nil
}

func stackFamily(name, opR, opSeg, opRM string, ext int, exec Handler) *Family {
	w := map[string]string{"w": "1"}
	return NewFamily(name, exec,
		[]*Pattern{NewPattern([]string{opR}, name+" <r>", w)},
		[]*Pattern{NewPattern([]string{opSeg}, name+" <seg>", w)},
		RegMemExt(name, opRM, ext, w),
	)
}

func execPushf(x *Exec) error {
	push(x.M, flagBits(x.M))
	return nil
}

func execPopf(x *Exec) error {
	setFlagBits(x.M, pop(x.M))
	return nil
}

// ahFlags are the flags LAHF and SAHF move through AH.
var ahFlags = []cpu.Flag{cpu.SF, cpu.ZF, cpu.AF, cpu.PF, cpu.CF}

func execLahf(x *Exec) error {
	ah := uint16(0x02)
	for _, f := range ahFlags {
		if x.M.Flag(f) {
			ah |= uint16(f)
		}
	}
	x.M.SetReg(cpu.AH, ah)
	return nil
}

func execSahf(x *Exec) error {
	ah := x.M.Reg(cpu.AH)
	for _, f := range ahFlags {
		x.M.SetFlag(f, ah&uint16(f) != 0)
	}
	return nil
}

func moveFamilies() []*Family {
	return []*Family{
		movFamily(),
		leaFamily(),
		stackFamily("PUSH", "01010<r>", "000<seg>110", "11111111", 6, execPush),
		stackFamily("POP", "01011<r>", "000<seg>111", "10001111", 0, execPop),
		NewFamily("PUSHF", execPushf, Single("PUSHF", "10011100", nil)),
		NewFamily("POPF", execPopf, Single("POPF", "10011101", nil)),
		NewFamily("LAHF", execLahf, Single("LAHF", "10011111", nil)),
		NewFamily("SAHF", execSahf, Single("SAHF", "10011110", nil)),
		NewFamily("CBW", execCbw, Single("CBW", "10011000", nil)),
		NewFamily("CWD", execCwd, Single("CWD", "10011001", nil)),
	}
}
