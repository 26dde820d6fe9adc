package isa

import "github.com/Urethramancer/i8086/cpu"

// Control transfers run after IP has moved past the instruction, so the
// saved return address is always the next instruction.

func jumpRel(x *Exec) {
	x.M.SetIP(x.M.IP() + uint16(x.F.Arg("rel")))
}

// farTarget reads offset then segment from a far pointer operand.
func farTarget(x *Exec) (seg, off uint16, err error) {
	op, err := x.Operand("rm")
	if err != nil {
		return 0, 0, err
	}
	next, ok := op.Next()
	if !ok {
		return 0, 0, ErrFarTarget
	}
	return next.Get(), op.Get(), nil
}

func execCall(x *Exec) error {
	ret := x.M.IP()
	switch {
	case x.F.Has("rel"):
		push(x.M, ret)
		jumpRel(x)

	case x.F.Has("val2"):
		push(x.M, x.M.Seg(cpu.CS))
		push(x.M, ret)
		x.M.SetSeg(cpu.CS, uint16(x.F.Arg("val2")))
		x.M.SetIP(uint16(x.F.Arg("val")))

	case x.F.Arg("ext") == 3:
		seg, off, err := farTarget(x)
		if err != nil {
			return err
		}
		push(x.M, x.M.Seg(cpu.CS))
		push(x.M, ret)
		x.M.SetSeg(cpu.CS, seg)
		x.M.SetIP(off)

	default:
		op, err := x.Operand("rm")
		if err != nil {
			return err
		}
		target := op.Get()
		push(x.M, ret)
		x.M.SetIP(target)
	}
	return nil
}

func execJmp(x *Exec) error {
	switch {
	case x.F.Has("rel"):
		jumpRel(x)

	case x.F.Has("val2"):
		x.M.SetSeg(cpu.CS, uint16(x.F.Arg("val2")))
		x.M.SetIP(uint16(x.F.Arg("val")))

	case x.F.Arg("ext") == 5:
		seg, off, err := farTarget(x)
		if err != nil {
			return err
		}
		x.M.SetSeg(cpu.CS, seg)
		x.M.SetIP(off)

	default:
		op, err := x.Operand("rm")
		if err != nil {
			return err
		}
		x.M.SetIP(op.Get())
	}
	return nil
}

var wideOnly = map[string]string{"w": "1"}

// transferFamily builds CALL or JMP. near and far are the direct opcodes,
// extNear and extFar the FF group extensions.
func transferFamily(name, near, far string, extNear, extFar int, exec Handler, short bool) *Family {
	var direct []*Pattern
	if short {
		direct = append(direct, NewPattern([]string{"11101011", "<rel>"}, name+" <rel>", nil))
	}
	direct = append(direct,
		NewPattern([]string{near, "<rel>", "<rel>"}, name+" <rel>", nil),
		NewPattern([]string{far, "<val>", "<val>", "<val2>", "<val2>"}, name+" <val2>:<val>", nil),
	)

	return NewFamily(name, exec,
		direct,
		RegMemExt(name, "11111111", extNear, wideOnly),
		modrm(modLayouts, []string{"11111111"}, "<mod><ext><rm>", nil, name+" FAR <rm>",
			map[string]string{"ext": Bin(uint16(extFar), 3), "w": "1"}),
	)
}

func execRet(far bool) Handler {
	return func(x *Exec) error {
		x.M.SetIP(pop(x.M))
		if far {
			x.M.SetSeg(cpu.CS, pop(x.M))
		}
		if x.F.Has("val") {
			x.M.SetReg(cpu.SP, x.M.Reg(cpu.SP)+uint16(x.F.Arg("val")))
		}
		return nil
	}
}

func retFamily(name, opcode string, far bool) *Family {
	return NewFamily(name, execRet(far),
		Single(name, opcode+"1", nil),
		[]*Pattern{NewPattern([]string{opcode + "0", "<val>", "<val>"}, name+" <val>", nil)},
	)
}

func execJcc(x *Exec) error {
	if Cond(x.F.Arg("cc")).Holds(x.M) {
		jumpRel(x)
	}
	return nil
}

// jccFamilies builds one family per condition. Alternative spellings are
// extra shapes after the canonical one, so decoding always renders the canonical name.
func jccFamilies() []*Family {
	var out []*Family
	for c := range condNames {
		fixed := map[string]string{"cc": Bin(uint16(c), 4)}
		names := append([]string{condNames[c]}, condAliases[c]...)
		var shapes []*Pattern
		for _, n := range names {
			shapes = append(shapes, NewPattern([]string{"0111<cc>", "<rel>"}, n+" <rel>", fixed))
		}
		out = append(out, NewFamily(condNames[c], execJcc, shapes))
	}
	return out
}

// loopOps are the CX-counted jumps, by the low two opcode bits.
var loopOps = []struct {
	names []string
	cond  func(m Machine, cx uint16) bool
}{
	{[]string{"LOOPNZ", "LOOPNE"}, func(m Machine, cx uint16) bool { return cx != 0 && !m.Flag(cpu.ZF) }},
	{[]string{"LOOPZ", "LOOPE"}, func(m Machine, cx uint16) bool { return cx != 0 && m.Flag(cpu.ZF) }},
	{[]string{"LOOP"}, func(m Machine, cx uint16) bool { return cx != 0 }},
	{[]string{"JCXZ"}, func(m Machine, cx uint16) bool { return cx == 0 }},
}

func loopFamilies() []*Family {
	var out []*Family
	for i, op := range loopOps {
		i, op := i, op
		exec := func(x *Exec) error {
			cx := x.M.Reg(cpu.CX)
			if i < 3 {
				cx--
				x.M.SetReg(cpu.CX, cx)
			}
			if op.cond(x.M, cx) {
				jumpRel(x)
			}
			return nil
		}
		var shapes []*Pattern
		for _, n := range op.names {
			shapes = append(shapes, NewPattern([]string{"111000" + Bin(uint16(i), 2), "<rel>"}, n+" <rel>", nil))
		}
		out = append(out, NewFamily(op.names[0], exec, shapes))
	}
	return out
}

func flowFamilies() []*Family {
	out := []*Family{
		transferFamily("CALL", "11101000", "10011010", 2, 3, execCall, false),
		transferFamily("JMP", "11101001", "11101010", 4, 5, execJmp, true),
		retFamily("RET", "1100001", false),
		retFamily("RETF", "1100101", true),
	}
	out = append(out, jccFamilies()...)
	return append(out, loopFamilies()...)
}
