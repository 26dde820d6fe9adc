package isa

import "github.com/Urethramancer/i8086/cpu"

type aluFunc func(w Width, a, b uint16, cf bool) (uint16, Status)

func logic(op func(a, b uint16) uint16) aluFunc {
	return func(w Width, a, b uint16, _ bool) (uint16, Status) {
		r := op(a, b) & uint16(w.Mask())
		return r, Logic(w, r)
	}
}

var (
	aluAdd = func(w Width, a, b uint16, _ bool) (uint16, Status) { return Add(w, a, b, false) }
	aluAdc = func(w Width, a, b uint16, cf bool) (uint16, Status) { return Add(w, a, b, cf) }
	aluSub = func(w Width, a, b uint16, _ bool) (uint16, Status) { return Sub(w, a, b, false) }
	aluSbb = func(w Width, a, b uint16, cf bool) (uint16, Status) { return Sub(w, a, b, cf) }
	aluOr  = logic(func(a, b uint16) uint16 { return a | b })
	aluAnd = logic(func(a, b uint16) uint16 { return a & b })
	aluXor = logic(func(a, b uint16) uint16 { return a ^ b })
)

// aluOps is indexed by the three-bit operation code shared by the
// register, immediate and accumulator forms.
var aluOps = [8]struct {
	name  string
	fn    aluFunc
	write bool
}{
	{"ADD", aluAdd, true},
	{"OR", aluOr, true},
	{"ADC", aluAdc, true},
	{"SBB", aluSbb, true},
	{"AND", aluAnd, true},
	{"SUB", aluSub, true},
	{"XOR", aluXor, true},
	{"CMP", aluSub, false},
}

// aluHandler reads both operands before writing either, so ADD AX, AX works.
func aluHandler(fn aluFunc, write bool) Handler {
	return func(x *Exec) error {
		dst, src, err := x.Pair()
		if err != nil {
			return err
		}
		a, b := dst.Get(), src.Get()
		r, s := fn(x.Width(), a, b, x.M.Flag(cpu.CF))
		s.Apply(x.M, Arith)
		if write {
			dst.Set(r)
		}
		return nil
	}
}

func aluFamily(code int) *Family {
	op := aluOps[code]
	bits := Bin(uint16(code), 3)
	return NewFamily(op.name, aluHandler(op.fn, op.write),
		AccImm(op.name, "00"+bits+"10"),
		RegMemImm(op.name, "100000<s><w>", code),
		RegMemReg(op.name, "00"+bits+"0"),
	)
}

func testFamily() *Family {
	return NewFamily("TEST", aluHandler(aluAnd, false),
		AccImm("TEST", "1010100"),
		RegMemImm("TEST", "1111011<w>", 0),
		RegMemRegW("TEST", "1000010"),
	)
}

// unaryTarget is the r field of the short forms, or rm.
func unaryTarget(x *Exec) (Operand, error) {
	if x.F.Has("r") {
		return x.Operand("r")
	}
	return x.Operand("rm")
}

func incDec(dec bool) Handler {
	return func(x *Exec) error {
		op, err := unaryTarget(x)
		if err != nil {
			return err
		}
		var r uint16
		var s Status
		if dec {
			r, s = Sub(x.Width(), op.Get(), 1, false)
		} else {
			r, s = Add(x.Width(), op.Get(), 1, false)
		}
		s.Apply(x.M, Arith&^cpu.CF)
		op.Set(r)
		return nil
	}
}

func incDecFamily(name string, code int) *Family {
	return NewFamily(name, incDec(code == 1),
		[]*Pattern{NewPattern([]string{"0100" + fixedBit(code) + "<r>"}, name+" <r>", map[string]string{"w": "1"})},
		RegMemExt(name, "1111111<w>", code, nil),
	)
}

func execNot(x *Exec) error {
	op, err := x.Operand("rm")
	if err != nil {
		return err
	}
	op.Set(^op.Get() & uint16(x.Width().Mask()))
	return nil
}

func execNeg(x *Exec) error {
	op, err := x.Operand("rm")
	if err != nil {
		return err
	}
	r, s := Sub(x.Width(), 0, op.Get(), false)
	s.Apply(x.M, Arith)
	op.Set(r)
	return nil
}

func execMul(signed bool) Handler {
	return func(x *Exec) error {
		op, err := x.Operand("rm")
		if err != nil {
			return err
		}
		src := op.Get()
		var over bool
		if x.F.Wide() {
			a := x.M.Reg(cpu.AX)
			var r uint32
			if signed {
				p := int32(int16(a)) * int32(int16(src))
				r = uint32(p)
				over = p != int32(int16(p))
			} else {
				r = uint32(a) * uint32(src)
				over = r>>16 != 0
			}
			x.M.SetReg(cpu.AX, uint16(r))
			x.M.SetReg(cpu.DX, uint16(r>>16))
		} else {
			a := x.M.Reg(cpu.AL)
			var r uint16
			if signed {
				p := int16(int8(a)) * int16(int8(src))
				r = uint16(p)
				over = p != int16(int8(p))
			} else {
				r = a * (src & 0xFF)
				over = r>>8 != 0
			}
			x.M.SetReg(cpu.AX, r)
		}
		x.M.SetFlag(cpu.CF, over)
		x.M.SetFlag(cpu.OF, over)
		return nil
	}
}

func execDiv(signed bool) Handler {
	return func(x *Exec) error {
		op, err := x.Operand("rm")
		if err != nil {
			return err
		}
		div := op.Get()
		if div == 0 {
			return ErrDivideByZero
		}

		if x.F.Wide() {
			n := uint32(x.M.Reg(cpu.DX))<<16 | uint32(x.M.Reg(cpu.AX))
			var q, r uint32
			if signed {
				sq := int32(n) / int32(int16(div))
				if sq > 0x7FFF || sq < -0x8000 {
					return ErrDivideOverflow
				}
				q, r = uint32(sq), uint32(int32(n)%int32(int16(div)))
			} else {
				q, r = n/uint32(div), n%uint32(div)
				if q > 0xFFFF {
					return ErrDivideOverflow
				}
			}
			x.M.SetReg(cpu.AX, uint16(q))
			x.M.SetReg(cpu.DX, uint16(r))
			return nil
		}

		n := x.M.Reg(cpu.AX)
		div &= 0xFF
		var q, r uint16
		if signed {
			sq := int16(n) / int16(int8(div))
			if sq > 0x7F || sq < -0x80 {
				return ErrDivideOverflow
			}
			q, r = uint16(sq), uint16(int16(n)%int16(int8(div)))
		} else {
			q, r = n/div, n%div
			if q > 0xFF {
				return ErrDivideOverflow
			}
		}
		x.M.SetReg(cpu.AL, q)
		x.M.SetReg(cpu.AH, r)
		return nil
	}
}

var unaryOps = []struct {
	name string
	ext  int
	exec Handler
}{
	{"NOT", 2, execNot},
	{"NEG", 3, execNeg},
	{"MUL", 4, execMul(false)},
	{"IMUL", 5, execMul(true)},
	{"DIV", 6, execDiv(false)},
	{"IDIV", 7, execDiv(true)},
}

func unaryFamilies() []*Family {
	var out []*Family
	for _, op := range unaryOps {
		out = append(out, NewFamily(op.name, op.exec, RegMemExt(op.name, "1111011<w>", op.ext, nil)))
	}
	return out
}

func execCbw(x *Exec) error {
	x.M.SetReg(cpu.AX, SignExtend8(byte(x.M.Reg(cpu.AL))))
	return nil
}

func execCwd(x *Exec) error {
	dx := uint16(0)
	if x.M.Reg(cpu.AX)&0x8000 != 0 {
		dx = 0xFFFF
	}
	x.M.SetReg(cpu.DX, dx)
	return nil
}
