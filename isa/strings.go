package isa

import "github.com/Urethramancer/i8086/cpu"

// source is DS:SI unless overridden; the destination is always ES:DI.
func (x *Exec) source() (uint16, uint16) {
	s := cpu.DS
	if x.F.Has("sego") {
		s = cpu.Segment(x.F.Arg("sego"))
	}
	return x.M.Seg(s), x.M.Reg(cpu.SI)
}

func (x *Exec) destination() (uint16, uint16) {
	return x.M.Seg(cpu.ES), x.M.Reg(cpu.DI)
}

// advance moves an index register by one element in the DF direction.
func (x *Exec) advance(r cpu.Register) {
	step := uint16(1)
	if x.F.Wide() {
		step = 2
	}
	if x.M.Flag(cpu.DF) {
		step = -step
	}
	x.M.SetReg(r, x.M.Reg(r)+step)
}

func movs(x *Exec) {
	seg, off := x.source()
	v := x.M.ReadMem(seg, off, x.F.Wide())
	seg, off = x.destination()
	x.M.WriteMem(seg, off, x.F.Wide(), v)
	x.advance(cpu.SI)
	x.advance(cpu.DI)
}

func cmps(x *Exec) {
	seg, off := x.source()
	a := x.M.ReadMem(seg, off, x.F.Wide())
	seg, off = x.destination()
	b := x.M.ReadMem(seg, off, x.F.Wide())
	_, s := Sub(x.Width(), a, b, false)
	s.Apply(x.M, Arith)
	x.advance(cpu.SI)
	x.advance(cpu.DI)
}

func scas(x *Exec) {
	seg, off := x.destination()
	b := x.M.ReadMem(seg, off, x.F.Wide())
	_, s := Sub(x.Width(), x.acc().Get(), b, false)
	s.Apply(x.M, Arith)
	x.advance(cpu.DI)
}

func lods(x *Exec) {
	seg, off := x.source()
	x.acc().Set(x.M.ReadMem(seg, off, x.F.Wide()))
	x.advance(cpu.SI)
}

func stos(x *Exec) {
	seg, off := x.destination()
	x.M.WriteMem(seg, off, x.F.Wide(), x.acc().Get())
	x.advance(cpu.DI)
}

// execString runs one iteration, or with a repeat prefix iterates while CX
// is non-zero. The comparing primitives also stop when ZF differs from z.
func execString(op func(*Exec), compares bool) Handler {
	return func(x *Exec) error {
		if !x.F.Has("z") {
			op(x)
			return nil
		}
		for x.M.Reg(cpu.CX) != 0 {
			op(x)
			x.M.SetReg(cpu.CX, x.M.Reg(cpu.CX)-1)
			if compares && x.M.Flag(cpu.ZF) != x.F.On("z") {
				break
			}
		}
		return nil
	}
}

var stringOps = []struct {
	name     string
	opcode   string
	op       func(*Exec)
	compares bool
}{
	{"MOVS", "1010010", movs, false},
	{"CMPS", "1010011", cmps, true},
	{"STOS", "1010101", stos, false},
	{"LODS", "1010110", lods, false},
	{"SCAS", "1010111", scas, true},
}

func stringFamilies() []*Family {
	var out []*Family
	for _, s := range stringOps {
		var shapes []*Pattern
		for w, suffix := range []string{"B", "W"} {
			name := s.name + suffix
			op := s.opcode + "<w>"
			shapes = append(shapes, NewPattern([]string{op}, name, map[string]string{"w": fixedBit(w)}))
			reps := []struct{ prefix, z string }{{"REP", "1"}}
			if s.compares {
				reps = []struct{ prefix, z string }{{"REPE", "1"}, {"REPNE", "0"}}
			}
			for _, r := range reps {
				fixed := map[string]string{"w": fixedBit(w), "z": r.z}
				shapes = append(shapes,
					NewPattern([]string{"1111001<z>", op}, r.prefix+" "+name, fixed),
					// The 8086 also takes the segment override after the repeat prefix.
					NewPattern([]string{"1111001<z>", "001<sego>110", op}, r.prefix+" <sego>: "+name, fixed),
				)
			}
		}
		out = append(out, NewFamily(s.name, execString(s.op, s.compares), shapes))
	}
	return out
}
