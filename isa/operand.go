package isa

import "github.com/Urethramancer/i8086/cpu"

// Operand is a live view of one operand for the duration of one execution.
// Memory operands recompute their address on every access.
type Operand interface {
	Name() string
	Get() uint16
	Set(v uint16)
	Wide() bool
	// Next returns the word after this one, for far pointers held in memory.
	Next() (Operand, bool)
}

type regOperand struct {
	m Machine
	r cpu.Register
}

func (o regOperand) Name() string          { return o.r.String() }
func (o regOperand) Get() uint16           { return o.m.Reg(o.r) }
func (o regOperand) Set(v uint16)          { o.m.SetReg(o.r, v) }
func (o regOperand) Wide() bool            { return o.r.Wide() }
func (o regOperand) Next() (Operand, bool) { return nil, false }

type segOperand struct {
	m Machine
	s cpu.Segment
}

func (o segOperand) Name() string          { return o.s.String() }
func (o segOperand) Get() uint16           { return o.m.Seg(o.s) }
func (o segOperand) Set(v uint16)          { o.m.SetSeg(o.s, v) }
func (o segOperand) Wide() bool            { return true }
func (o segOperand) Next() (Operand, bool) { return nil, false }

type immOperand struct {
	name string
	v    uint16
	wide bool
}

func (o immOperand) Name() string          { return o.name }
func (o immOperand) Get() uint16           { return o.v }
func (o immOperand) Set(uint16)            {}
func (o immOperand) Wide() bool            { return o.wide }
func (o immOperand) Next() (Operand, bool) { return nil, false }

type memOperand struct {
	m     Machine
	f     Fields
	name  string
	wide  bool
	extra uint16
}

func (o memOperand) address() (uint16, uint16) {
	seg, off := EffectiveAddress(o.m, o.f)
	return seg, off + o.extra
}

func (o memOperand) Name() string { return o.name }

func (o memOperand) Get() uint16 {
	seg, off := o.address()
	return o.m.ReadMem(seg, off, o.wide)
}

func (o memOperand) Set(v uint16) {
	seg, off := o.address()
	o.m.WriteMem(seg, off, o.wide, v)
}

func (o memOperand) Wide() bool { return o.wide }

func (o memOperand) Next() (Operand, bool) {
	n := o
	if o.wide {
		n.extra += 2
	} else {
		n.extra++
	}
	return n, true
}

// EffectiveAddress computes the segment base value and offset of the memory
// operand described by f, from the machine's current registers.
func EffectiveAddress(m Machine, f Fields) (seg, off uint16) {
	s := cpu.DS
	if f.Has("ea") {
		off = uint16(f.Arg("ea"))
	} else {
		base := Base(f.Arg("rm"))
		for _, r := range base.Regs() {
			off += m.Reg(r)
		}
		off += uint16(f.Arg("disp"))
		s = base.Segment()
	}
	if f.Has("sego") {
		s = cpu.Segment(f.Arg("sego"))
	}
	return m.Seg(s), off
}

// IsMemory reports whether the rm or ea fields name a memory operand.
func IsMemory(f Fields) bool {
	if f.Has("ea") {
		return true
	}
	mod, ok := f["mod"]
	return ok && Mod(mod.Arg) != ModRegister
}

// ResolveOperand binds the named field to machine storage.
func ResolveOperand(f Fields, name string, m Machine) (Operand, error) {
	fld, ok := f[name]
	if !ok {
		return nil, undefined(name, "")
	}

	switch name {
	case "reg", "r":
		return regOperand{m: m, r: cpu.RegW(uint8(fld.Arg), f.Wide())}, nil
	case "seg":
		return segOperand{m: m, s: cpu.Segment(fld.Arg)}, nil
	case "rm":
		if !IsMemory(f) {
			return regOperand{m: m, r: cpu.RegW(uint8(fld.Arg), f.Wide())}, nil
		}
		return memOperand{m: m, f: f, name: fld.Asm, wide: f.Wide()}, nil
	case "ea":
		return memOperand{m: m, f: f, name: fld.Asm, wide: f.Wide()}, nil
	case "val":
		return immOperand{name: fld.Asm, v: uint16(fld.Arg), wide: len(fld.Bin) == 16 || f.Wide()}, nil
	case "val2":
		return immOperand{name: fld.Asm, v: uint16(fld.Arg), wide: true}, nil
	case "port":
		return immOperand{name: fld.Asm, v: uint16(fld.Arg)}, nil
	}
	return nil, undefined(name, fld.Bin)
}
