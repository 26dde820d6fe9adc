package isa

import "github.com/Urethramancer/i8086/cpu"

// Machine is the register, flag and memory storage an instruction executes against.
// The codec never owns it; *cpu.CPU is the stock implementation.
type Machine interface {
	Reg(r cpu.Register) uint16
	SetReg(r cpu.Register, v uint16)
	Seg(s cpu.Segment) uint16
	SetSeg(s cpu.Segment, v uint16)
	Flag(f cpu.Flag) bool
	SetFlag(f cpu.Flag, on bool)
	// ReadMem and WriteMem address seg:off; words are little-endian.
	ReadMem(seg, off uint16, wide bool) uint16
	WriteMem(seg, off uint16, wide bool, v uint16)
	IP() uint16
	SetIP(v uint16)
}

// PortIO is implemented by machines with an I/O port space.
type PortIO interface {
	In(port uint16, wide bool) uint16
	Out(port uint16, wide bool, v uint16)
}

// Halter is implemented by machines that can latch HLT.
type Halter interface {
	Halt()
}

// Stacker is implemented by machines with their own SS:SP push and pop.
type Stacker interface {
	Push(v uint16)
	Pop() uint16
}

// FlagsWorder is implemented by machines that store FLAGS as one word.
type FlagsWorder interface {
	FlagsWord() uint16
	SetFlagsWord(v uint16)
}

var _ Machine = (*cpu.CPU)(nil)
var _ PortIO = (*cpu.CPU)(nil)
var _ Halter = (*cpu.CPU)(nil)
var _ Stacker = (*cpu.CPU)(nil)
var _ FlagsWorder = (*cpu.CPU)(nil)

// push writes v below SS:SP and moves SP down.
func push(m Machine, v uint16) {
	if s, ok := m.(Stacker); ok {
		s.Push(v)
		return
	}
	sp := m.Reg(cpu.SP) - 2
	m.SetReg(cpu.SP, sp)
	m.WriteMem(m.Seg(cpu.SS), sp, true, v)
}

// pop reads the word at SS:SP and moves SP up.
func pop(m Machine) uint16 {
	if s, ok := m.(Stacker); ok {
		return s.Pop()
	}
	sp := m.Reg(cpu.SP)
	v := m.ReadMem(m.Seg(cpu.SS), sp, true)
	m.SetReg(cpu.SP, sp+2)
	return v
}

// flagBits packs the FLAGS word from the individual flags.
func flagBits(m Machine) uint16 {
	if fw, ok := m.(FlagsWorder); ok {
		return fw.FlagsWord()
	}
	v := uint16(0x0002)
	for _, f := range cpu.AllFlags {
		if m.Flag(f) {
			v |= uint16(f)
		}
	}
	return v
}

// setFlagBits unpacks a FLAGS word into the individual flags.
func setFlagBits(m Machine, v uint16) {
	if fw, ok := m.(FlagsWorder); ok {
		fw.SetFlagsWord(v)
		return
	}
	for _, f := range cpu.AllFlags {
		m.SetFlag(f, v&uint16(f) != 0)
	}
}
