package isa

import "github.com/Urethramancer/i8086/cpu"

func setFlag(f cpu.Flag, on bool) Handler {
	return func(x *Exec) error {
		x.M.SetFlag(f, on)
		return nil
	}
}

func execCmc(x *Exec) error {
	x.M.SetFlag(cpu.CF, !x.M.Flag(cpu.CF))
	return nil
}

func execNop(*Exec) error {
	return nil
}

func execHlt(x *Exec) error {
	if h, ok := x.M.(Halter); ok {
		h.Halt()
	}
	return nil
}

// port is the immediate port number, or DX.
func port(x *Exec) uint16 {
	if x.F.Has("port") {
		return uint16(x.F.Arg("port"))
	}
	return x.M.Reg(cpu.DX)
}

func execIn(x *Exec) error {
	io, ok := x.M.(PortIO)
	if !ok {
		return ErrNoPorts
	}
	x.acc().Set(io.In(port(x), x.F.Wide()))
	return nil
}

func execOut(x *Exec) error {
	io, ok := x.M.(PortIO)
	if !ok {
		return ErrNoPorts
	}
	io.Out(port(x), x.F.Wide(), x.acc().Get())
	return nil
}

func ioFamily(name string, in bool) *Family {
	var shapes []*Pattern
	for w, acc := range []string{"AL", "AX"} {
		fixed := map[string]string{"w": fixedBit(w)}
		immText, dxText := name+" "+acc+", <port>", name+" "+acc+", DX"
		imm, dx := "1110010<w>", "1110110<w>"
		if !in {
			immText, dxText = name+" <port>, "+acc, name+" DX, "+acc
			imm, dx = "1110011<w>", "1110111<w>"
		}
		shapes = append(shapes,
			NewPattern([]string{imm, "<port>"}, immText, fixed),
			NewPattern([]string{dx}, dxText, fixed),
		)
	}
	exec := execOut
	if in {
		exec = execIn
	}
	return NewFamily(name, exec, shapes)
}

func controlFamilies() []*Family {
	return []*Family{
		NewFamily("NOP", execNop, Single("NOP", "10010000", nil)),
		NewFamily("HLT", execHlt, Single("HLT", "11110100", nil)),
		NewFamily("CMC", execCmc, Single("CMC", "11110101", nil)),
		NewFamily("CLC", setFlag(cpu.CF, false), Single("CLC", "11111000", nil)),
		NewFamily("STC", setFlag(cpu.CF, true), Single("STC", "11111001", nil)),
		NewFamily("CLI", setFlag(cpu.IF, false), Single("CLI", "11111010", nil)),
		NewFamily("STI", setFlag(cpu.IF, true), Single("STI", "11111011", nil)),
		NewFamily("CLD", setFlag(cpu.DF, false), Single("CLD", "11111100", nil)),
		NewFamily("STD", setFlag(cpu.DF, true), Single("STD", "11111101", nil)),
		ioFamily("IN", true),
		ioFamily("OUT", false),
	}
}
