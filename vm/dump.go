package vm

import (
	"fmt"
	"io"

	"github.com/grimdork/climate/cfmt"

	"github.com/Urethramancer/i8086/cpu"
)

var (
	dumpRegs = []cpu.Register{cpu.AX, cpu.BX, cpu.CX, cpu.DX, cpu.SP, cpu.BP, cpu.SI, cpu.DI}
	dumpSegs = []cpu.Segment{cpu.ES, cpu.CS, cpu.SS, cpu.DS}
)

// DumpRegisters prints registers, segments, IP and flags. With colour set,
// names and values are wrapped in ANSI colours.
func (v *VM) DumpRegisters(w io.Writer, colour bool) {
	name, value, reset := "", "", ""
	if colour {
		name, value, reset = cfmt.Cyan, cfmt.LightWhite, cfmt.Reset
	}
	field := func(n string, x uint16) {
		fmt.Fprintf(w, "%s%s%s=%s%04X%s  ", name, n, reset, value, x, reset)
	}

	for _, r := range dumpRegs {
		field(r.String(), v.CPU.Reg(r))
	}
	fmt.Fprintln(w)
	for _, s := range dumpSegs {
		field(s.String(), v.CPU.Seg(s))
	}
	field("IP", v.CPU.IP())
	fmt.Fprintf(w, "%sFLAGS%s=%s%s%s", name, reset, value, v.CPU.FlagString(), reset)
	if v.CPU.Halted {
		if colour {
			fmt.Fprintf(w, "  %sHALTED%s", cfmt.Red, cfmt.Reset)
		} else {
			fmt.Fprint(w, "  HALTED")
		}
	}
	fmt.Fprintln(w)
}
