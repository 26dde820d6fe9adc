package disassembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/i8086/isa"
)

// Options controls a disassembly.
type Options struct {
	// Origin is the address of the first byte, as set by ORG.
	Origin uint16
	// Linear decodes everything in sequence instead of following control
	// flow from the entry point. Undecodable bytes still become DB.
	Linear bool
}

// Disassemble renders code as assembly source that assembles back to the
// same bytes at the same origin.
func Disassemble(code []byte, opt Options) (string, error) {
	lines, err := Listing(code, opt)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if opt.Origin != 0 {
		fmt.Fprintf(&out, "    %-8s %04X\n", "ORG", opt.Origin)
	}
	for _, l := range lines {
		if l.Label != "" {
			fmt.Fprintf(&out, "%s:\n", l.Label)
		}
		mn, ops := l.Mnemonic()
		if ops != "" {
			fmt.Fprintf(&out, "    %-8s %s\n", mn, ops)
		} else {
			fmt.Fprintf(&out, "    %s\n", mn)
		}
	}
	return out.String(), nil
}

// Listing performs a multi-stage disassembly and returns the lines in
// address order.
func Listing(code []byte, opt Options) ([]Line, error) {
	if len(code) == 0 {
		return nil, nil
	}
	if int(opt.Origin)+len(code) > 0x10000 {
		return nil, fmt.Errorf("%d bytes at %04X do not fit in a segment", len(code), opt.Origin)
	}

	// --- STAGE 1: Linear Sweep ---
	instructions := make([]*Instruction, len(code))
	for off := range code {
		inst, err := isa.Decode(code, off)
		if err != nil {
			continue
		}
		instructions[off] = &Instruction{Address: opt.Origin + uint16(off), Inst: inst}
	}

	// --- STAGE 2: Control Flow Analysis ---
	if opt.Linear {
		for off := 0; off < len(code); {
			in := instructions[off]
			if in == nil {
				off++
				continue
			}
			in.IsCode = true
			off += in.Size()
		}
	} else {
		walk(instructions, opt.Origin)
	}

	// --- STAGE 3: Lay out lines ---
	var lines []Line
	stringCounter := 1
	for pc := 0; pc < len(code); {
		if in := instructions[pc]; in != nil && in.IsCode {
			lines = append(lines, Line{
				Address: in.Address,
				Bytes:   in.Inst.Bytes(),
				Inst:    in.Inst,
				Text:    in.Inst.Asm(),
			})
			pc += in.Size()
			continue
		}

		// Not code: find the end of the data block.
		end := pc
		for end < len(code) {
			if in := instructions[end]; in != nil && in.IsCode {
				break
			}
			end++
		}
		lines = append(lines, dataLines(code[pc:end], opt.Origin+uint16(pc), &stringCounter)...)
		pc = end
	}

	labelTargets(lines)
	return lines, nil
}

// walk marks every instruction reachable from offset 0, following
// fall-through and relative transfers.
func walk(instructions []*Instruction, origin uint16) {
	q := newQueue()
	q.push(0)
	for {
		off, ok := q.pop()
		if !ok {
			break
		}
		if off < 0 || off >= len(instructions) {
			continue
		}
		in := instructions[off]
		if in == nil || in.IsCode {
			continue
		}
		in.IsCode = true

		if !isTerminal(in.Inst.Name()) {
			q.push(off + in.Size())
		}
		if t, ok := in.target(); ok {
			q.push(int(t) - int(origin))
		}
	}
}

// labelTargets names the lines that relative transfers land on and rewrites
// the transfers to use the names. Targets inside another line keep their
// numeric displacement.
func labelTargets(lines []Line) {
	starts := make(map[uint16]int, len(lines))
	for i, l := range lines {
		if l.Inst != nil {
			starts[l.Address] = i
		}
	}

	kinds := make(map[int]LabelType)
	targets := make(map[int]int)
	for i, l := range lines {
		if l.Inst == nil || l.Inst.Fields().Has("sego") {
			continue
		}
		in := Instruction{Address: l.Address, Inst: l.Inst}
		t, ok := in.target()
		if !ok {
			continue
		}
		j, ok := starts[t]
		if !ok {
			continue
		}
		targets[i] = j
		if l.Inst.Name() == "CALL" {
			kinds[j] = SubroutineEntry
		} else if _, exists := kinds[j]; !exists {
			kinds[j] = JumpTarget
		}
	}

	for j, kind := range kinds {
		lines[j].Label = labelName(lines[j].Address, kind)
	}
	for i, j := range targets {
		mn, _ := lines[i].Mnemonic()
		if mn == "JMP" && lines[i].Inst.Size() == 3 {
			// Keep E9 near even when the target is within short reach.
			mn += " NEAR"
		}
		lines[i].Text = mn + " " + lines[j].Label
	}
}
