package assembler

import (
	"fmt"
	"maps"
	"strings"

	"github.com/Urethramancer/i8086/isa"
)

// maxPasses bounds the label layout loop.
const maxPasses = 32

// Assembler holds the state for the assembly process.
type Assembler struct {
	symbols map[string]int64
	labels  map[string]uint16
	// names holds every declared label, known before any address is.
	names  map[string]bool
	origin uint16
}

// New creates a new Assembler instance.
func New() *Assembler {
	return &Assembler{
		symbols: make(map[string]int64),
		labels:  make(map[string]uint16),
		names:   make(map[string]bool),
	}
}

// Assemble takes 8086 assembly source and returns the machine code, which
// starts at origin unless an ORG before the first instruction moves it.
func (asm *Assembler) Assemble(src string, origin uint16) ([]byte, error) {
	clear(asm.symbols)
	clear(asm.labels)
	clear(asm.names)

	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	nodes, err := asm.parseLines(lines)
	if err != nil {
		return nil, err
	}

	// Pass: resolve label addresses and node sizes until stable.
	for i := 0; i < maxPasses; i++ {
		code, changed, err := asm.pass(nodes, origin)
		if changed {
			continue
		}
		if err != nil {
			return nil, err
		}
		return code, nil
	}
	return nil, fmt.Errorf("label addresses did not settle after %d passes", maxPasses)
}

// Origin is the address of the first byte of the last assembled program.
func (asm *Assembler) Origin() uint16 {
	return asm.origin
}

// Labels returns the label addresses of the last assembled program.
func (asm *Assembler) Labels() map[string]uint16 {
	return maps.Clone(asm.labels)
}

// pass lays out and encodes every node once. The code is only final when
// nothing changed, and only then is an error reported: a displacement that is
// out of range on one pass may fit after other nodes shrink.
func (asm *Assembler) pass(nodes []*Node, origin uint16) ([]byte, bool, error) {
	var out []byte
	var first error
	pc := origin
	asm.origin = origin
	started, changed := false, false

	for _, n := range nodes {
		var code []byte
		var err error

		switch n.Type {
		case NodeLabel:
			if addr, ok := asm.labels[n.Label]; !ok || addr != pc {
				asm.labels[n.Label] = pc
				changed = true
			}
			continue

		case NodeDirective:
			if n.Directive != "ORG" {
				code, err = asm.data(n)
				break
			}
			var addr int64
			addr, err = asm.parseConstant(n.Text)
			switch {
			case err != nil:
			case addr < 0 || addr > 0xFFFF:
				err = fmt.Errorf("ORG %s is outside the segment", n.Text)
			case !started:
				pc = uint16(addr)
				asm.origin = pc
				continue
			case uint16(addr) < pc:
				err = fmt.Errorf("ORG %04X is behind %04X", addr, pc)
			default:
				code = make([]byte, uint16(addr)-pc)
			}

		case NodeInstruction:
			code, err = asm.instruction(n, pc)
		}

		started = true
		if err != nil && first == nil {
			first = n.errorf(err)
		}
		if uint16(len(code)) != n.Size {
			n.Size = uint16(len(code))
			changed = true
		}
		out = append(out, code...)
		pc += uint16(len(code))
	}
	return out, changed, first
}

func (asm *Assembler) instruction(n *Node, pc uint16) ([]byte, error) {
	if n.Target != "" {
		return asm.transfer(n, pc)
	}
	inst, err := isa.Assemble(asm.expand(n.Text))
	if err != nil {
		return nil, err
	}
	return inst.Bytes(), nil
}
