package assembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/i8086/isa"
)

// transfer encodes a relative CALL, JMP, Jcc or LOOP to a label.
// The two-digit displacement is tried first, which selects JMP SHORT; once a
// pass finds the target out of its reach the node stays near.
func (asm *Assembler) transfer(n *Node, pc uint16) ([]byte, error) {
	mnemonic := strings.Fields(n.Text)[0]
	target, known := asm.labels[n.Target]

	digits := []int{2, 4}
	if n.Near {
		digits = []int{4}
	}

	var last error
	var fallback []byte
	short := false
	for _, d := range digits {
		probe, err := isa.Assemble(mnemonic + " +" + strings.Repeat("0", d))
		if err != nil {
			if last == nil {
				last = err
			}
			continue
		}
		if !known {
			// Forward reference in the sizing pass.
			return probe.Bytes(), nil
		}

		disp := int(target) - int(pc) - probe.Size()
		if d == 4 {
			// Near displacements wrap within the segment.
			disp = int(int16(disp))
			if short {
				n.Near = true
			}
		} else if disp < -0x80 || disp > 0x7F {
			last = fmt.Errorf("%s is out of range of %s (%d bytes)", n.Target, mnemonic, disp)
			fallback = probe.Bytes()
			short = true
			continue
		}

		inst, err := isa.Assemble(mnemonic + " " + isa.SignedHex(disp, d))
		if err != nil {
			return nil, err
		}
		return inst.Bytes(), nil
	}
	return fallback, last
}
