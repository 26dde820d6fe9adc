package disassembler

import (
	"github.com/Urethramancer/i8086/isa"
)

// LabelType defines the context of a label.
type LabelType int

const (
	// JumpTarget is for a JMP, Jcc or LOOP target.
	JumpTarget LabelType = iota
	// SubroutineEntry is for a CALL target.
	SubroutineEntry
)

// Instruction represents a single decoded instruction at a specific address.
type Instruction struct {
	Address uint16
	Inst    *isa.Instruction
	IsCode  bool // Flag to mark as reachable code
}

// Size is the number of bytes the instruction occupies.
func (in *Instruction) Size() int {
	return in.Inst.Size()
}

// target returns the destination of a relative transfer.
func (in *Instruction) target() (uint16, bool) {
	f := in.Inst.Fields()
	if !f.Has("rel") {
		return 0, false
	}
	return in.Address + uint16(in.Size()) + uint16(f.Arg("rel")), true
}

// Line is one line of a listing: an instruction or a run of data bytes.
type Line struct {
	Address uint16
	Label   string
	Bytes   []byte
	// Inst is nil for data.
	Inst *isa.Instruction
	// Text is the listing text without the label, e.g. "JNZ loc_0103" or "DB 4F, 01".
	Text string
}

// Mnemonic splits Text into the mnemonic and its operands.
func (l Line) Mnemonic() (string, string) {
	return splitMnemonic(l.Text)
}
