package isa

// Instruction is a matched instruction: its bytes, its text and its executor.
type Instruction struct {
	family *Family
	shape  *Pattern
	fields Fields
	code   []byte
	asm    string
}

func newInstruction(fam *Family, p *Pattern, f Fields, code []byte) *Instruction {
	asm := p.Format(f)
	if seg, ok := f["sego"]; ok && !IsMemory(f) && !p.Binds("sego") {
		asm = seg.Asm + ": " + asm
	}
	return &Instruction{
		family: fam,
		shape:  p,
		fields: f,
		code:   append([]byte{}, code...),
		asm:    asm,
	}
}

// Name is the family mnemonic.
func (i *Instruction) Name() string {
	return i.family.Name
}

// Asm returns the assembly text.
func (i *Instruction) Asm() string {
	return i.asm
}

func (i *Instruction) String() string {
	return i.asm
}

// Bytes returns a copy of the machine code, prefix included.
func (i *Instruction) Bytes() []byte {
	return append([]byte{}, i.code...)
}

// Binary returns each byte as eight binary digits.
func (i *Instruction) Binary() []string {
	return BinaryBytes(i.code)
}

// Decimal returns each byte as an integer.
func (i *Instruction) Decimal() []int {
	return DecimalBytes(i.code)
}

// Hex returns each byte as two uppercase hex digits.
func (i *Instruction) Hex() []string {
	return HexBytes(i.code)
}

// Size is the number of bytes consumed.
func (i *Instruction) Size() int {
	return len(i.code)
}

// Fields returns the resolved fields.
func (i *Instruction) Fields() Fields {
	return i.fields
}

// Shape returns the pattern the instruction matched.
func (i *Instruction) Shape() *Pattern {
	return i.shape
}

// Exec advances IP past the instruction and runs its handler against m.
// Execution faults are returned wrapped in ErrFault.
func (i *Instruction) Exec(m Machine) error {
	m.SetIP(m.IP() + uint16(len(i.code)))
	return i.family.exec(&Exec{M: m, F: i.fields, Size: len(i.code)})
}
