package isa

// buildRegistry lists every family in match order. Where encodings or
// spellings overlap, the more specific family comes first: NOP before
// XCHG AX, AX, and the ALU families before the opcode groups sharing
// their immediate forms.
func buildRegistry() []*Family {
	var r []*Family
	for code := range aluOps {
		r = append(r, aluFamily(code))
	}
	r = append(r, testFamily())
	r = append(r, controlFamilies()...)
	r = append(r, xchgFamily())
	r = append(r, moveFamilies()...)
	r = append(r,
		incDecFamily("INC", 0),
		incDecFamily("DEC", 1),
	)
	r = append(r, unaryFamilies()...)
	r = append(r, shiftFamilies()...)
	r = append(r, bcdFamilies()...)
	r = append(r, flowFamilies()...)
	r = append(r, stringFamilies()...)
	return r
}
