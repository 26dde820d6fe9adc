package isa

import "strings"

// layout is one addressing-mode form of a ModRM byte and the bytes that follow it.
type layout struct {
	fixed map[string]string
	tail  []string
}

// Direct addressing goes first so that mod=00 rm=110 never reads as [BP].
var modLayouts = []layout{
	{map[string]string{"mod": "00", "rm": "110"}, []string{"<ea>", "<ea>"}},
	{map[string]string{"mod": "00"}, nil},
	{map[string]string{"mod": "01"}, []string{"<disp>"}},
	{map[string]string{"mod": "10"}, []string{"<disp>", "<disp>"}},
	{map[string]string{"mod": "11"}, nil},
}

// memLayouts leaves out register-direct, for LEA and LDS-style operands.
var memLayouts = modLayouts[:4]

func merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func fixedBit(v int) string {
	if v != 0 {
		return "1"
	}
	return "0"
}

// modrm expands an opcode, a ModRM template and trailing bytes into one
// shape per addressing layout.
func modrm(layouts []layout, opcode []string, modrmByte string, trailing []string, text string, fixed map[string]string) []*Pattern {
	var out []*Pattern
	for _, l := range layouts {
		bytes := append([]string{}, opcode...)
		bytes = append(bytes, modrmByte)
		bytes = append(bytes, l.tail...)
		bytes = append(bytes, trailing...)
		out = append(out, NewPattern(bytes, text, merge(fixed, l.fixed)))
	}
	return out
}

// immBytes returns the immediate byte templates for a field of the given size.
func immBytes(name string, wide bool) []string {
	if wide {
		return []string{"<" + name + ">", "<" + name + ">"}
	}
	return []string{"<" + name + ">"}
}

// RegMemReg builds the register/memory with register shape: opcode6 holds
// the six opcode bits ahead of d and w. The d=0 shapes come first.
func RegMemReg(name, opcode6 string) []*Pattern {
	var out []*Pattern
	for d := 0; d < 2; d++ {
		text := name + " <rm>, <reg>"
		if d == 1 {
			text = name + " <reg>, <rm>"
		}
		out = append(out, modrm(modLayouts, []string{opcode6 + "<d><w>"}, "<mod><reg><rm>", nil, text,
			map[string]string{"d": fixedBit(d)})...)
	}
	return out
}

// RegMemRegW is the register/memory with register shape for opcodes without a d bit.
// Both operand orders assemble; the first text is the one rendered.
func RegMemRegW(name, opcode7 string) []*Pattern {
	var out []*Pattern
	for _, text := range []string{name + " <rm>, <reg>", name + " <reg>, <rm>"} {
		out = append(out, modrm(modLayouts, []string{opcode7 + "<w>"}, "<mod><reg><rm>", nil, text, nil)...)
	}
	return out
}

// RegMemImm builds the register/memory with immediate shape. opcode is the
// opcode byte template ending in <s><w> or <w>; ext is the opcode extension.
func RegMemImm(name, opcode string, ext int) []*Pattern {
	type sw struct{ s, w int }
	combos := []sw{{0, 0}, {0, 1}}
	if strings.Contains(opcode, "<s>") {
		combos = []sw{{1, 1}, {0, 0}, {0, 1}}
	}

	var out []*Pattern
	for _, c := range combos {
		fixed := map[string]string{
			"w":   fixedBit(c.w),
			"ext": Bin(uint16(ext), 3),
			"ptr": "1",
		}
		if strings.Contains(opcode, "<s>") {
			fixed["s"] = fixedBit(c.s)
		}
		imm := immBytes("val", c.w == 1 && c.s == 0)
		out = append(out, modrm(modLayouts, []string{opcode}, "<mod><ext><rm>", imm, name+" <rm>, <val>", fixed)...)
	}
	return out
}

// AccImm builds the accumulator with immediate shape: opcode7 holds the bits ahead of w.
func AccImm(name, opcode7 string) []*Pattern {
	return []*Pattern{
		NewPattern([]string{opcode7 + "<w>", "<val>"}, name+" AL, <val>", map[string]string{"w": "0"}),
		NewPattern([]string{opcode7 + "<w>", "<val>", "<val>"}, name+" AX, <val>", map[string]string{"w": "1"}),
	}
}

// RegMemExt builds a one-operand ModRM shape selected by an opcode extension,
// with optional trailing bytes after the address.
func RegMemExt(name, opcode string, ext int, fixed map[string]string) []*Pattern {
	f := merge(fixed, map[string]string{"ext": Bin(uint16(ext), 3), "ptr": "1"})
	return modrm(modLayouts, []string{opcode}, "<mod><ext><rm>", nil, name+" <rm>", f)
}

// Single builds a one-byte shape with no fields.
func Single(name, opcode string, fixed map[string]string) []*Pattern {
	return []*Pattern{NewPattern([]string{opcode}, name, fixed)}
}
