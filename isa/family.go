package isa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Urethramancer/i8086/cpu"
)

// Handler executes one decoded instruction. IP already points past it.
type Handler func(x *Exec) error

// Exec is what a handler sees: the machine, the resolved fields and the size
// of the instruction.
type Exec struct {
	M    Machine
	F    Fields
	Size int
}

// Operand resolves a named field against the machine.
func (x *Exec) Operand(name string) (Operand, error) {
	return ResolveOperand(x.F, name, x.M)
}

// Width is the operand width selected by w.
func (x *Exec) Width() Width {
	return widthOf(x.F.Wide())
}

// acc is AL or AX, by w.
func (x *Exec) acc() Operand {
	return regOperand{m: x.M, r: cpu.RegW(0, x.F.Wide())}
}

// memSide is the rm or direct-address operand.
func (x *Exec) memSide() (Operand, error) {
	if x.F.Has("rm") {
		return x.Operand("rm")
	}
	if x.F.Has("ea") {
		return x.Operand("ea")
	}
	return x.acc(), nil
}

// regSide is the reg or segment operand, or the accumulator when neither is encoded.
func (x *Exec) regSide() (Operand, error) {
	switch {
	case x.F.Has("reg"):
		return x.Operand("reg")
	case x.F.Has("seg"):
		return x.Operand("seg")
	}
	return x.acc(), nil
}

// Pair resolves destination and source for the two-operand shapes.
// Immediate shapes write their register or memory operand; otherwise d
// chooses whether the register side is the destination.
func (x *Exec) Pair() (dst, src Operand, err error) {
	if x.F.Has("val") {
		src, err = x.Operand("val")
		if err != nil {
			return nil, nil, err
		}
		if x.F.Has("rm") || x.F.Has("ea") {
			dst, err = x.memSide()
		} else {
			dst, err = x.regSide()
		}
		return dst, src, err
	}

	reg, err := x.regSide()
	if err != nil {
		return nil, nil, err
	}
	mem, err := x.memSide()
	if err != nil {
		return nil, nil, err
	}
	if x.F.On("d") {
		return reg, mem, nil
	}
	return mem, reg, nil
}

// Family is one mnemonic: its shapes in match order and its executor.
type Family struct {
	Name   string
	shapes []*Pattern
	exec   Handler
}

// NewFamily joins shape lists under one mnemonic and executor.
func NewFamily(name string, exec Handler, shapes ...[]*Pattern) *Family {
	f := &Family{Name: name, exec: exec}
	for _, s := range shapes {
		f.shapes = append(f.shapes, s...)
	}
	return f
}

// Shapes returns the family's patterns in match order.
func (f *Family) Shapes() []*Pattern {
	return f.shapes
}

var registry = buildRegistry()

// Families returns the registered families in match order.
func Families() []*Family {
	return registry
}

// segPrefixByte reports whether b is a segment-override prefix, and which segment.
func segPrefixByte(b byte) (cpu.Segment, bool) {
	if b&0xE7 != 0x26 {
		return 0, false
	}
	return cpu.Segment(b >> 3 & 3), true
}

// Decode matches the instruction at code[offset:]. A leading segment-override
// prefix is consumed as part of the instruction; string shapes also take one
// after their repeat prefix.
func Decode(code []byte, offset int) (*Instruction, error) {
	if offset < 0 || offset >= len(code) {
		return nil, fmt.Errorf("%w: offset %d outside %d bytes", ErrNoMatch, offset, len(code))
	}

	start := offset
	sego := ""
	if seg, ok := segPrefixByte(code[offset]); ok {
		sego = Bin(uint16(seg), 2)
		offset++
	}

	var last error
	for _, fam := range registry {
		for _, p := range fam.shapes {
			raw, ok := p.MatchBytes(code[offset:])
			if !ok || sego != "" && p.Binds("sego") {
				continue
			}
			if sego != "" {
				raw.Values["sego"] = sego
			}
			f, err := Resolve(raw)
			if err != nil {
				last = err
				continue
			}
			return newInstruction(fam, p, f, code[start:offset+p.Size()]), nil
		}
	}

	if last != nil {
		return nil, fmt.Errorf("%w at offset %d: %w", ErrNoMatch, start, last)
	}
	return nil, fmt.Errorf("%w at offset %d", ErrNoMatch, start)
}

var linePrefix = regexp.MustCompile(`^([A-Z]{2})\s*:\s*([A-Z].*)$`)

// Assemble encodes one line of assembly text.
func Assemble(line string) (*Instruction, error) {
	line = strings.ToUpper(strings.TrimSpace(line))
	sego := ""
	if m := linePrefix.FindStringSubmatch(line); m != nil {
		if _, ok := cpu.ParseSegment(m[1]); ok {
			sego = m[1]
			line = m[2]
		}
	}

	var last error
	for _, fam := range registry {
		for _, p := range fam.shapes {
			raw, ok := p.MatchText(line)
			if !ok || sego != "" && p.Binds("sego") {
				continue
			}
			if sego != "" {
				raw.Values["sego"] = sego
			}
			f, err := Resolve(raw)
			if err != nil {
				last = err
				continue
			}
			code, err := p.Encode(f)
			if err != nil {
				last = err
				continue
			}
			if seg, ok := f["sego"]; ok && !p.Binds("sego") {
				code = append([]byte{0x26 | byte(seg.Arg)<<3}, code...)
			}
			return newInstruction(fam, p, f, code), nil
		}
	}

	if last != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrNoMatch, line, last)
	}
	return nil, fmt.Errorf("%w: %q", ErrNoMatch, line)
}
