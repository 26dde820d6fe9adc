package isa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Urethramancer/i8086/cpu"
)

// Field is a resolved field: its assembly spelling, its binary spelling and its value.
type Field struct {
	Asm string
	Bin string
	Arg int
}

// Fields maps field names to resolved fields.
type Fields map[string]Field

// Has reports whether the field is present.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Arg returns the numeric value of a field, or 0 when it is absent.
func (f Fields) Arg(name string) int {
	return f[name].Arg
}

// On reports whether a one-bit field is present and set.
func (f Fields) On(name string) bool {
	fld, ok := f[name]
	return ok && fld.Arg == 1
}

// Wide reports whether the instruction works on words.
func (f Fields) Wide() bool {
	return f.On("w")
}

// Form tells whether raw fields were captured from bytes or from text.
type Form uint8

const (
	// FormBinary values are binary digit strings.
	FormBinary Form = iota
	// FormAssembly values are assembly spellings.
	FormAssembly
)

// RawFields is what a pattern captured, before resolution.
type RawFields struct {
	Form   Form
	Values map[string]string
	// Fixed holds the binary values the owning family injects.
	Fixed  map[string]string
	widths map[string]int
}

// resolveOrder fixes the order fields are resolved in; later fields read earlier ones.
var resolveOrder = []string{
	"sego", "d", "w", "s", "v", "z", "ptr", "mod", "ext", "cc",
	"seg", "reg", "r", "disp", "ea", "rm", "val", "val2", "rel", "port",
}

var knownFields = func() map[string]bool {
	m := make(map[string]bool, len(resolveOrder))
	for _, n := range resolveOrder {
		m[n] = true
	}
	return m
}()

// Resolve turns raw fields into typed fields. An out-of-domain value is
// reported as ErrUndefinedField.
func Resolve(raw RawFields) (Fields, error) {
	bin := make(map[string]string, len(raw.Fixed)+len(raw.Values))
	for k, v := range raw.Fixed {
		bin[k] = v
	}

	if raw.Form == FormAssembly {
		if err := assemblyToBinary(raw, bin); err != nil {
			return nil, err
		}
	} else {
		for k, v := range raw.Values {
			if prev, ok := bin[k]; ok && prev != v {
				return nil, undefined(k, v)
			}
			bin[k] = v
		}
	}

	return resolveBinary(bin)
}

func resolveBinary(bin map[string]string) (Fields, error) {
	for name, bits := range bin {
		if !knownFields[name] {
			return nil, undefined(name, bits)
		}
	}

	f := make(Fields, len(bin))
	for _, name := range resolveOrder {
		bits, ok := bin[name]
		if !ok {
			continue
		}
		n, err := ParseBin(bits)
		if err != nil {
			return nil, undefined(name, bits)
		}
		fld := Field{Bin: bits, Arg: int(n)}

		switch name {
		case "sego", "seg":
			if len(bits) != 2 {
				return nil, undefined(name, bits)
			}
			fld.Asm = cpu.Segment(n).String()

		case "d", "w", "s", "z", "ptr":
			if len(bits) != 1 {
				return nil, undefined(name, bits)
			}

		case "v":
			if len(bits) != 1 {
				return nil, undefined(name, bits)
			}
			fld.Asm = "1"
			if n == 1 {
				fld.Asm = "CL"
			}

		case "mod":
			if len(bits) != 2 {
				return nil, undefined(name, bits)
			}
			fld.Asm = Mod(n).String()

		case "ext":
			if len(bits) != 3 {
				return nil, undefined(name, bits)
			}

		case "cc":
			if len(bits) != 4 {
				return nil, undefined(name, bits)
			}
			fld.Asm = Cond(n).String()

		case "reg", "r":
			if len(bits) != 3 || !f.Has("w") {
				return nil, undefined(name, bits)
			}
			fld.Asm = cpu.RegW(uint8(n), f.Wide()).String()

		case "disp":
			mod, ok := f["mod"]
			if !ok || Mod(mod.Arg).DispBytes()*8 != len(bits) {
				return nil, undefined(name, bits)
			}
			if len(bits) == 8 {
				fld.Arg = int(int8(n))
				fld.Asm = SignedHex(fld.Arg, 2)
			} else {
				fld.Asm = "+" + Hex(n, true)
			}

		case "ea":
			if len(bits) != 16 {
				return nil, undefined(name, bits)
			}
			if f.Has("mod") && (f.Arg("mod") != int(ModNoDisp) || bin["rm"] != Bin(directRM, 3)) {
				return nil, undefined(name, bits)
			}
			fld.Asm = memPrefix(f) + "[" + Hex(n, true) + "]"

		case "rm":
			asm, err := resolveRM(f, uint8(n), bits)
			if err != nil {
				return nil, err
			}
			fld.Asm = asm

		case "val", "val2":
			switch len(bits) {
			case 8:
				if name == "val" && f.On("s") && f.Wide() {
					fld.Arg = int(SignExtend8(byte(n)))
					fld.Asm = SignedHex(int(int8(n)), 2)
				} else {
					fld.Asm = Hex(n, false)
				}
			case 16:
				fld.Asm = Hex(n, true)
			default:
				return nil, undefined(name, bits)
			}

		case "rel":
			switch len(bits) {
			case 8:
				fld.Arg = int(int8(n))
				fld.Asm = SignedHex(fld.Arg, 2)
			case 16:
				fld.Arg = int(int16(n))
				fld.Asm = SignedHex(fld.Arg, 4)
			default:
				return nil, undefined(name, bits)
			}

		case "port":
			if len(bits) != 8 {
				return nil, undefined(name, bits)
			}
			fld.Asm = Hex(n, false)
		}

		f[name] = fld
	}

	return f, nil
}

// resolveRM renders rm once mod, w, disp and ea are known.
func resolveRM(f Fields, code uint8, bits string) (string, error) {
	mod, ok := f["mod"]
	if len(bits) != 3 || !ok || !f.Has("w") {
		return "", undefined("rm", bits)
	}

	if Mod(mod.Arg) == ModRegister {
		if f.Has("disp") || f.Has("ea") {
			return "", undefined("rm", bits)
		}
		return cpu.RegW(code, f.Wide()).String(), nil
	}

	if Mod(mod.Arg) == ModNoDisp && code == directRM {
		ea, ok := f["ea"]
		if !ok {
			return "", undefined("ea", "")
		}
		return ea.Asm, nil
	}

	if f.Has("ea") {
		return "", undefined("ea", f["ea"].Bin)
	}
	disp := ""
	if Mod(mod.Arg).DispBytes() > 0 {
		d, ok := f["disp"]
		if !ok {
			return "", undefined("disp", "")
		}
		disp = d.Asm
	}
	return memPrefix(f) + "[" + Base(code).String() + disp + "]", nil
}

// memPrefix renders the size and segment-override parts of a memory operand.
func memPrefix(f Fields) string {
	s := ""
	if f.On("ptr") {
		if f.Wide() {
			s = "WORD PTR "
		} else {
			s = "BYTE PTR "
		}
	}
	if seg, ok := f["sego"]; ok {
		s += seg.Asm + ":"
	}
	return s
}

// memRef is a parsed register or memory operand.
type memRef struct {
	isReg  bool
	reg    cpu.Register
	ptr    int
	hasSeg bool
	seg    cpu.Segment
	direct bool
	addr   uint16
	base   Base
	disp   int
	bits   int
}

var (
	ptrPrefix = regexp.MustCompile(`^(BYTE|WORD)\s+PTR\s+`)
	segPrefix = regexp.MustCompile(`^([A-Z]{2})\s*:\s*`)
)

func parseOperand(s string) (memRef, error) {
	var m memRef
	s = strings.ToUpper(strings.TrimSpace(s))
	if r, ok := cpu.ParseRegister(s); ok {
		m.isReg = true
		m.reg = r
		return m, nil
	}

	if p := ptrPrefix.FindStringSubmatch(s); p != nil {
		m.ptr = 8
		if p[1] == "WORD" {
			m.ptr = 16
		}
		s = s[len(p[0]):]
	}
	if p := segPrefix.FindStringSubmatch(s); p != nil {
		seg, ok := cpu.ParseSegment(p[1])
		if !ok {
			return m, undefined("sego", p[1])
		}
		m.hasSeg = true
		m.seg = seg
		s = s[len(p[0]):]
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return m, undefined("rm", s)
	}

	inner := strings.Join(strings.Fields(s[1:len(s)-1]), "")
	var regs []cpu.Register
	digits := 0
	for len(inner) > 0 {
		sign := "+"
		if inner[0] == '+' || inner[0] == '-' {
			sign = inner[:1]
			inner = inner[1:]
		}
		end := strings.IndexAny(inner, "+-")
		if end < 0 {
			end = len(inner)
		}
		term := inner[:end]
		inner = inner[end:]

		if r, ok := cpu.ParseRegister(term); ok {
			if sign == "-" || !r.Wide() {
				return m, undefined("rm", s)
			}
			regs = append(regs, r)
			continue
		}
		if digits > 0 {
			return m, undefined("disp", term)
		}
		v, n, _, err := parseSigned(sign + term)
		if err != nil {
			return m, undefined("disp", term)
		}
		m.disp = v
		digits = n
	}

	if len(regs) == 0 {
		if digits == 0 || m.disp < 0 || m.disp > 0xFFFF {
			return m, undefined("ea", s)
		}
		m.direct = true
		m.addr = uint16(m.disp)
		return m, nil
	}

	base, ok := baseFor(regs)
	if !ok {
		return m, undefined("rm", s)
	}
	m.base = base
	switch {
	case digits == 0 && base == BaseBP:
		m.bits = 8
	case digits == 0:
	case digits <= 2 && m.disp >= -0x80 && m.disp <= 0x7F:
		m.bits = 8
	case m.disp >= -0x8000 && m.disp <= 0xFFFF:
		m.bits = 16
	default:
		return m, undefined("disp", s)
	}
	return m, nil
}

// assemblyToBinary converts captured assembly spellings into binary values in bin.
func assemblyToBinary(raw RawFields, bin map[string]string) error {
	put := func(name, bits string) error {
		if prev, ok := bin[name]; ok && prev != bits {
			return undefined(name, bits)
		}
		bin[name] = bits
		return nil
	}

	var wides []bool
	vals := raw.Values

	if t, ok := vals["sego"]; ok {
		seg, ok := cpu.ParseSegment(t)
		if !ok {
			return undefined("sego", t)
		}
		if err := put("sego", Bin(uint16(seg), 2)); err != nil {
			return err
		}
	}

	for _, name := range []string{"reg", "r"} {
		t, ok := vals[name]
		if !ok {
			continue
		}
		r, ok := cpu.ParseRegister(t)
		if !ok {
			return undefined(name, t)
		}
		if err := put(name, Bin(uint16(r.Code()), 3)); err != nil {
			return err
		}
		wides = append(wides, r.Wide())
	}

	if t, ok := vals["seg"]; ok {
		seg, ok := cpu.ParseSegment(t)
		if !ok {
			return undefined("seg", t)
		}
		if err := put("seg", Bin(uint16(seg), 2)); err != nil {
			return err
		}
	}

	if t, ok := vals["v"]; ok {
		bit := "0"
		if t == "CL" {
			bit = "1"
		}
		if err := put("v", bit); err != nil {
			return err
		}
	}

	for _, name := range []string{"rm", "ea"} {
		t, ok := vals[name]
		if !ok {
			continue
		}
		m, err := parseOperand(t)
		if err != nil {
			return err
		}
		w, err := putOperand(name, m, put)
		if err != nil {
			return err
		}
		wides = append(wides, w...)
	}

	if len(wides) > 0 {
		for _, w := range wides[1:] {
			if w != wides[0] {
				return undefined("w", "mixed widths")
			}
		}
		bit := "0"
		if wides[0] {
			bit = "1"
		}
		if err := put("w", bit); err != nil {
			return err
		}
	}

	for _, name := range []string{"val", "val2", "port", "rel"} {
		t, ok := vals[name]
		if !ok {
			continue
		}
		bits, err := immediateBits(name, t, raw.widths[name], bin)
		if err != nil {
			return err
		}
		if err := put(name, bits); err != nil {
			return err
		}
	}

	return nil
}

// putOperand stores a parsed operand as mod/rm/disp/ea/sego and returns its width hints.
func putOperand(name string, m memRef, put func(string, string) error) ([]bool, error) {
	var wides []bool
	if m.isReg {
		if name == "ea" {
			return nil, undefined(name, m.reg.String())
		}
		if err := put("mod", "11"); err != nil {
			return nil, err
		}
		return []bool{m.reg.Wide()}, put("rm", Bin(uint16(m.reg.Code()), 3))
	}

	if m.ptr != 0 {
		wides = append(wides, m.ptr == 16)
	}
	if m.hasSeg {
		if err := put("sego", Bin(uint16(m.seg), 2)); err != nil {
			return nil, err
		}
	}

	if m.direct {
		if name == "rm" {
			if err := put("mod", "00"); err != nil {
				return nil, err
			}
			if err := put("rm", Bin(directRM, 3)); err != nil {
				return nil, err
			}
		}
		return wides, put("ea", Bin(m.addr, 16))
	}
	if name == "ea" {
		return nil, undefined(name, m.base.String())
	}

	mod := "00"
	switch m.bits {
	case 8:
		mod = "01"
		if err := put("disp", Bin(uint16(m.disp)&0xFF, 8)); err != nil {
			return nil, err
		}
	case 16:
		mod = "10"
		if err := put("disp", Bin(uint16(m.disp), 16)); err != nil {
			return nil, err
		}
	}
	if err := put("mod", mod); err != nil {
		return nil, err
	}
	return wides, put("rm", Bin(uint16(m.base), 3))
}

// immediateBits sizes an immediate, relative or port literal for a shape.
// An explicit sign marks a sign-extended byte immediate; unsigned text
// fills the field at full width.
func immediateBits(name, text string, width int, bin map[string]string) (string, error) {
	v, digits, signed, err := parseSigned(text)
	if err != nil || width == 0 {
		return "", undefined(name, text)
	}

	switch name {
	case "rel":
		if width == 8 && digits > 2 {
			return "", undefined(name, text)
		}
		lo, hi := -(1 << (width - 1)), (1<<(width-1))-1
		if !signed {
			lo, hi = 0, (1<<width)-1
		}
		if v < lo || v > hi {
			return "", undefined(name, text)
		}
		return Bin(uint16(v), width), nil

	case "val":
		extended := bin["s"] == "1" && bin["w"] == "1" && width == 8
		if signed != extended {
			return "", undefined(name, text)
		}
		if extended {
			if v < -0x80 || v > 0x7F {
				return "", undefined(name, text)
			}
			return Bin(uint16(v)&0xFF, 8), nil
		}
	}

	if signed || v > (1<<width)-1 {
		return "", undefined(name, fmt.Sprintf("%s (%d bits)", text, width))
	}
	return Bin(uint16(v), width), nil
}
