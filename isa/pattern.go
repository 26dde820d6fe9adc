package isa

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldBits gives the width of fields that sit inside a byte template.
var fieldBits = map[string]int{
	"d": 1, "w": 1, "s": 1, "v": 1, "z": 1,
	"mod": 2, "seg": 2, "sego": 2,
	"reg": 3, "rm": 3, "ext": 3, "r": 3,
	"cc": 4,
}

// byteFields fill a whole byte per template occurrence.
// Repeated occurrences are little-endian: the first byte is the low one.
var byteFields = map[string]bool{
	"disp": true, "ea": true, "val": true, "val2": true, "rel": true, "port": true,
}

const (
	number = `[+-]?(?:0X)?[0-9A-F]+`
	memory = `(?:(?:BYTE|WORD)\s+PTR\s+)?(?:[A-Z]{2}\s*:\s*)?\[[^\]]*\]`
)

// textFragments are the regular expressions a text placeholder captures.
var textFragments = map[string]string{
	"reg":  `[A-Z]{2}`,
	"r":    `[A-Z]{2}`,
	"seg":  `[A-Z]{2}`,
	"sego": `[A-Z]{2}`,
	"rm":   memory + `|[A-Z]{2}`,
	"ea":   memory,
	"val":  number,
	"val2": number,
	"port": number,
	"rel":  number,
	"v":    `1|CL`,
}

type part struct {
	name  string // empty for literal bits
	bits  string
	width int
}

type token struct {
	lit  string
	name string
}

// Pattern is one instruction shape: its byte templates, its text template,
// and the field values fixed by the family that owns it.
type Pattern struct {
	bytes  [][]part
	text   []token
	source string
	re     *regexp.Regexp
	fixed  map[string]string
	widths map[string]int
}

// NewPattern compiles byte templates and a text template into a Pattern.
// Each byte template is eight bits of literal 0/1 digits and <field> references.
// It panics on a malformed template, like regexp.MustCompile.
func NewPattern(bytes []string, text string, fixed map[string]string) *Pattern {
	p := &Pattern{
		source: text,
		fixed:  make(map[string]string),
		widths: make(map[string]int),
	}
	for k, v := range fixed {
		p.fixed[k] = v
	}

	for _, b := range bytes {
		parts, err := compileByte(b)
		if err != nil {
			panic(fmt.Sprintf("isa: byte template %q: %v", b, err))
		}
		for _, pt := range parts {
			if pt.name == "" {
				continue
			}
			if byteFields[pt.name] {
				p.widths[pt.name] += 8
			} else {
				p.widths[pt.name] = pt.width
			}
		}
		p.bytes = append(p.bytes, parts)
	}

	toks, err := tokenizeText(text)
	if err != nil {
		panic(fmt.Sprintf("isa: text template %q: %v", text, err))
	}
	p.text = toks
	p.re = regexp.MustCompile(textRegexp(toks))
	return p
}

func compileByte(tmpl string) ([]part, error) {
	var parts []part
	total := 0
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '0', '1':
			j := i
			for j < len(tmpl) && (tmpl[j] == '0' || tmpl[j] == '1') {
				j++
			}
			parts = append(parts, part{bits: tmpl[i:j], width: j - i})
			total += j - i
			i = j
		case '<':
			end := strings.IndexByte(tmpl[i:], '>')
			if end < 0 {
				return nil, fmt.Errorf("unterminated field at %d", i)
			}
			name := tmpl[i+1 : i+end]
			width, ok := fieldBits[name]
			if !ok {
				if !byteFields[name] {
					return nil, fmt.Errorf("unknown field %q", name)
				}
				width = 8
			}
			parts = append(parts, part{name: name, width: width})
			total += width
			i += end + 1
		default:
			return nil, fmt.Errorf("unexpected %q", c)
		}
	}
	if total != 8 {
		return nil, fmt.Errorf("template is %d bits, not 8", total)
	}
	return parts, nil
}

func tokenizeText(tmpl string) ([]token, error) {
	var toks []token
	for len(tmpl) > 0 {
		i := strings.IndexByte(tmpl, '<')
		if i < 0 {
			toks = append(toks, token{lit: tmpl})
			break
		}
		if i > 0 {
			toks = append(toks, token{lit: tmpl[:i]})
		}
		end := strings.IndexByte(tmpl[i:], '>')
		if end < 0 {
			return nil, fmt.Errorf("unterminated field")
		}
		name := tmpl[i+1 : i+end]
		if _, ok := textFragments[name]; !ok {
			return nil, fmt.Errorf("field %q cannot appear in text", name)
		}
		toks = append(toks, token{name: name})
		tmpl = tmpl[i+end+1:]
	}
	return toks, nil
}

func isWordChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// textRegexp turns tokens into an anchored, case-insensitive expression.
// Spaces between words require whitespace; around punctuation it is optional.
func textRegexp(toks []token) string {
	var b strings.Builder
	b.WriteString(`(?i)^\s*`)
	for ti, t := range toks {
		if t.name != "" {
			fmt.Fprintf(&b, `(?P<%s>%s)`, t.name, textFragments[t.name])
			continue
		}
		s := t.lit
		for i := 0; i < len(s); i++ {
			c := s[i]
			switch {
			case c == ' ':
				j := i
				for j < len(s) && s[j] == ' ' {
					j++
				}
				prevWord := i > 0 && isWordChar(s[i-1]) || i == 0 && ti > 0
				nextWord := j < len(s) && isWordChar(s[j]) || j == len(s) && ti+1 < len(toks)
				if prevWord && nextWord {
					b.WriteString(`\s+`)
				} else {
					b.WriteString(`\s*`)
				}
				i = j - 1
			case isWordChar(c):
				b.WriteByte(c)
			default:
				b.WriteString(`\s*`)
				b.WriteString(regexp.QuoteMeta(string(c)))
			}
		}
	}
	b.WriteString(`\s*$`)
	return b.String()
}

// Size is the number of bytes the shape occupies.
func (p *Pattern) Size() int {
	return len(p.bytes)
}

// Template returns the text template the pattern was built from.
func (p *Pattern) Template() string {
	return p.source
}

// Fixed returns a copy of the field values fixed by the owning family.
func (p *Pattern) Fixed() map[string]string {
	out := make(map[string]string, len(p.fixed))
	for k, v := range p.fixed {
		out[k] = v
	}
	return out
}

// Binds reports whether the byte templates carry the named field.
func (p *Pattern) Binds(name string) bool {
	return p.widths[name] > 0
}

// Test reports whether code starts with this shape.
func (p *Pattern) Test(code []byte) bool {
	_, ok := p.MatchBytes(code)
	return ok
}

// TestText reports whether line matches the text template.
func (p *Pattern) TestText(line string) bool {
	return p.re.MatchString(line)
}

// MatchBytes captures the raw fields of code, or reports no match.
func (p *Pattern) MatchBytes(code []byte) (RawFields, bool) {
	if len(code) < len(p.bytes) {
		return RawFields{}, false
	}

	vals := make(map[string]string)
	for i, tmpl := range p.bytes {
		bits := Bin8(code[i])
		pos := 0
		for _, pt := range tmpl {
			seg := bits[pos : pos+pt.width]
			pos += pt.width
			if pt.name == "" {
				if seg != pt.bits {
					return RawFields{}, false
				}
				continue
			}
			if byteFields[pt.name] {
				vals[pt.name] = seg + vals[pt.name]
				continue
			}
			if prev, ok := vals[pt.name]; ok && prev != seg {
				return RawFields{}, false
			}
			vals[pt.name] = seg
		}
	}

	for name, bits := range p.fixed {
		if v, ok := vals[name]; ok && v != bits {
			return RawFields{}, false
		}
	}

	return RawFields{Form: FormBinary, Values: vals, Fixed: p.Fixed(), widths: p.widths}, true
}

// MatchText captures the raw fields of an assembly line, or reports no match.
func (p *Pattern) MatchText(line string) (RawFields, bool) {
	line = strings.ToUpper(line)
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return RawFields{}, false
	}

	vals := make(map[string]string)
	for i, name := range p.re.SubexpNames() {
		if name != "" {
			vals[name] = strings.TrimSpace(m[i])
		}
	}
	return RawFields{Form: FormAssembly, Values: vals, Fixed: p.Fixed(), widths: p.widths}, true
}

// Encode renders resolved fields into bytes. It fails when the fields do not
// fit this shape: a fixed value differs, a field is missing or has the wrong
// width, or a trailing field would be left unused.
func (p *Pattern) Encode(f Fields) ([]byte, error) {
	for name, bits := range p.fixed {
		fld, ok := f[name]
		if !ok || fld.Bin != bits {
			return nil, fmt.Errorf("field %s does not fit this shape", name)
		}
	}
	for name := range f {
		if byteFields[name] && p.widths[name] == 0 {
			return nil, fmt.Errorf("field %s has no place in this shape", name)
		}
	}
	for name, width := range p.widths {
		fld, ok := f[name]
		if !ok {
			return nil, fmt.Errorf("missing field %s", name)
		}
		if len(fld.Bin) != width {
			return nil, fmt.Errorf("field %s is %d bits, shape needs %d", name, len(fld.Bin), width)
		}
	}

	out := make([]byte, len(p.bytes))
	used := make(map[string]int)
	for i, tmpl := range p.bytes {
		var s strings.Builder
		for _, pt := range tmpl {
			if pt.name == "" {
				s.WriteString(pt.bits)
				continue
			}
			bin := f[pt.name].Bin
			if byteFields[pt.name] {
				n := used[pt.name]
				s.WriteString(bin[len(bin)-n-8 : len(bin)-n])
				used[pt.name] = n + 8
				continue
			}
			s.WriteString(bin)
		}
		v, err := ParseBin(s.String())
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Format renders resolved fields through the text template.
func (p *Pattern) Format(f Fields) string {
	var b strings.Builder
	for _, t := range p.text {
		if t.name == "" {
			b.WriteString(t.lit)
			continue
		}
		b.WriteString(f[t.name].Asm)
	}
	return b.String()
}

// hasTextField reports whether the text template shows the named field.
func (p *Pattern) hasTextField(name string) bool {
	for _, t := range p.text {
		if t.name == name {
			return true
		}
	}
	return false
}
