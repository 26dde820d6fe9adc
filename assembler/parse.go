package assembler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Urethramancer/i8086/cpu"
	"github.com/Urethramancer/i8086/isa"
)

var (
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	word       = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
	// Bare operands are hex, so a name like BEEF would shadow a number.
	hexLiteral = regexp.MustCompile(`^[0-9A-Fa-f]+$`)
)

// keywords may not be used as label or symbol names.
var keywords = map[string]bool{"BYTE": true, "WORD": true, "PTR": true, "FAR": true, "NEAR": true}

func reserved(name string) bool {
	up := strings.ToUpper(name)
	if _, ok := cpu.ParseRegister(up); ok {
		return true
	}
	if _, ok := cpu.ParseSegment(up); ok {
		return true
	}
	return keywords[up]
}

// parseLines converts raw source lines into a slice of Node objects.
func (asm *Assembler) parseLines(lines []string) ([]*Node, error) {
	var nodes []*Node
	for i, line := range lines {
		num := i + 1
		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}

		if label, rest, ok := splitLabel(line); ok {
			if reserved(label) {
				return nil, fmt.Errorf("line %d: %s is a reserved word", num, label)
			}
			if hexLiteral.MatchString(label) {
				return nil, fmt.Errorf("line %d: label %s reads as a hex number", num, label)
			}
			if asm.names[label] {
				return nil, fmt.Errorf("line %d: label %s defined twice", num, label)
			}
			asm.names[label] = true
			nodes = append(nodes, &Node{Type: NodeLabel, Line: num, Label: label})
			line = rest
		}
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) >= 3 && strings.EqualFold(parts[1], "EQU") {
			if err := asm.equ(parts[0], strings.Join(parts[2:], " ")); err != nil {
				return nil, fmt.Errorf("line %d: %w", num, err)
			}
			continue
		}

		head := strings.ToUpper(parts[0])
		switch head {
		case "ORG", "DB", "DW":
			operands := strings.TrimSpace(line[len(parts[0]):])
			if operands == "" {
				return nil, fmt.Errorf("line %d: %s requires an operand", num, head)
			}
			nodes = append(nodes, &Node{Type: NodeDirective, Line: num, Directive: head, Text: operands})
			continue
		}

		n := &Node{Type: NodeInstruction, Line: num, Text: line}
		if len(parts) == 3 && head == "JMP" && strings.EqualFold(parts[1], "NEAR") {
			// JMP NEAR pins the three-byte form.
			n.Near = true
			parts = []string{parts[0], parts[2]}
			n.Text = strings.Join(parts, " ")
		}
		if len(parts) == 2 && isTransfer(head) {
			n.Target = strings.ToLower(parts[1])
		}
		nodes = append(nodes, n)
	}

	// Only declared labels are jump targets; anything else is left to the codec.
	for _, n := range nodes {
		if n.Target != "" && !asm.names[n.Target] {
			n.Target = ""
		}
	}
	return nodes, nil
}

func (asm *Assembler) equ(name, value string) error {
	key := strings.ToLower(name)
	if !identifier.MatchString(name) || reserved(name) {
		return fmt.Errorf("invalid symbol name %s", name)
	}
	if hexLiteral.MatchString(name) {
		return fmt.Errorf("symbol %s reads as a hex number", name)
	}
	if _, ok := asm.symbols[key]; ok || asm.names[key] {
		return fmt.Errorf("symbol %s defined twice", name)
	}
	v, err := asm.parseConstant(value)
	if err != nil {
		return err
	}
	asm.symbols[key] = v
	return nil
}

// stripComment drops everything from the first ';' outside quotes.
func stripComment(line string) string {
	var quote rune
	for i, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ';':
			return line[:i]
		}
	}
	return line
}

// splitLabel separates a leading "name:" from the rest of the line.
// Segment names are not labels, so "ES: MOVSB" stays an instruction.
func splitLabel(line string) (string, string, bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	label := strings.TrimSpace(line[:i])
	if !identifier.MatchString(label) {
		return "", "", false
	}
	if _, ok := cpu.ParseSegment(strings.ToUpper(label)); ok {
		return "", "", false
	}
	return strings.ToLower(label), strings.TrimSpace(line[i+1:]), true
}

func isTransfer(mnemonic string) bool {
	return mnemonic == "CALL" || strings.HasPrefix(mnemonic, "J") || strings.HasPrefix(mnemonic, "LOOP")
}

// expand replaces symbol and label names in the operands with hex literals.
// Labels always expand to four digits so that a forward reference sizes the
// same before and after its address is known.
func (asm *Assembler) expand(text string) string {
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text
	}
	ops := word.ReplaceAllStringFunc(text[i:], func(w string) string {
		key := strings.ToLower(w)
		if v, ok := asm.symbols[key]; ok {
			return constantText(v)
		}
		if asm.names[key] {
			return isa.Hex(asm.labels[key], true)
		}
		return w
	})
	return text[:i] + ops
}

func constantText(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v <= 0xFF {
		return fmt.Sprintf("%s%02X", sign, v)
	}
	return fmt.Sprintf("%s%04X", sign, v)
}

// parseConstant converts numeric or symbolic expressions to int64.
// Bare numbers are hex, like every operand the codec reads; '#' marks decimal
// and '%' binary.
func (asm *Assembler) parseConstant(s string) (int64, error) {
	s = strings.TrimSpace(s)

	// Character literal ('A')
	if len(s) == 3 && (s[0] == '\'' || s[0] == '"') && s[2] == s[0] {
		return int64(s[1]), nil
	}

	key := strings.ToLower(s)
	if val, ok := asm.symbols[key]; ok {
		return val, nil
	}
	if asm.names[key] {
		return int64(asm.labels[key]), nil
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	base := 16
	switch {
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		s = s[2:]
	case strings.HasPrefix(s, "%"):
		s = s[1:]
		base = 2
	case strings.HasPrefix(s, "#"):
		s = s[1:]
		base = 10
	}

	val, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format: %s", s)
	}
	if neg {
		val = -val
	}
	return val, nil
}
