package assembler

import (
	"fmt"
	"strings"
)

// data generates the bytes of a DB or DW directive. Words are little-endian.
func (asm *Assembler) data(n *Node) ([]byte, error) {
	elementSize := 1
	if n.Directive == "DW" {
		elementSize = 2
	}

	var out []byte
	for _, tok := range splitValues(n.Text) {
		if tok.Quoted {
			if elementSize != 1 {
				return nil, fmt.Errorf("string '%s' needs DB", tok.Value)
			}
			out = append(out, tok.Value...)
			continue
		}

		val, err := asm.parseConstant(tok.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid constant '%s': %v", tok.Value, err)
		}
		switch elementSize {
		case 1:
			if val < -0x80 || val > 0xFF {
				return nil, fmt.Errorf("%s does not fit in a byte", tok.Value)
			}
			out = append(out, byte(val))
		case 2:
			if val < -0x8000 || val > 0xFFFF {
				return nil, fmt.Errorf("%s does not fit in a word", tok.Value)
			}
			out = append(out, byte(val), byte(val>>8))
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s requires at least one value", n.Directive)
	}
	return out, nil
}

// dcToken is one comma-separated directive value.
type dcToken struct {
	Value  string
	Quoted bool
}

// splitValues handles mixed quoted strings and numbers.
func splitValues(s string) []dcToken {
	var tokens []dcToken
	inQuote := false
	var quoteChar rune
	var cur strings.Builder
	for _, c := range s {
		switch c {
		case '\'', '"':
			if inQuote && c == quoteChar {
				tokens = append(tokens, dcToken{Value: cur.String(), Quoted: true})
				cur.Reset()
				inQuote = false
			} else if !inQuote {
				inQuote = true
				quoteChar = c
				cur.Reset()
			} else {
				cur.WriteRune(c)
			}
		case ',':
			if !inQuote {
				if val := strings.TrimSpace(cur.String()); val != "" {
					tokens = append(tokens, dcToken{Value: val})
				}
				cur.Reset()
			} else {
				cur.WriteRune(c)
			}
		default:
			cur.WriteRune(c)
		}
	}
	if val := strings.TrimSpace(cur.String()); val != "" && !inQuote {
		tokens = append(tokens, dcToken{Value: val})
	}
	return tokens
}
