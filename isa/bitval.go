package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// Bin renders the low n bits of v as a binary string, most significant first.
func Bin(v uint16, n int) string {
	var b strings.Builder
	for i := n - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Bin8 renders a byte as eight binary digits.
func Bin8(b byte) string {
	return Bin(uint16(b), 8)
}

// ParseBin reads a binary string of up to 16 digits.
func ParseBin(s string) (uint16, error) {
	if s == "" || len(s) > 16 {
		return 0, fmt.Errorf("invalid binary string %q", s)
	}
	v, err := strconv.ParseUint(s, 2, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid binary string %q", s)
	}
	return uint16(v), nil
}

// Hex renders a value as uppercase hex, two digits for bytes and four for words.
func Hex(v uint16, wide bool) string {
	if wide {
		return fmt.Sprintf("%04X", v)
	}
	return fmt.Sprintf("%02X", byte(v))
}

// SignedHex renders v with an explicit sign and the given number of digits.
func SignedHex(v int, digits int) string {
	sign := '+'
	if v < 0 {
		sign = '-'
		v = -v
	}
	return fmt.Sprintf("%c%0*X", sign, digits, v)
}

// ParseHex reads an unsigned hex literal, with or without a 0x prefix.
// It returns the value and the number of digits written.
func ParseHex(s string) (uint32, int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0X")
	if s == "" || len(s) > 8 {
		return 0, 0, fmt.Errorf("invalid hex literal %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hex literal %q", s)
	}
	return uint32(v), len(s), nil
}

// parseSigned reads an optionally signed hex literal.
// signed reports whether an explicit sign was present.
func parseSigned(s string) (v int, digits int, signed bool, err error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "+"):
		signed = true
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		signed = true
		neg = true
		s = s[1:]
	}
	u, digits, err := ParseHex(s)
	if err != nil {
		return 0, 0, false, err
	}
	v = int(u)
	if neg {
		v = -v
	}
	return v, digits, signed, nil
}

// SignExtend8 widens a byte to a word, replicating bit 7.
func SignExtend8(b byte) uint16 {
	return uint16(int16(int8(b)))
}

// BinaryBytes renders each byte as eight binary digits.
func BinaryBytes(code []byte) []string {
	out := make([]string, len(code))
	for i, b := range code {
		out[i] = Bin8(b)
	}
	return out
}

// HexBytes renders each byte as two uppercase hex digits.
func HexBytes(code []byte) []string {
	out := make([]string, len(code))
	for i, b := range code {
		out[i] = Hex(uint16(b), false)
	}
	return out
}

// DecimalBytes returns the bytes as plain integers.
func DecimalBytes(code []byte) []int {
	out := make([]int, len(code))
	for i, b := range code {
		out[i] = int(b)
	}
	return out
}
