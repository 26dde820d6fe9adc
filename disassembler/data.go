package disassembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/i8086/isa"
)

// bytesPerLine bounds a hex DB line.
const bytesPerLine = 8

// isPrintableASCII checks if a byte is a standard printable ASCII character.
// Quotes are left out so a string never needs escaping.
func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7E && b != '\'' && b != '"'
}

// dataLines renders bytes that are not code. A printable run of four or more
// characters becomes a labelled string, NUL terminator included; everything
// else becomes hex DB lines.
func dataLines(data []byte, baseAddr uint16, stringCounter *int) []Line {
	var lines []Line
	n := len(data)
	minStrLen := 4

	for i := 0; i < n; {
		// Find the next printable run long enough to be a string.
		start := i
		for start < n {
			end := start
			for end < n && isPrintableASCII(data[end]) {
				end++
			}
			if end-start >= minStrLen {
				break
			}
			start = end + 1
		}
		if start > n {
			start = n
		}
		lines = append(lines, hexLines(data[i:start], baseAddr+uint16(i))...)
		if start == n {
			break
		}

		end := start
		for end < n && isPrintableASCII(data[end]) {
			end++
		}
		text := fmt.Sprintf("DB '%s'", data[start:end])
		if end < n && data[end] == 0x00 {
			text += ", 00"
			end++
		}
		lines = append(lines, Line{
			Address: baseAddr + uint16(start),
			Label:   fmt.Sprintf("string%d", *stringCounter),
			Bytes:   append([]byte{}, data[start:end]...),
			Text:    text,
		})
		(*stringCounter)++
		i = end
	}
	return lines
}

// hexLines formats bytes as DB directives, bytesPerLine bytes per line.
func hexLines(data []byte, baseAddr uint16) []Line {
	var lines []Line
	for i := 0; i < len(data); i += bytesPerLine {
		end := min(i+bytesPerLine, len(data))
		chunk := data[i:end]
		lines = append(lines, Line{
			Address: baseAddr + uint16(i),
			Bytes:   append([]byte{}, chunk...),
			Text:    "DB " + strings.Join(isa.HexBytes(chunk), ", "),
		})
	}
	return lines
}
