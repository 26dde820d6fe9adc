package assembler_test

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/Urethramancer/i8086/assembler"
	"github.com/Urethramancer/i8086/isa"
)

// Assembles source and checks against an expected byte sequence (in hex).
// Automatically validates output length and content.
func assembleAndMatchHex(t *testing.T, name, src, expectedHex string) *assembler.Assembler {
	t.Helper()

	expectedHex = strings.ToLower(strings.Join(strings.Fields(expectedHex), ""))
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		t.Fatalf("[%s] invalid expected hex string: %v", name, err)
	}

	asm := assembler.New()
	code, err := asm.Assemble(src, 0x0100)
	if err != nil {
		t.Fatalf("[%s] failed to assemble:\n%s\nerror: %v", name, src, err)
	}
	if len(code) != len(expected) {
		t.Fatalf("[%s] expected %d bytes, got %d\nexpected: % X\ngot:      % X",
			name, len(expected), len(code), expected, code)
	}
	for i := range code {
		if code[i] != expected[i] {
			t.Errorf("[%s] mismatch at byte %d\nexpected: % X\ngot:      % X",
				name, i, expected, code)
			break
		}
	}
	return asm
}

func TestBasicEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"ADD_reg_reg", "add ax, bx", "01 D8"},
		{"MOV_imm", "MOV CX, 0003", "B9 03 00"},
		{"MOV_mem", "MOV AX, [BX+SI+04]", "8B 40 04"},
		{"segment_override", "MOV AX, ES:[BX]", "26 8B 07"},
		{"string_prefix", "REP MOVSB", "F3 A4"},
		{"far_jump", "JMP 2000:0010", "EA 10 00 00 20"},
		{"HLT", "hlt", "F4"},
		{"two_lines", "NOP\nHLT", "90 F4"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	src := `
; a whole-line comment
	NOP ; trailing comment

	DB ';' ; not a comment inside quotes
`
	assembleAndMatchHex(t, "comments", src, "90 3B")
}

func TestLabels(t *testing.T) {
	src := `
start:	MOV CX, 0003
again:	DEC CX
	JNZ again
	JMP done
	NOP
done:	HLT
`
	asm := assembleAndMatchHex(t, "labels", src, "B9 03 00 49 75 FD EB 01 90 F4")

	labels := asm.Labels()
	want := map[string]uint16{"start": 0x100, "again": 0x103, "done": 0x109}
	for name, addr := range want {
		if labels[name] != addr {
			t.Errorf("label %s: expected %04X, got %04X", name, addr, labels[name])
		}
	}
}

func TestForwardCall(t *testing.T) {
	src := `
	CALL sub
	HLT
sub:	RET
`
	assembleAndMatchHex(t, "call", src, "E8 01 00 F4 C3")
}

func TestLoopLabel(t *testing.T) {
	src := `
	MOV CX, 0005
top:	LOOP top
	JCXZ top
`
	assembleAndMatchHex(t, "loop", src, "B9 05 00 E2 FE E3 FC")
}

func TestNearJumpWhenShortOutOfRange(t *testing.T) {
	src := `
	JMP target
	ORG 0300
target:	HLT
`
	asm := assembler.New()
	code, err := asm.Assemble(src, 0x0100)
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 0x201 {
		t.Fatalf("expected 0x201 bytes, got %#x", len(code))
	}
	if code[0] != 0xE9 || code[1] != 0xFD || code[2] != 0x01 || code[0x200] != 0xF4 {
		t.Errorf("got % X ... % X", code[:3], code[0x200:])
	}
}

func TestConditionalOutOfRange(t *testing.T) {
	src := `
	JZ target
	ORG 0300
target:	HLT
`
	_, err := assembler.New().Assemble(src, 0x0100)
	if err == nil || !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("expected a line 2 range error, got %v", err)
	}
}

func TestDirectives(t *testing.T) {
	src := `
COUNT	EQU 10
	ORG 0200
	MOV CX, COUNT
	MOV SI, msg
	HLT
msg:	DB 'Hi', 0D, 0A
	DW 1234, msg, #10
`
	asm := assembleAndMatchHex(t, "directives", src,
		"B9 10 00 BE 07 02 F4 48 69 0D 0A 34 12 07 02 0A 00")
	if asm.Origin() != 0x200 {
		t.Errorf("origin %04X", asm.Origin())
	}
}

func TestOrgPadsForward(t *testing.T) {
	src := `
	NOP
	ORG 0104
	HLT
`
	assembleAndMatchHex(t, "org", src, "90 00 00 00 F4")
}

func TestSymbolAsDisplacement(t *testing.T) {
	src := `
OFS	EQU 4
	MOV AX, [BX+OFS]
`
	assembleAndMatchHex(t, "symbol", src, "8B 47 04")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name, src, prefix string
	}{
		{"bad_instruction", "NOP\nMOV AX", "line 2:"},
		{"duplicate_label", "x: NOP\nx: NOP", "line 2:"},
		{"hex_label", "MOV AX, BEEF\nbeef:\nHLT", "line 2:"},
		{"hex_label_digits", "ff: NOP", "line 1:"},
		{"hex_symbol", "CAFE EQU 1\nMOV AX, CAFE", "line 1:"},
		{"hex_symbol_mnemonic", "ADD EQU 2", "line 1:"},
		{"reserved_label", "ax: NOP", "line 1:"},
		{"org_backwards", "NOP\nNOP\nORG 0100", "line 3:"},
		{"db_range", "DB 100", "line 1:"},
		{"dw_string", "DW 'ab'", "line 1:"},
		{"missing_operand", "DB", "line 1:"},
	}
	for _, tc := range tests {
		_, err := assembler.New().Assemble(tc.src, 0x100)
		if err == nil || !strings.HasPrefix(err.Error(), tc.prefix) {
			t.Errorf("[%s] expected %q error, got %v", tc.name, tc.prefix, err)
		}
	}
}

func TestHexOperandBesideLabels(t *testing.T) {
	src := `
	MOV AX, BEEF
	JMP NEAR beef_
beef_:	HLT
`
	assembleAndMatchHex(t, "hex_operand", src, "B8 EF BE E9 00 00 F4")
}

func TestJumpNearPinsThreeBytes(t *testing.T) {
	src := `
	JMP NEAR skip
	NOP
skip:	JMP skip
`
	assembleAndMatchHex(t, "jmp_near", src, "E9 01 00 90 EB FE")
	if _, err := assembler.New().Assemble("JMP NEAR", 0x100); err == nil {
		t.Error("JMP NEAR without a target assembled")
	}
}

func TestErrorsWrapCodec(t *testing.T) {
	_, err := assembler.New().Assemble("ADD AX, BL", 0)
	if !errors.Is(err, isa.ErrNoMatch) || !errors.Is(err, isa.ErrUndefinedField) {
		t.Errorf("got %v", err)
	}
}
