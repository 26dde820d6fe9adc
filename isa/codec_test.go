package isa_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/Urethramancer/i8086/isa"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ToLower(strings.Join(strings.Fields(s), "")))
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}

// Canonical spellings: decoding the bytes gives the text, and assembling
// the text gives the bytes back.
var canonical = []struct {
	hex, asm string
}{
	{"01 D8", "ADD AX, BX"},
	{"01 00", "ADD [BX+SI], AX"},
	{"03 47 04", "ADD AX, [BX+04]"},
	{"83 C0 02", "ADD AX, +02"},
	{"83 C0 FE", "ADD AX, -02"},
	{"81 C3 34 12", "ADD BX, 1234"},
	{"05 02 00", "ADD AX, 0002"},
	{"04 FF", "ADD AL, FF"},
	{"80 3F 01", "CMP BYTE PTR [BX], 01"},
	{"29 D8", "SUB AX, BX"},
	{"31 C0", "XOR AX, AX"},
	{"C6 47 04 2A", "MOV BYTE PTR [BX+04], 2A"},
	{"C7 06 34 12 78 56", "MOV WORD PTR [1234], 5678"},
	{"8B 1E 34 12", "MOV BX, [1234]"},
	{"A0 34 12", "MOV AL, [1234]"},
	{"A3 34 12", "MOV [1234], AX"},
	{"B8 2A 00", "MOV AX, 002A"},
	{"B0 2A", "MOV AL, 2A"},
	{"8E C0", "MOV ES, AX"},
	{"8C D8", "MOV AX, DS"},
	{"26 8B 07", "MOV AX, ES:[BX]"},
	{"8B 46 00", "MOV AX, [BP+00]"},
	{"8B 86 34 12", "MOV AX, [BP+1234]"},
	{"88 40 FE", "MOV [BX+SI-02], AL"},
	{"8D B1 10 00", "LEA SI, [BX+DI+0010]"},
	{"50", "PUSH AX"},
	{"07", "POP ES"},
	{"FF 37", "PUSH WORD PTR [BX]"},
	{"8F 06 34 12", "POP WORD PTR [1234]"},
	{"40", "INC AX"},
	{"FE 0F", "DEC BYTE PTR [BX]"},
	{"F7 E3", "MUL BX"},
	{"F6 F3", "DIV BL"},
	{"F7 DA", "NEG DX"},
	{"D1 E0", "SHL AX, 1"},
	{"D2 EB", "SHR BL, CL"},
	{"37", "AAA"},
	{"D5 0A", "AAD"},
	{"D4 0A", "AAM"},
	{"D4 08", "AAM 08"},
	{"E8 05 00", "CALL +0005"},
	{"EB 05", "JMP +05"},
	{"E9 FD FF", "JMP -0003"},
	{"74 FC", "JZ -04"},
	{"7F 10", "JG +10"},
	{"E2 FE", "LOOP -02"},
	{"E3 00", "JCXZ +00"},
	{"9A 78 56 34 12", "CALL 1234:5678"},
	{"FF 1F", "CALL FAR [BX]"},
	{"FF 6F 04", "JMP FAR [BX+04]"},
	{"FF D0", "CALL AX"},
	{"FF 27", "JMP WORD PTR [BX]"},
	{"2E FF 17", "CALL WORD PTR CS:[BX]"},
	{"C3", "RET"},
	{"C2 04 00", "RET 0004"},
	{"CB", "RETF"},
	{"F3 A4", "REP MOVSB"},
	{"F2 AE", "REPNE SCASB"},
	{"F3 A6", "REPE CMPSB"},
	{"AB", "STOSW"},
	{"26 A4", "ES: MOVSB"},
	{"26 F3 A4", "ES: REP MOVSB"},
	{"F3 26 A4", "REP ES: MOVSB"},
	{"F2 2E A7", "REPNE CS: CMPSW"},
	{"EC", "IN AL, DX"},
	{"E5 60", "IN AX, 60"},
	{"E6 60", "OUT 60, AL"},
	{"EF", "OUT DX, AX"},
	{"90", "NOP"},
	{"93", "XCHG AX, BX"},
	{"87 18", "XCHG [BX+SI], BX"},
	{"F4", "HLT"},
	{"FC", "CLD"},
	{"A8 01", "TEST AL, 01"},
	{"F6 C3 01", "TEST BL, 01"},
	{"85 C3", "TEST BX, AX"},
	{"9C", "PUSHF"},
	{"9F", "LAHF"},
	{"98", "CBW"},
	{"27", "DAA"},
}

func TestDecodeCanonical(t *testing.T) {
	for _, tc := range canonical {
		code := mustHex(t, tc.hex)
		ins, err := isa.Decode(code, 0)
		if err != nil {
			t.Errorf("[%s] decode failed: %v", tc.hex, err)
			continue
		}
		if ins.Asm() != tc.asm {
			t.Errorf("[%s] expected %q, got %q\n%s", tc.hex, tc.asm, ins.Asm(), spew.Sdump(ins.Fields()))
		}
		if ins.Size() != len(code) {
			t.Errorf("[%s] expected size %d, got %d", tc.hex, len(code), ins.Size())
		}
	}
}

func TestAssembleCanonical(t *testing.T) {
	for _, tc := range canonical {
		want := mustHex(t, tc.hex)
		ins, err := isa.Assemble(tc.asm)
		if err != nil {
			t.Errorf("[%s] assemble failed: %v", tc.asm, err)
			continue
		}
		if !bytes.Equal(ins.Bytes(), want) {
			t.Errorf("[%s] expected % X, got % X\n%s", tc.asm, want, ins.Bytes(), spew.Sdump(ins.Fields()))
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, tc := range canonical {
		code := mustHex(t, tc.hex)
		ins, err := isa.Decode(code, 0)
		if err != nil {
			t.Fatalf("[%s] decode failed: %v", tc.hex, err)
		}
		got, err := ins.Shape().Encode(ins.Fields())
		if err != nil {
			t.Fatalf("[%s] encode failed: %v", tc.hex, err)
		}
		// The prefix byte is not part of the shape.
		if !bytes.Equal(got, code[len(code)-ins.Shape().Size():]) {
			t.Errorf("[%s] re-encoded as % X", tc.hex, got)
		}
	}
}

func TestTextRoundTripSameFields(t *testing.T) {
	for _, tc := range canonical {
		ins, err := isa.Decode(mustHex(t, tc.hex), 0)
		if err != nil {
			t.Fatalf("[%s] decode failed: %v", tc.hex, err)
		}
		again, err := isa.Assemble(ins.Asm())
		if err != nil {
			t.Fatalf("[%s] reassemble failed: %v", ins.Asm(), err)
		}
		if again.Name() != ins.Name() {
			t.Errorf("[%s] family changed from %s to %s", tc.hex, ins.Name(), again.Name())
		}
		if !reflect.DeepEqual(again.Fields(), ins.Fields()) {
			t.Errorf("[%s] fields differ:\n%s\n%s", tc.hex, spew.Sdump(ins.Fields()), spew.Sdump(again.Fields()))
		}
	}
}

// Every decodable opening pair of bytes, followed by a few fixed trailers,
// must encode back to its bytes and reassemble into the same family.
func TestSweepRoundTrip(t *testing.T) {
	trailers := [][]byte{
		{0x00, 0x00, 0x00, 0x00, 0x00},
		{0x12, 0x34, 0x56, 0x78, 0x9A},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0xA4, 0x80, 0x7F, 0x01, 0xFE},
	}
	if testing.Short() {
		trailers = trailers[:1]
	}

	seen := make(map[string]bool)
	decoded := 0
	for first := 0; first < 256; first++ {
		for second := 0; second < 256; second++ {
			for _, tail := range trailers {
				code := append([]byte{byte(first), byte(second)}, tail...)
				ins, err := isa.Decode(code, 0)
				if err != nil {
					continue
				}
				decoded++
				if !bytes.Equal(ins.Bytes(), code[:ins.Size()]) {
					t.Fatalf("[% X] consumed % X", code, ins.Bytes())
				}

				body := ins.Bytes()[ins.Size()-ins.Shape().Size():]
				got, err := ins.Shape().Encode(ins.Fields())
				if err != nil || !bytes.Equal(got, body) {
					t.Fatalf("[% X] %s re-encoded as % X: %v", code, ins.Asm(), got, err)
				}

				if seen[ins.Asm()] {
					continue
				}
				seen[ins.Asm()] = true
				again, err := isa.Assemble(ins.Asm())
				if err != nil {
					t.Fatalf("[% X] %s does not reassemble: %v", code, ins.Asm(), err)
				}
				if again.Name() != ins.Name() {
					t.Fatalf("[% X] %s reassembled as %s", code, ins.Asm(), again.Name())
				}
			}
		}
	}
	if decoded == 0 {
		t.Fatal("nothing decoded")
	}
}

func TestRegisterDirectNormalisesToD0(t *testing.T) {
	// 03 D8 is ADD BX, AX with d=1; assembling prefers the d=0 encoding.
	ins, err := isa.Decode([]byte{0x03, 0xD8}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ins.Asm() != "ADD BX, AX" {
		t.Fatalf("got %q", ins.Asm())
	}
	again, err := isa.Assemble(ins.Asm())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again.Bytes(), []byte{0x01, 0xC3}) {
		t.Errorf("got % X", again.Bytes())
	}
}

func TestAssembleAddAXBX(t *testing.T) {
	ins, err := isa.Assemble("ADD AX, BX")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(ins.Binary(), " ")
	if got != "00000001 11011000" {
		t.Errorf("got %s", got)
	}
	if !reflect.DeepEqual(ins.Decimal(), []int{1, 216}) {
		t.Errorf("decimal %v", ins.Decimal())
	}
	if !reflect.DeepEqual(ins.Hex(), []string{"01", "D8"}) {
		t.Errorf("hex %v", ins.Hex())
	}
}

func TestAssembleWhitespaceAndCase(t *testing.T) {
	tests := []struct {
		src, hex string
	}{
		{"  add   ax ,bx ", "01 D8"},
		{"mov byte ptr [ bx + 4 ], 2a", "C6 47 04 2A"},
		{"Mov Ax, Es:[Bx]", "26 8B 07"},
		{"je -04", "74 FC"},
		{"jnc +02", "73 02"},
		{"loope -02", "E1 FE"},
		{"mov ax, [bp]", "8B 46 00"},
		{"mov ax, 0x2a", "B8 2A 00"},
		{"call far [bx]", "FF 1F"},
		{"aad 0a", "D5 0A"},
		{"xchg bx, ax", "93"},
		{"test ax, bx", "85 D8"},
		{"es: movsb", "26 A4"},
	}
	for _, tc := range tests {
		ins, err := isa.Assemble(tc.src)
		if err != nil {
			t.Errorf("[%s] failed: %v", tc.src, err)
			continue
		}
		want := mustHex(t, tc.hex)
		if !bytes.Equal(ins.Bytes(), want) {
			t.Errorf("[%s] expected % X, got % X", tc.src, want, ins.Bytes())
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []string{
		"ADD AL, BX",
		"FOO AX",
		"MOV AX, [BX+BP]",
		"MOV AL, 1234",
		"JZ +0004",
		"ADD AX, +80",
		"MOV AX, [SI-DI]",
	}
	for _, src := range tests {
		_, err := isa.Assemble(src)
		if !errors.Is(err, isa.ErrNoMatch) {
			t.Errorf("[%s] expected ErrNoMatch, got %v", src, err)
		}
	}
}

func TestMixedWidthIsUndefinedField(t *testing.T) {
	_, err := isa.Assemble("ADD AL, BX")
	if !errors.Is(err, isa.ErrUndefinedField) {
		t.Errorf("expected ErrUndefinedField, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []string{
		"82 C0 01",
		"FF FF",
		"F6 C8",
		"D0 F0",
	}
	for _, h := range tests {
		_, err := isa.Decode(mustHex(t, h), 0)
		if !errors.Is(err, isa.ErrNoMatch) {
			t.Errorf("[%s] expected ErrNoMatch, got %v", h, err)
		}
	}

	if _, err := isa.Decode([]byte{0x90}, 1); !errors.Is(err, isa.ErrNoMatch) {
		t.Errorf("offset past end: %v", err)
	}
}

func TestTruncatedDirectAddress(t *testing.T) {
	// mod=00 rm=110 without its address bytes must not fall back to [BP].
	_, err := isa.Decode([]byte{0x8B, 0x1E, 0x34}, 0)
	if !errors.Is(err, isa.ErrNoMatch) || !errors.Is(err, isa.ErrUndefinedField) {
		t.Errorf("expected ErrNoMatch wrapping ErrUndefinedField, got %v", err)
	}
}

func TestDecodeAtOffset(t *testing.T) {
	code := mustHex(t, "90 E8 05 00 C3")
	off := 0
	var got []string
	for off < len(code) {
		ins, err := isa.Decode(code, off)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ins.Asm())
		off += ins.Size()
	}
	want := []string{"NOP", "CALL +0005", "RET"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	for _, tc := range canonical {
		code := mustHex(t, tc.hex)
		ins, err := isa.Decode(code, 0)
		if err != nil {
			t.Fatal(err)
		}
		shape := ins.Shape()
		body := code[len(code)-shape.Size():]
		raw, ok := shape.MatchBytes(body)
		if !ok {
			t.Fatalf("[%s] shape no longer matches", tc.hex)
		}
		a, errA := isa.Resolve(raw)
		b, errB := isa.Resolve(raw)
		if errA != nil || errB != nil {
			t.Fatalf("[%s] resolve: %v %v", tc.hex, errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("[%s] resolution not idempotent", tc.hex)
		}
	}
}

func TestWidthConsistency(t *testing.T) {
	for _, fam := range isa.Families() {
		for _, p := range fam.Shapes() {
			if p.Size() < 1 || p.Size() > 6 {
				t.Errorf("%s: shape %q has %d bytes", fam.Name, p.Template(), p.Size())
			}
		}
	}

	tests := []struct {
		hex  string
		size int
	}{
		{"00 00", 2},
		{"00 40 7F", 3},
		{"00 80 34 12", 4},
		{"00 06 34 12", 4},
		{"80 06 34 12 01", 5},
		{"81 06 34 12 78 56", 6},
		{"83 06 34 12 01", 5},
		{"81 86 34 12 78 56", 6},
	}
	for _, tc := range tests {
		code := append(mustHex(t, tc.hex), 0, 0, 0, 0)
		ins, err := isa.Decode(code, 0)
		if err != nil {
			t.Fatalf("[%s] %v", tc.hex, err)
		}
		if ins.Size() != tc.size {
			t.Errorf("[%s] expected %d bytes, got %d (%s)", tc.hex, tc.size, ins.Size(), ins.Asm())
		}
	}
}

func TestDirectAddressField(t *testing.T) {
	ins, err := isa.Decode([]byte{0x8B, 0x1E, 0x34, 0x12}, 0)
	if err != nil {
		t.Fatal(err)
	}
	f := ins.Fields()
	if !f.Has("ea") || f.Has("disp") || f.Arg("ea") != 0x1234 {
		t.Errorf("expected ea=1234 and no disp:\n%s", spew.Sdump(f))
	}
	if f["rm"].Asm != "[1234]" {
		t.Errorf("rm rendered as %q", f["rm"].Asm)
	}
}
