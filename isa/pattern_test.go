package isa

import (
	"errors"
	"testing"
)

func TestPatternMatchBytes(t *testing.T) {
	p := NewPattern([]string{"000000<d><w>", "<mod><reg><rm>", "<disp>", "<disp>"}, "ADD <rm>, <reg>", map[string]string{"mod": "10"})
	raw, ok := p.MatchBytes([]byte{0x01, 0x87, 0x34, 0x12})
	if !ok {
		t.Fatal("no match")
	}
	want := map[string]string{
		"d": "0", "w": "1", "mod": "10", "reg": "000", "rm": "111",
		"disp": "0001001000110100",
	}
	for k, v := range want {
		if raw.Values[k] != v {
			t.Errorf("%s: expected %s, got %s", k, v, raw.Values[k])
		}
	}

	if _, ok := p.MatchBytes([]byte{0x01, 0x47, 0x34, 0x12}); ok {
		t.Error("fixed mod ignored")
	}
	if _, ok := p.MatchBytes([]byte{0x01, 0x87, 0x34}); ok {
		t.Error("short input matched")
	}
	if p.Size() != 4 {
		t.Errorf("size %d", p.Size())
	}
}

func TestPatternMatchText(t *testing.T) {
	p := NewPattern([]string{"000000<d><w>", "<mod><reg><rm>"}, "ADD <rm>, <reg>", nil)
	raw, ok := p.MatchText("add  [bx + si] ,  ax")
	if !ok {
		t.Fatal("no match")
	}
	if raw.Values["rm"] != "[BX + SI]" || raw.Values["reg"] != "AX" {
		t.Errorf("captured %v", raw.Values)
	}
	if p.TestText("ADDAX, BX") {
		t.Error("mnemonic and operand ran together")
	}
	if p.TestText("ADD AX, BX, CX") {
		t.Error("trailing operand accepted")
	}
}

func TestPatternEncodeRejectsMisfit(t *testing.T) {
	p := NewPattern([]string{"000000<d><w>", "<mod><reg><rm>"}, "ADD <rm>, <reg>", map[string]string{"mod": "11"})
	f := Fields{
		"d": {Bin: "0"}, "w": {Bin: "1"}, "mod": {Bin: "11"},
		"reg": {Bin: "011"}, "rm": {Bin: "000"},
	}
	code, err := p.Encode(f)
	if err != nil || len(code) != 2 || code[0] != 0x01 || code[1] != 0xD8 {
		t.Fatalf("got % X, %v", code, err)
	}

	f["disp"] = Field{Bin: "00000100"}
	if _, err := p.Encode(f); err == nil {
		t.Error("unused displacement accepted")
	}
	delete(f, "disp")
	f["mod"] = Field{Bin: "01"}
	if _, err := p.Encode(f); err == nil {
		t.Error("fixed mod ignored")
	}
}

func TestPatternPanicsOnBadTemplate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("seven-bit template accepted")
		}
	}()
	NewPattern([]string{"000000<w>"}, "X", nil)
}

func TestResolveRejectsOutOfDomain(t *testing.T) {
	tests := []map[string]string{
		{"w": "1", "mod": "00", "rm": "110"},
		{"w": "1", "mod": "11", "rm": "000", "disp": "00000001"},
		{"w": "1", "mod": "01", "rm": "000"},
		{"bogus": "1"},
	}
	for _, vals := range tests {
		_, err := Resolve(RawFields{Form: FormBinary, Values: vals})
		if !errors.Is(err, ErrUndefinedField) {
			t.Errorf("%v: expected ErrUndefinedField, got %v", vals, err)
		}
	}
}

func TestParseOperand(t *testing.T) {
	tests := []struct {
		src    string
		base   Base
		disp   int
		bits   int
		direct bool
	}{
		{"[BX+SI]", BaseBXSI, 0, 0, false},
		{"[SI+BX+04]", BaseBXSI, 4, 8, false},
		{"[BP]", BaseBP, 0, 8, false},
		{"[DI-80]", BaseDI, -0x80, 8, false},
		{"[BX+80]", BaseBX, 0x80, 16, false},
		{"[BP+0004]", BaseBP, 4, 16, false},
		{"[1234]", 0, 0x1234, 0, true},
	}
	for _, tc := range tests {
		m, err := parseOperand(tc.src)
		if err != nil {
			t.Errorf("%s: %v", tc.src, err)
			continue
		}
		if m.direct != tc.direct {
			t.Errorf("%s: direct %v", tc.src, m.direct)
			continue
		}
		if tc.direct {
			if int(m.addr) != tc.disp {
				t.Errorf("%s: address %04X", tc.src, m.addr)
			}
			continue
		}
		if m.base != tc.base || m.disp != tc.disp || m.bits != tc.bits {
			t.Errorf("%s: got base %s disp %d bits %d", tc.src, m.base, m.disp, m.bits)
		}
	}
}
