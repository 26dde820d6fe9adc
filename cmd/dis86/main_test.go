package main

import (
	"strings"
	"testing"

	"github.com/Urethramancer/i8086/disassembler"
)

var code = []byte{0xB9, 0x03, 0x00, 0x49, 0x75, 0xFD, 0xF4}

func TestRenderPlainMatchesDisassemble(t *testing.T) {
	opt := disassembler.Options{Origin: 0x100}
	want, err := disassembler.Disassemble(code, opt)
	if err != nil {
		t.Fatal(err)
	}
	lines, err := disassembler.Listing(code, opt)
	if err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	render(&b, lines, opt.Origin, style{})
	if b.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, b.String())
	}
}

func TestRenderBytesAndFields(t *testing.T) {
	lines, err := disassembler.Listing(code, disassembler.Options{Origin: 0x100})
	if err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	render(&b, lines, 0x100, style{bytes: true, fields: true, colour: true})
	out := b.String()
	for _, want := range []string{
		"0100  B9 03 00",
		"0103  49",
		"loc_0103",
		"; reg ",
		"\x1b[",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
