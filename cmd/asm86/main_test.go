package main

import "testing"

func TestDump(t *testing.T) {
	code := make([]byte, 18)
	code[0], code[17] = 0xB9, 0xF4
	want := "0100  B9 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00\n" +
		"0110  00 F4\n"
	if got := dump(code, 0x100); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
	if got := dump(nil, 0); got != "" {
		t.Errorf("empty dump %q", got)
	}
}
