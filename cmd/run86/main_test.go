package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Urethramancer/i8086/vm"
)

func TestLoadAssemblesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.asm")
	if err := os.WriteFile(src, []byte("start: JMP start\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, err := load(src, 0x100)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(code, []byte{0xEB, 0xFE}) {
		t.Errorf("expected EB FE, got % X", code)
	}

	bin := filepath.Join(dir, "prog.bin")
	if err := os.WriteFile(bin, []byte{0xF4}, 0644); err != nil {
		t.Fatal(err)
	}
	code, err = load(bin, 0x100)
	if err != nil || !bytes.Equal(code, []byte{0xF4}) {
		t.Errorf("binary load gave % X, %v", code, err)
	}
}

func TestScriptFile(t *testing.T) {
	dir := t.TempDir()
	check := filepath.Join(dir, "check.lua")
	if err := os.WriteFile(check, []byte(`assert(reg("AX") == 0x42)`), 0644); err != nil {
		t.Fatal(err)
	}

	v := vm.New(0x10000, nil)
	if err := script(v, ""); err != nil {
		t.Errorf("empty script name: %v", err)
	}
	if err := script(v, check); err == nil {
		t.Error("failed check passed")
	}
	if err := v.Script(`setreg("AX", 0x42)`); err != nil {
		t.Fatal(err)
	}
	if err := script(v, check); err != nil {
		t.Error(err)
	}
}
