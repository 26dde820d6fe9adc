package vm

import (
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/Urethramancer/i8086/cpu"
)

// Script runs Lua source against the machine. Each call gets a fresh Lua
// state with these globals:
//
//	reg(name), setreg(name, v)     general registers and byte halves
//	seg(name), setseg(name, v)     segment registers
//	flag(name), setflag(name, b)   status flags by name (CF, ZF, ...)
//	peek(seg, off), poke(seg, off, v)
//	peekw(seg, off), pokew(seg, off, v)
//	ip(), setip(v)
//	step()                         executes one instruction
//	halted()
//
// Errors raised in the script, including error() and failed assert(),
// are returned.
func (v *VM) Script(src string) error {
	L := lua.NewState()
	defer L.Close()

	for name, fn := range v.scriptGlobals() {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L.DoString(src)
}

func (v *VM) scriptGlobals() map[string]lua.LGFunction {
	c := v.CPU
	word := func(L *lua.LState, n int) uint16 {
		return uint16(L.CheckInt(n))
	}
	register := func(L *lua.LState) cpu.Register {
		r, ok := cpu.ParseRegister(L.CheckString(1))
		if !ok {
			L.ArgError(1, "unknown register")
		}
		return r
	}
	segment := func(L *lua.LState) cpu.Segment {
		s, ok := cpu.ParseSegment(L.CheckString(1))
		if !ok {
			L.ArgError(1, "unknown segment register")
		}
		return s
	}
	flag := func(L *lua.LState) cpu.Flag {
		f, ok := cpu.ParseFlag(L.CheckString(1))
		if !ok {
			L.ArgError(1, "unknown flag")
		}
		return f
	}

	return map[string]lua.LGFunction{
		"reg": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Reg(register(L))))
			return 1
		},
		"setreg": func(L *lua.LState) int {
			c.SetReg(register(L), word(L, 2))
			return 0
		},
		"seg": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Seg(segment(L))))
			return 1
		},
		"setseg": func(L *lua.LState) int {
			c.SetSeg(segment(L), word(L, 2))
			return 0
		},
		"flag": func(L *lua.LState) int {
			L.Push(lua.LBool(c.Flag(flag(L))))
			return 1
		},
		"setflag": func(L *lua.LState) int {
			c.SetFlag(flag(L), L.CheckBool(2))
			return 0
		},
		"peek": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Read8(word(L, 1), word(L, 2))))
			return 1
		},
		"poke": func(L *lua.LState) int {
			c.Write8(word(L, 1), word(L, 2), byte(L.CheckInt(3)))
			return 0
		},
		"peekw": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Read16(word(L, 1), word(L, 2))))
			return 1
		},
		"pokew": func(L *lua.LState) int {
			c.Write16(word(L, 1), word(L, 2), word(L, 3))
			return 0
		},
		"ip": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.IP()))
			return 1
		},
		"setip": func(L *lua.LState) int {
			c.SetIP(word(L, 1))
			return 0
		},
		"step": func(L *lua.LState) int {
			inst, err := v.Step()
			if err != nil && !errors.Is(err, ErrHalted) {
				L.RaiseError("%v", err)
			}
			if inst == nil {
				L.Push(lua.LNil)
			} else {
				L.Push(lua.LString(inst.Asm()))
			}
			return 1
		},
		"halted": func(L *lua.LState) int {
			L.Push(lua.LBool(c.Halted))
			return 1
		},
	}
}
