package isa

import "github.com/Urethramancer/i8086/cpu"

// shiftOps are indexed by opcode extension; 6 is unassigned on the 8086.
var shiftOps = [8]string{"ROL", "ROR", "RCL", "RCR", "SHL", "SHR", "", "SAR"}

// execShift shifts or rotates rm by 1 or CL. The count is not masked, as on the 8086.
// Rotates touch only CF and OF; shifts also set SF, ZF and PF.
func execShift(ext int) Handler {
	return func(x *Exec) error {
		op, err := x.Operand("rm")
		if err != nil {
			return err
		}
		count := 1
		if x.F.On("v") {
			count = int(x.M.Reg(cpu.CL))
		}
		if count == 0 {
			return nil
		}

		w := x.Width()
		sign, mask := uint16(w.Sign()), uint16(w.Mask())
		v := op.Get() & mask
		orig := v
		cf := x.M.Flag(cpu.CF)
		for i := 0; i < count; i++ {
			switch ext {
			case 0:
				cf = v&sign != 0
				v = v << 1 & mask
				if cf {
					v |= 1
				}
			case 1:
				cf = v&1 != 0
				v >>= 1
				if cf {
					v |= sign
				}
			case 2:
				out := v&sign != 0
				v = v << 1 & mask
				if cf {
					v |= 1
				}
				cf = out
			case 3:
				out := v&1 != 0
				v >>= 1
				if cf {
					v |= sign
				}
				cf = out
			case 4:
				cf = v&sign != 0
				v = v << 1 & mask
			case 5:
				cf = v&1 != 0
				v >>= 1
			case 7:
				cf = v&1 != 0
				v = v>>1 | v&sign
			}
		}
		op.Set(v)

		msb := v&sign != 0
		var of bool
		switch ext {
		case 0, 2, 4:
			of = msb != cf
		case 1, 3:
			of = msb != (v&(sign>>1) != 0)
		case 5:
			of = orig&sign != 0
		}
		x.M.SetFlag(cpu.CF, cf)
		x.M.SetFlag(cpu.OF, of)
		if ext >= 4 {
			Logic(w, v).Apply(x.M, cpu.SF|cpu.ZF|cpu.PF)
		}
		return nil
	}
}

func shiftFamilies() []*Family {
	var out []*Family
	for ext, name := range shiftOps {
		if name == "" {
			continue
		}
		fixed := map[string]string{"ext": Bin(uint16(ext), 3), "ptr": "1"}
		out = append(out, NewFamily(name, execShift(ext),
			modrm(modLayouts, []string{"110100<v><w>"}, "<mod><ext><rm>", nil, name+" <rm>, <v>", fixed)))
	}
	return out
}
