// Package vm runs 8086 code: it fetches at CS:IP, decodes with the isa
// registry and executes against a cpu.CPU.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Urethramancer/i8086/cpu"
	"github.com/Urethramancer/i8086/isa"
)

// fetchWindow covers the longest instruction: prefix, opcode, ModRM,
// 16-bit displacement and 16-bit immediate.
const fetchWindow = 7

var (
	// ErrHalted is returned when stepping a machine that executed HLT.
	ErrHalted = errors.New("machine is halted")
	// ErrStepLimit is returned by Run when the step limit is reached.
	ErrStepLimit = errors.New("step limit reached")
)

// VM is a CPU with a fetch-decode-execute loop.
type VM struct {
	CPU *cpu.CPU
	log logrus.FieldLogger
	// Steps counts executed instructions since creation.
	Steps int
}

// New creates a VM with memSize bytes of memory (zero selects 1 MiB).
// A nil logger discards trace output.
func New(memSize int, log logrus.FieldLogger) *VM {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &VM{
		CPU: cpu.New(memSize),
		log: log,
	}
}

// LoadCode copies code to seg:off and points CS:IP at it.
func (v *VM) LoadCode(seg, off uint16, code []byte) {
	v.CPU.LoadCode(seg, off, code)
}

// Fetch decodes the instruction at CS:IP without executing it.
func (v *VM) Fetch() (*isa.Instruction, error) {
	cs, ip := v.CPU.Seg(cpu.CS), v.CPU.IP()
	window := make([]byte, fetchWindow)
	for i := range window {
		window[i] = v.CPU.Read8(cs, ip+uint16(i))
	}
	inst, err := isa.Decode(window, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch at %04X:%04X: %w", cs, ip, err)
	}
	return inst, nil
}

// Step executes one instruction and returns it.
func (v *VM) Step() (*isa.Instruction, error) {
	if v.CPU.Halted {
		return nil, ErrHalted
	}

	cs, ip := v.CPU.Seg(cpu.CS), v.CPU.IP()
	fields := logrus.Fields{
		"cs": fmt.Sprintf("%04X", cs),
		"ip": fmt.Sprintf("%04X", ip),
	}

	inst, err := v.Fetch()
	if err != nil {
		v.log.WithFields(fields).WithError(err).Warn("undecodable instruction")
		return nil, err
	}

	fields["bytes"] = strings.Join(inst.Hex(), " ")
	fields["asm"] = inst.Asm()
	v.log.WithFields(fields).Debug("step")

	if err := inst.Exec(v.CPU); err != nil {
		v.log.WithFields(fields).WithError(err).Warn("execution fault")
		return inst, fmt.Errorf("%04X:%04X %s: %w", cs, ip, inst.Asm(), err)
	}
	v.Steps++
	return inst, nil
}

// Run steps until HLT, a fault, the step limit or cancellation of ctx.
// A limit of zero or less means no limit. The context is only checked
// between instructions. Run returns the number of instructions executed.
func (v *VM) Run(ctx context.Context, limit int) (int, error) {
	steps := 0
	for !v.CPU.Halted {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		if limit > 0 && steps >= limit {
			return steps, ErrStepLimit
		}
		if _, err := v.Step(); err != nil {
			return steps, err
		}
		steps++
	}
	return steps, nil
}
