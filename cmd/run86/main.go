package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/grimdork/climate/arg"
	"github.com/grimdork/climate/human"
	"github.com/sirupsen/logrus"

	"github.com/Urethramancer/i8086/assembler"
	"github.com/Urethramancer/i8086/internal/cli"
	"github.com/Urethramancer/i8086/vm"
)

func main() {
	opt := cli.New("run86")
	opt.SetOption(arg.GroupDefault, "a", "load", "Load address as seg:off in hex.", "0000:0100", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "n", "steps", "Stop after this many instructions (0 is unlimited).", 1000000, false, arg.VarInt, nil)
	opt.SetOption(arg.GroupDefault, "m", "memory", "Memory size in KiB.", 1024, false, arg.VarInt, nil)
	opt.SetOption(arg.GroupDefault, "s", "setup", "Lua script run before execution.", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "c", "check", "Lua script run after execution.", "", false, arg.VarString, nil)
	opt.SetFlag(arg.GroupDefault, "q", "quiet", "Do not dump registers at the end.")
	opt.SetPositional("PROGRAM", "Binary image, or .asm/.s source to assemble first.", "", true, arg.VarString)
	cfg := cli.Parse(opt)
	log := cfg.Log

	name := opt.GetPosString("PROGRAM")
	if name == "" {
		log.Fatal("no program given")
	}
	seg, off, err := cli.ParseAddress(opt.GetString("load"), 0)
	if err != nil {
		log.Fatal(err)
	}

	code, err := load(name, off)
	if err != nil {
		log.WithField("file", name).Fatal(err)
	}

	mem := opt.GetInt("memory") * 1024
	v := vm.New(mem, log)
	v.LoadCode(seg, off, code)
	log.WithFields(logrus.Fields{
		"memory": human.UInt(uint64(len(v.CPU.Mem)), false),
		"bytes":  len(code),
		"load":   opt.GetString("load"),
	}).Info("loaded")

	if err := script(v, opt.GetString("setup")); err != nil {
		log.WithField("script", "setup").Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	steps, runErr := v.Run(ctx, opt.GetInt("steps"))
	entry := log.WithField("steps", steps)
	switch {
	case runErr == nil:
		entry.Info("halted")
	case errors.Is(runErr, vm.ErrStepLimit), errors.Is(runErr, context.Canceled):
		entry.Warn(runErr)
	default:
		entry.Error(runErr)
	}

	if !opt.GetBool("quiet") {
		v.DumpRegisters(os.Stdout, cfg.Colour)
	}

	if err := script(v, opt.GetString("check")); err != nil {
		log.WithField("script", "check").Fatal(err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// load reads a binary image, assembling it first when it is source.
func load(name string, origin uint16) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".asm", ".s":
		return assembler.New().Assemble(string(data), origin)
	}
	return data, nil
}

// script runs a Lua file against v. An empty name does nothing.
func script(v *vm.VM, name string) error {
	if name == "" {
		return nil
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	return v.Script(string(src))
}
