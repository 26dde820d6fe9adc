package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/grimdork/climate/arg"
	"github.com/sirupsen/logrus"

	"github.com/Urethramancer/i8086/assembler"
	"github.com/Urethramancer/i8086/internal/cli"
	"github.com/Urethramancer/i8086/isa"
)

func main() {
	opt := cli.New("asm86")
	opt.SetOption(arg.GroupDefault, "O", "origin", "Origin address in hex, overridden by ORG.", "0100", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "o", "output", "Write the binary here instead of printing a hex dump.", "", false, arg.VarString, nil)
	opt.SetPositional("SOURCE", "Assembly source file.", "", true, arg.VarString)
	cfg := cli.Parse(opt)

	origin, err := cli.ParseWord(opt.GetString("origin"))
	if err != nil {
		cfg.Log.Fatal(err)
	}

	name := opt.GetPosString("SOURCE")
	src, err := os.ReadFile(name)
	if err != nil {
		cfg.Log.Fatal(err)
	}

	asm := assembler.New()
	code, err := asm.Assemble(string(src), origin)
	if err != nil {
		cfg.Log.WithField("file", name).Fatal(err)
	}

	labels := asm.Labels()
	names := make([]string, 0, len(labels))
	for l := range labels {
		names = append(names, l)
	}
	sort.Strings(names)
	for _, l := range names {
		cfg.Log.WithFields(logrus.Fields{"label": l, "address": isa.Hex(labels[l], true)}).Debug("label")
	}

	out := opt.GetString("output")
	if out == "" {
		fmt.Print(dump(code, asm.Origin()))
		return
	}

	if err := os.WriteFile(out, code, 0644); err != nil {
		cfg.Log.Fatal(err)
	}
	cfg.Log.WithFields(logrus.Fields{
		"file":   out,
		"bytes":  len(code),
		"origin": isa.Hex(asm.Origin(), true),
	}).Info("assembled")
}

// dump formats code as addressed rows of 16 hex bytes.
func dump(code []byte, origin uint16) string {
	var b strings.Builder
	for i := 0; i < len(code); i += 16 {
		end := min(i+16, len(code))
		fmt.Fprintf(&b, "%04X  %s\n", origin+uint16(i), strings.Join(isa.HexBytes(code[i:end]), " "))
	}
	return b.String()
}
