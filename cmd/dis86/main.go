package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/grimdork/climate/arg"
	"github.com/grimdork/climate/cfmt"
	"golang.org/x/sync/errgroup"

	"github.com/Urethramancer/i8086/disassembler"
	"github.com/Urethramancer/i8086/internal/cli"
	"github.com/Urethramancer/i8086/isa"
)

// style selects what goes into each rendered line.
type style struct {
	bytes  bool
	fields bool
	colour bool
}

func main() {
	opt := cli.New("dis86")
	opt.SetOption(arg.GroupDefault, "O", "origin", "Address of the first byte in hex.", "0100", false, arg.VarString, nil)
	opt.SetFlag(arg.GroupDefault, "L", "linear", "Decode everything in sequence instead of following control flow.")
	opt.SetFlag(arg.GroupDefault, "b", "bytes", "Prefix each line with its address and bytes.")
	opt.SetFlag(arg.GroupDefault, "f", "fields", "Dump the decoded fields of each instruction.")
	opt.SetOption(arg.GroupDefault, "j", "jobs", "Files disassembled at once.", 4, false, arg.VarInt, nil)
	opt.SetPositional("FILES", "Binary files to disassemble.", nil, true, arg.VarStringSlice)
	cfg := cli.Parse(opt)

	files := opt.GetPosStringSlice("FILES")
	if len(files) == 0 {
		cfg.Log.Fatal("no files given")
	}
	origin, err := cli.ParseWord(opt.GetString("origin"))
	if err != nil {
		cfg.Log.Fatal(err)
	}
	dopt := disassembler.Options{Origin: origin, Linear: opt.GetBool("linear")}
	st := style{
		bytes:  opt.GetBool("bytes"),
		fields: opt.GetBool("fields"),
		colour: cfg.Colour,
	}

	out := make([]string, len(files))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(opt.GetInt("jobs"), 1))
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			code, err := os.ReadFile(name)
			if err != nil {
				return err
			}
			lines, err := disassembler.Listing(code, dopt)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			cfg.Log.WithField("file", name).Debugf("%d lines", len(lines))

			var b strings.Builder
			if len(files) > 1 {
				fmt.Fprintf(&b, "; %s\n", name)
			}
			render(&b, lines, dopt.Origin, st)
			out[i] = b.String()
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal(err)
	}

	for i, text := range out {
		if i > 0 {
			fmt.Println()
		}
		fmt.Print(text)
	}
}

// render writes lines as assembly source. The plain style is what
// disassembler.Disassemble produces.
func render(w io.Writer, lines []disassembler.Line, origin uint16, st style) {
	label, reset := "", ""
	if st.colour {
		label, reset = cfmt.Yellow, cfmt.Reset
	}
	if origin != 0 {
		fmt.Fprintf(w, "%s    %-8s %04X\n", margin(st, nil), "ORG", origin)
	}
	for _, l := range lines {
		if l.Label != "" {
			fmt.Fprintf(w, "%s%s%s%s:\n", margin(st, nil), label, l.Label, reset)
		}
		mn, ops := l.Mnemonic()
		if ops != "" {
			fmt.Fprintf(w, "%s    %-8s %s\n", margin(st, &l), mn, ops)
		} else {
			fmt.Fprintf(w, "%s    %s\n", margin(st, &l), mn)
		}
		if st.fields && l.Inst != nil {
			fields(w, l.Inst.Fields())
		}
	}
}

// margin is the address and byte column, or nothing when disabled.
// Labels and directives get a blank column so text stays aligned.
func margin(st style, l *disassembler.Line) string {
	if !st.bytes {
		return ""
	}
	if l == nil {
		return fmt.Sprintf("%-25s", "")
	}
	hex := strings.Join(isa.HexBytes(l.Bytes), " ")
	if len(l.Bytes) > 6 {
		hex = strings.Join(isa.HexBytes(l.Bytes[:6]), " ") + "+"
	}
	return fmt.Sprintf("%04X  %-19s", l.Address, hex)
}

// fields writes the decoded fields as comments, sorted by name.
func fields(w io.Writer, f isa.Fields) {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	sort.Strings(names)
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	for _, n := range names {
		for _, line := range strings.Split(strings.TrimSpace(cfg.Sdump(f[n])), "\n") {
			fmt.Fprintf(w, "\t; %s %s\n", n, line)
		}
	}
}
