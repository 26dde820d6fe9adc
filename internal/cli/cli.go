// Package cli holds the option handling, logging and address parsing shared
// by the commands.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grimdork/climate/arg"
	"github.com/grimdork/climate/env"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// EnvPrefix prefixes environment overrides of long options, e.g. I8086_LOGLEVEL.
const EnvPrefix = "I8086"

// Config is what every command gets back from Parse.
type Config struct {
	Log    *logrus.Logger
	// Colour is true when stdout is a terminal and NO_COLOR is unset.
	Colour bool
}

// New creates an option set with help and log level options.
func New(name string) *arg.Options {
	opt := arg.New(name)
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "l", "loglevel", "Log level (trace, debug, info, warn, error).", "info", false, arg.VarString, nil)
	return opt
}

// Parse applies environment overrides, then the command line. It exits
// with help or an error message when parsing fails.
func Parse(opt *arg.Options) *Config {
	if err := opt.ParseEnvironment(EnvPrefix, ","); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
	opt.HelpOrFail()

	log, err := NewLogger(opt.GetString("loglevel"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
	return &Config{
		Log:    log,
		Colour: Colour(os.Stdout),
	}
}

// NewLogger returns a text logger on stderr at the named level.
func NewLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(lvl)
	return log, nil
}

// Colour reports whether ANSI colours should be written to f.
func Colour(f *os.File) bool {
	if env.Get("NO_COLOR", "") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ParseWord parses a hex word, with or without a "0x" or "$" prefix or an
// "h" suffix.
func ParseWord(s string) (uint16, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	t = strings.TrimPrefix(t, "$")
	t = strings.TrimSuffix(strings.TrimSuffix(t, "h"), "H")
	v, err := strconv.ParseUint(t, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid hex word %q", s)
	}
	return uint16(v), nil
}

// ParseAddress parses "seg:off" in hex. A bare offset uses defSeg.
func ParseAddress(s string, defSeg uint16) (seg, off uint16, err error) {
	segText, offText, found := strings.Cut(s, ":")
	if !found {
		off, err = ParseWord(s)
		return defSeg, off, err
	}
	if seg, err = ParseWord(segText); err != nil {
		return 0, 0, err
	}
	if off, err = ParseWord(offText); err != nil {
		return 0, 0, err
	}
	return seg, off, nil
}
