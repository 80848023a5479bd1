// Package maincmd implements rack's command-line entry point: argument
// parsing and the two operating modes (compile, debug-stack) on top of the
// pipeline packages under lang/. It follows the teacher's Cmd-struct-plus-
// mainer.Parser shape, simplified to rack's single-action CLI (no
// subcommands - only a compile/debug-stack mode switch).
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "rack"

var (
	shortUsage = fmt.Sprintf(`
usage: %s <path> [--debug-stack <function>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s <path>
       %[1]s <path> --debug-stack <function>
       %[1]s -h|--help
       %[1]s -v|--version

Whole-program compiler for the rack stack language, targeting x86-64 NASM
assembly on the Windows ABI.

Given only a path, %[1]s resolves includes, lexes, parses, type checks and
compiles it, writing the resulting assembly to stdout.

Given --debug-stack <function>, %[1]s instead type checks only <function>,
seeded with its declared argument types, and prints a trace of every token
in its body alongside the resulting type stack. No assembly is produced.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --debug-stack <function>  Trace one function's stack instead of
                                 compiling.
`, binName)
)

// Cmd holds the parsed command-line state for one invocation.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help       bool   `flag:"h,help"`
	Version    bool   `flag:"v,version"`
	DebugStack string `flag:"debug-stack"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate enforces the CLI's argument-count rules: a path is mandatory
// (outside of --help/--version), and exactly one is accepted - unlike
// original_source's tolerance for trailing, silently-ignored arguments,
// the extra ones are now reported rather than dropped.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no file was specified to be compiled. Command usage: `rack <path>`")
	}
	if len(c.args) > 1 {
		return fmt.Errorf("unexpected extra argument: %q", c.args[1])
	}
	return nil
}

// Main parses args and dispatches to Compile or DebugStack.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	path := c.args[0]

	var err error
	if c.DebugStack != "" {
		err = DebugStack(ctx, stdio, path, c.DebugStack)
	} else {
		err = Compile(ctx, stdio, path)
	}
	if err != nil {
		return mainer.Failure
	}
	return mainer.Success
}
