package commands

import (
	"fmt"
	"io"

	"github.com/regflow/regflow-go/cmd/regflow/interactive"
)

// RunShell opens an interactive shell over a register map.
func RunShell(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("shell", stderr)
	var logOpts LogOptions
	logOpts.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printShellUsage); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one input file")
		printShellUsage(stderr)
		return exitCommandError
	}

	logger, err := NewLogger(logOpts.withDefaults("warn", "text"), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	loaded, _, err := loadMap(fs.Arg(0), logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", fs.Arg(0), err)
		return exitCommandError
	}

	sh, err := interactive.New(loaded.Map)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	ctx, cancel := signalContext()
	defer cancel()
	sh.Run(ctx)
	return exitSuccess
}

func printShellUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow shell <input>

Browse a register map interactively: list blocks and registers, compute
addresses, decode and encode register values.`)
}
