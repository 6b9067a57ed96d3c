package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/regflow/regflow-go/pkg/codegen"
)

// RunGenGo writes Go constants for a register map.
func RunGenGo(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("gen-go", stderr)
	opts := codegen.Options{}
	var output string
	var logOpts LogOptions
	fs.StringVar(&opts.Package, "package", "regs", "Go package name")
	fs.StringVar(&output, "o", "", "Output file (default: stdout)")
	logOpts.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printGenGoUsage); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one input file")
		printGenGoUsage(stderr)
		return exitCommandError
	}
	input := fs.Arg(0)
	opts.Source = filepath.Base(input)

	logger, err := NewLogger(logOpts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	loaded, res, err := loadMap(input, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", input, err)
		return exitCommandError
	}
	if reportIssues(stderr, input, res) {
		return exitValidation
	}

	if output == "" || output == "-" {
		src, err := codegen.Generate(loaded.Map, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprint(stdout, src)
		return exitSuccess
	}

	if err := codegen.WriteFile(output, loaded.Map, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintf(stdout, "Generated %s\n", output)
	return exitSuccess
}

func printGenGoUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow gen-go [options] <input>

Generate Go constants (addresses, offsets, masks, shifts and reset values)
for firmware or test code.

Options:
  -package <name>  Go package name [default: regs]
  -o <file>        Output file (default: stdout)

Examples:
  regflow gen-go -package uartregs -o internal/uartregs/regs.go registers.xlsx`)
}
