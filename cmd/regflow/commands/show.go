package commands

import (
	"fmt"
	"io"

	"github.com/regflow/regflow-go/pkg/inspect"
	"github.com/regflow/regflow-go/pkg/regmap"
)

// ShowOptions configures the show command.
type ShowOptions struct {
	Input  string
	Path   string
	Decode string
	Find   string
	NoDesc bool
	Log    LogOptions
}

// RunShow prints a register map, or part of it.
func RunShow(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("show", stderr)
	opts := ShowOptions{}
	fs.StringVar(&opts.Path, "path", "", "Block, block/register or block/register/field to show")
	fs.StringVar(&opts.Decode, "decode", "", "Decode a register value at -path")
	fs.StringVar(&opts.Find, "find", "", "List paths whose name contains this text")
	fs.BoolVar(&opts.NoDesc, "no-desc", false, "Hide descriptions")
	opts.Log.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printShowUsage); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one input file")
		printShowUsage(stderr)
		return exitCommandError
	}
	opts.Input = fs.Arg(0)

	logger, err := NewLogger(opts.Log.withDefaults("warn", "text"), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	loaded, res, err := loadMap(opts.Input, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", opts.Input, err)
		return exitCommandError
	}

	ins := inspect.NewInspector(loaded.Map)
	f := inspect.NewFormatter()
	f.ShowDescriptions = !opts.NoDesc

	if opts.Find != "" {
		for _, p := range ins.Find(opts.Find) {
			fmt.Fprintln(stdout, p.String())
		}
		return exitSuccess
	}

	if opts.Path == "" {
		if opts.Decode != "" {
			fmt.Fprintln(stderr, "Error: -decode needs -path")
			return exitCommandError
		}
		fmt.Fprint(stdout, f.FormatMap(loaded.Map))
		if !res.Valid || len(res.Warnings) > 0 {
			fmt.Fprintf(stdout, "\nvalidation: %s\n", res.Summary())
			fmt.Fprint(stdout, f.FormatIssues(res))
		}
		return exitSuccess
	}

	target, err := ins.ResolveString(opts.Path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.Decode != "" {
		value, err := regmap.ParseNumber(opts.Decode)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		values, err := ins.Decode(&target.Path, value)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprint(stdout, f.FormatDecoded(value, target.Register.Width, values))
		return exitSuccess
	}

	fmt.Fprint(stdout, f.FormatTarget(target))
	return exitSuccess
}

func printShowUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow show [options] <input>

Print the blocks of a register map, or one block, register or field.

Options:
  -path <p>      block, block/register or block/register/field (. also works)
  -decode <v>    Decode a register value into fields (needs a register -path)
  -find <text>   List paths whose name contains text
  -no-desc       Hide descriptions

Examples:
  regflow show registers.xlsx
  regflow show -path UART/CTRL registers.xlsx
  regflow show -path UART.CTRL -decode 0x1a05 registers.xlsx`)
}
