package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/rdl"
	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/regspec"
	"github.com/regflow/regflow-go/pkg/sheet"
)

// ConvertOptions configures the convert command.
type ConvertOptions struct {
	Input  string
	Output string // "-" means stdout
	Format string // rdl, yaml or xlsx
	Top    string
	Check  bool
	Log    LogOptions
}

// RunConvert runs the convert command.
func RunConvert(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("convert", stderr)
	opts := ConvertOptions{}
	fs.StringVar(&opts.Output, "o", "", "Output file (default depends on -format, - for stdout)")
	fs.StringVar(&opts.Format, "format", "rdl", "Output format: rdl, yaml or xlsx")
	fs.StringVar(&opts.Top, "top", "", "Emit a top-level addrmap with this name instantiating every block")
	fs.BoolVar(&opts.Check, "check", false, "Do not write; exit 2 and print a diff if the output is stale")
	opts.Log.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printConvertUsage); !ok {
		return code
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one input file")
		printConvertUsage(stderr)
		return exitCommandError
	}
	opts.Input = fs.Arg(0)

	logger, err := NewLogger(opts.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	opts.Format = strings.ToLower(opts.Format)
	if opts.Output == "" {
		opts.Output = defaultConvertOutput(opts.Input, opts.Format)
	}
	if opts.Output == "" {
		fmt.Fprintf(stderr, "Error: unknown format %q (want rdl, yaml or xlsx)\n", opts.Format)
		return exitCommandError
	}
	if opts.Format == "xlsx" && opts.Check {
		fmt.Fprintln(stderr, "Error: xlsx output does not support -check")
		return exitCommandError
	}

	loaded, res, err := loadMap(opts.Input, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", opts.Input, err)
		return exitCommandError
	}
	if reportIssues(stderr, opts.Input, res) {
		return exitValidation
	}
	m := loaded.Map

	if opts.Format == "xlsx" {
		if opts.Output == "-" {
			if err := sheet.Write(m, stdout); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return exitCommandError
			}
			return exitSuccess
		}
		if err := sheet.Save(m, opts.Output); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintf(stdout, "Converted %s -> %s (%s)\n", opts.Input, opts.Output, m.Counts())
		return exitSuccess
	}

	content, err := renderText(m, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.Check {
		diff, err := rdl.Stale(opts.Output, content)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		if diff != "" {
			fmt.Fprintf(stdout, "%s is out of date:\n%s", opts.Output, diff)
			return exitValidation
		}
		fmt.Fprintf(stdout, "%s is up to date\n", opts.Output)
		return exitSuccess
	}

	if opts.Output == "-" {
		fmt.Fprint(stdout, content)
		return exitSuccess
	}
	if err := rdl.WriteFile(opts.Output, content); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintf(stdout, "Converted %s -> %s (%s)\n", opts.Input, opts.Output, m.Counts())
	if opts.Format == "rdl" {
		printNextSteps(stdout, opts.Output)
	}
	return exitSuccess
}

func renderText(m *regmap.Map, opts ConvertOptions) (string, error) {
	switch opts.Format {
	case "yaml":
		data, err := regspec.Marshal(m)
		return string(data), err
	default:
		return rdl.Render(m, rdl.Options{
			Top:    opts.Top,
			Header: fmt.Sprintf("Generated by regflow from %s. Do not edit.", filepath.Base(opts.Input)),
		})
	}
}

func defaultConvertOutput(input, format string) string {
	switch format {
	case "rdl":
		return rdl.DefaultOutput
	case "yaml":
		return replaceExt(input, ".yaml")
	case "xlsx":
		return replaceExt(input, ".xlsx")
	default:
		return ""
	}
}

// printNextSteps lists the generator commands for the written RDL file.
func printNextSteps(w io.Writer, rdlPath string) {
	d := &peakrdl.Driver{}
	fmt.Fprintln(w, "\nNext steps:")
	for _, tc := range defaultTargets() {
		argv, err := d.Command(tc.Target, rdlPath, tc.Output, tc.Options)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(argv, " "))
	}
	fmt.Fprintln(w, "or run them all with: regflow run")
}

func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow convert [options] <input>

Convert a register source (.xlsx or .yaml) to SystemRDL, YAML or a workbook.

Options:
  -o <file>         Output file (default: generated_registers.rdl for rdl,
                    the input name with a new extension otherwise; - for stdout)
  -format <fmt>     rdl, yaml or xlsx [default: rdl]
  -top <name>       Emit a top-level addrmap instantiating every block
  -check            Do not write; exit 2 with a diff if the output is stale
  -log-level <lvl>  debug, info, warn or error
  -log-format <f>   text or json

Examples:
  regflow convert registers.xlsx
  regflow convert -format yaml registers.xlsx
  regflow convert -check -o regs.rdl registers.yaml`)
}
