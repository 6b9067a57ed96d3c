package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/regflow/regflow-go/pkg/config"
	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/pipeline"
)

// GenerateOptions configures the generate command.
type GenerateOptions struct {
	RDL     string
	Target  string // rtl, uvm, html or all
	Output  string // only with a single target
	Binary  string
	Options peakrdl.RegblockOptions
	DryRun  bool
	Log     LogOptions
}

// RunGenerate runs PeakRDL generators on an existing SystemRDL file.
func RunGenerate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("generate", stderr)
	opts := GenerateOptions{}
	fs.StringVar(&opts.Target, "target", "all", "Generator: rtl, uvm, html or all")
	fs.StringVar(&opts.Output, "o", "", "Output directory (single target only)")
	fs.StringVar(&opts.Binary, "peakrdl", peakrdl.DefaultBinary, "PeakRDL executable")
	fs.StringVar(&opts.Options.CPUIF, "cpuif", "", "regblock CPU interface, e.g. apb4-flat")
	fs.StringVar(&opts.Options.ModuleName, "module-name", "", "regblock module name")
	fs.StringVar(&opts.Options.PackageName, "package-name", "", "regblock package name")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print the commands without running them")
	opts.Log.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printGenerateUsage); !ok {
		return code
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one .rdl file")
		printGenerateUsage(stderr)
		return exitCommandError
	}
	opts.RDL = fs.Arg(0)

	logger, err := NewLogger(opts.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	targets, err := selectTargets(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	driver := peakrdl.NewDriver()
	driver.Binary = opts.Binary

	if opts.DryRun {
		for _, tc := range targets {
			argv, err := driver.Command(tc.Target, opts.RDL, tc.Output, tc.Options)
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return exitCommandError
			}
			fmt.Fprintln(stdout, strings.Join(argv, " "))
		}
		return exitSuccess
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, tc := range targets {
		logger.Info("generating", "target", tc.Target.String(), "output", tc.Output)
		out, err := driver.Generate(ctx, tc.Target, opts.RDL, tc.Output, tc.Options)
		if out.Stdout != "" {
			fmt.Fprintln(stdout, out.Stdout)
		}
		if err != nil {
			printToolError(stderr, tc.Target, err)
			return exitCommandError
		}
		fmt.Fprintf(stdout, "%s: wrote %s\n", tc.Target, tc.Output)
	}
	return exitSuccess
}

// selectTargets expands the -target flag into generator invocations.
func selectTargets(opts GenerateOptions) ([]pipeline.TargetConfig, error) {
	all := defaultTargets()
	if strings.EqualFold(opts.Target, "all") {
		if opts.Output != "" {
			return nil, errors.New("-o needs a single -target")
		}
		for i := range all {
			if all[i].Target == peakrdl.TargetRegblock {
				all[i].Options = opts.Options
			}
		}
		return all, nil
	}

	target, err := peakrdl.ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	for _, tc := range all {
		if tc.Target != target {
			continue
		}
		if opts.Output != "" {
			tc.Output = opts.Output
		}
		if target == peakrdl.TargetRegblock {
			tc.Options = opts.Options
		}
		return []pipeline.TargetConfig{tc}, nil
	}
	return nil, fmt.Errorf("no default output for target %s", target)
}

// defaultTargets returns the configured default targets in workflow order.
func defaultTargets() []pipeline.TargetConfig {
	var out []pipeline.TargetConfig
	for _, t := range config.DefaultTargets() {
		target, err := peakrdl.ParseTarget(t.Target)
		if err != nil {
			continue
		}
		out = append(out, pipeline.TargetConfig{Target: target, Output: t.Output})
	}
	return out
}

// printToolError explains generator failures, with a hint when the tool is
// not installed.
func printToolError(w io.Writer, target peakrdl.Target, err error) {
	fmt.Fprintf(w, "Error: %s: %v\n", target, err)
	if errors.Is(err, peakrdl.ErrToolNotFound) {
		fmt.Fprintln(w, "Install PeakRDL with: pip install peakrdl")
	}
}

func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow generate [options] <file.rdl>

Run the PeakRDL generators on an existing SystemRDL file.

Options:
  -target <t>          rtl, uvm, html or all [default: all]
  -o <dir>             Output directory (single target only)
  -peakrdl <path>      PeakRDL executable [default: peakrdl]
  -cpuif <name>        regblock CPU interface, e.g. apb4-flat
  -module-name <name>  regblock module name
  -package-name <name> regblock package name
  -dry-run             Print the commands without running them

Examples:
  regflow generate generated_registers.rdl
  regflow generate -target uvm -o sim/uvm generated_registers.rdl`)
}
