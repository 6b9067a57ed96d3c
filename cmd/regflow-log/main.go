// Command regflow-log views and analyzes regflow run journals.
//
// Journals are written by "regflow run" and "regflow watch" to the path
// configured under journal: in regflow.yaml (default .regflow/journal.rlog).
//
// Usage:
//
//	regflow-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View journal events in human-readable format
//	runs     List one line per pipeline run
//	export   Export journal events to JSONL or CSV
//	filter   Filter journal events and write to a new journal
//	stats    Show statistics about the journal
//
// Examples:
//
//	# View the most recent run
//	regflow-log view -last .regflow/journal.rlog
//
//	# View only failures
//	regflow-log view -kind fail .regflow/journal.rlog
//
//	# Export one step to CSV
//	regflow-log export -format csv -step regblock .regflow/journal.rlog
//
//	# Show statistics
//	regflow-log stats .regflow/journal.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/regflow/regflow-go/cmd/regflow-log/commands"
)

const usage = `regflow-log - regflow Run Journal Analyzer

Usage:
  regflow-log <command> [flags] <file.rlog>

Commands:
  view     View journal events in human-readable format
  runs     List one line per pipeline run
  export   Export journal events to JSONL or CSV
  filter   Filter journal events and write to a new journal
  stats    Show statistics about the journal

Use "regflow-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "runs":
		runRuns(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.RunID, "run", "", "Filter by run ID")
	fs.BoolVar(&opts.Last, "last", false, "Only the most recent run")
	fs.StringVar(&opts.Step, "step", "", "Filter by step (run, load, validate, render, regblock, uvm, html)")
	fs.StringVar(&opts.Kind, "kind", "", "Filter by kind (start, finish, skip, fail, warn)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return opts
}

func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "regflow-log %s - %s\n\nUsage:\n  regflow-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// journalPath returns the single positional argument or exits.
func journalPath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := newFlagSet("view", "View journal events in human-readable format", "view [flags] <file.rlog>")
	opts := filterFlags(fs)
	path := journalPath(fs, args)

	fail(commands.RunView(path, *opts, os.Stdout))
}

func runRuns(args []string) {
	fs := newFlagSet("runs", "List one line per pipeline run", "runs <file.rlog>")
	path := journalPath(fs, args)

	fail(commands.RunRuns(path, os.Stdout))
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export journal events to JSONL or CSV", "export [flags] <file.rlog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := filterFlags(fs)
	path := journalPath(fs, args)

	fail(commands.RunExport(path, *format, *output, *opts, os.Stdout))
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter journal events and write to a new journal", "filter [flags] -o <out.rlog> <file.rlog>")
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	path := journalPath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	fail(commands.RunFilter(path, *output, *opts, os.Stdout))
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the journal", "stats <file.rlog>")
	path := journalPath(fs, args)

	fail(commands.RunStats(path, os.Stdout))
}
