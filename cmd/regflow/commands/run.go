package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/regflow/regflow-go/pkg/config"
	"github.com/regflow/regflow-go/pkg/inspect"
	"github.com/regflow/regflow-go/pkg/journal"
	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/persistence"
	"github.com/regflow/regflow-go/pkg/pipeline"
)

// RunOptions configures the run and watch commands.
type RunOptions struct {
	Config          string
	Input           string
	Force           bool
	DryRun          bool
	ContinueOnError bool
	Log             LogOptions
}

func (o *RunOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Config, "config", "", "Config file (default: ./regflow.yaml, then ~/.config/regflow/config.yaml)")
	fs.StringVar(&o.Input, "input", "", "Register source, overriding the config")
	fs.BoolVar(&o.ContinueOnError, "continue-on-error", false, "Run remaining targets after a failure")
}

// session is a loaded config with its logger, journal and runner.
type session struct {
	cfg      config.Config
	pipeline pipeline.Config
	logger   *slog.Logger
	runner   *pipeline.Runner
	closers  []func() error
}

func openSession(opts RunOptions, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Input != "" {
		cfg.Input = opts.Input
	}
	if opts.ContinueOnError {
		cfg.ContinueOnError = true
	}

	logger, err := NewLogger(opts.Log.withDefaults(cfg.Log.Level, cfg.Log.Format), stderr)
	if err != nil {
		return nil, err
	}

	pc, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}
	pc.Force = opts.Force
	pc.DryRun = opts.DryRun

	s := &session{cfg: cfg, pipeline: pc, logger: logger}

	loggers := []journal.Logger{journal.NewSlogAdapter(logger)}
	if cfg.Journal != "" && !opts.DryRun {
		fl, err := journal.NewFileLogger(cfg.Journal)
		if err != nil {
			return nil, err
		}
		loggers = append(loggers, fl)
		s.closers = append(s.closers, fl.Close)
	}

	s.runner = &pipeline.Runner{
		Driver:  cfg.Driver(),
		Journal: journal.NewMultiLogger(loggers...),
		Logger:  logger,
	}
	if cfg.State != "" {
		s.runner.State = persistence.NewStateStore(cfg.State)
	}
	return s, nil
}

func (s *session) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.logger.Warn("close failed", "error", err)
		}
	}
}

// run executes one pipeline run and prints its report.
func (s *session) run(ctx context.Context, stdout, stderr io.Writer) int {
	report, err := s.runner.Run(ctx, s.pipeline)
	if report != nil {
		printReport(stdout, report)
	}
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, pipeline.ErrInvalidMap):
		if report != nil && report.Validation != nil {
			fmt.Fprint(stderr, inspect.NewFormatter().FormatIssues(report.Validation))
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitValidation
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, peakrdl.ErrToolNotFound) {
			fmt.Fprintln(stderr, "Install PeakRDL with: pip install peakrdl")
		}
		return exitCommandError
	}
}

// RunRun runs the full workflow described by the config.
func RunRun(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("run", stderr)
	opts := RunOptions{}
	opts.register(fs)
	fs.BoolVar(&opts.Force, "force", false, "Regenerate targets even when up to date")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Load, validate and render only; print generator commands")
	opts.Log.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printRunUsage); !ok {
		return code
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitCommandError
	}

	s, err := openSession(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer s.close()

	ctx, cancel := signalContext()
	defer cancel()
	return s.run(ctx, stdout, stderr)
}

func printReport(w io.Writer, r *pipeline.Report) {
	for _, s := range r.Steps {
		var dur, detail string
		if s.Duration > 0 {
			dur = s.Duration.Round(time.Millisecond).String()
		}
		switch {
		case s.Err != nil:
			detail = s.Err.Error()
		case s.Message != "":
			detail = s.Message
		case len(s.Artifacts) > 0:
			detail = strings.Join(s.Artifacts, ", ")
		}
		line := fmt.Sprintf("  %-9s %-8s %8s  %s", s.Name, s.Status, dur, detail)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	status := "OK"
	if r.Failed() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "run %s: %s (%s)\n", r.RunID, status, r.Counts)
}

func printRunUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow run [options]

Convert the register source, validate it, write SystemRDL and run the
configured PeakRDL generators. Targets whose inputs did not change since
the last successful run are skipped.

Options:
  -config <file>        Config file
  -input <file>         Register source, overriding the config
  -force                Regenerate targets even when up to date
  -dry-run              Load, validate and render only; print generator commands
  -continue-on-error    Run remaining targets after a failure
  -log-level <lvl>      debug, info, warn or error
  -log-format <f>       text or json

Examples:
  regflow run
  regflow run -config hw/regflow.yaml -force`)
}
