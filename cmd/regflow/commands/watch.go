package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/regflow/regflow-go/pkg/watch"
)

// RunWatch re-runs the workflow whenever the register source or the
// config file changes.
func RunWatch(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("watch", stderr)
	opts := RunOptions{}
	opts.register(fs)
	opts.Log.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printWatchUsage); !ok {
		return code
	}

	s, err := openSession(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	files := []string{s.cfg.Input}
	if s.cfg.File != "" {
		files = append(files, s.cfg.File)
	}
	debounce := s.cfg.Watch.Debounce
	logger := s.logger
	s.close()

	w, err := watch.New(watch.Config{Files: files, Debounce: debounce, Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	changes, err := w.Start()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(stdout, "Watching %s (Ctrl-C to stop)\n", strings.Join(files, ", "))
	watchLoop(ctx, changes, func() {
		// Reload so config edits apply to the next run.
		s, err := openSession(opts, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return
		}
		defer s.close()
		s.run(ctx, stdout, stderr)
	})
	return exitSuccess
}

// watchLoop calls fn once, then after every change until ctx is done.
func watchLoop(ctx context.Context, changes <-chan struct{}, fn func()) {
	fn()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			fn()
		}
	}
}

func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow watch [options]

Run the workflow, then run it again whenever the register source or the
config file changes.

Options:
  -config <file>        Config file
  -input <file>         Register source, overriding the config
  -continue-on-error    Run remaining targets after a failure
  -log-level <lvl>      debug, info, warn or error
  -log-format <f>       text or json`)
}
