// Package commands implements the regflow subcommands.
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/regflow/regflow-go/pkg/inspect"
	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/source"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitValidation   = 2
)

// LogOptions selects the operational log handler.
type LogOptions struct {
	Level  string
	Format string
}

func (o *LogOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Level, "log-level", "", "Log level: debug, info, warn or error")
	fs.StringVar(&o.Format, "log-format", "", "Log format: text or json")
}

// withDefaults fills unset options from another source such as a config file.
func (o LogOptions) withDefaults(level, format string) LogOptions {
	if o.Level == "" {
		o.Level = level
	}
	if o.Format == "" {
		o.Format = format
	}
	return o
}

// NewLogger builds a slog logger writing to w. Empty values mean info/text.
func NewLogger(opts LogOptions, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(opts.Level) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be debug, info, warn or error", opts.Level)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be text or json", opts.Format)
	}
	return slog.New(handler), nil
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}
	return fs
}

// parseFlags parses args, printing usage on -h. The returned code is
// meaningful only when ok is false.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer, usage func(io.Writer)) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			usage(stderr)
			return exitSuccess, false
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError, false
	}
	return 0, true
}

// loadMap reads and validates a register source. Validation problems are
// printed to stderr; the result is returned so callers can decide.
func loadMap(path string, logger *slog.Logger) (*source.Loaded, *regmap.Result, error) {
	loaded, err := source.Load(path, logger)
	if err != nil {
		return nil, nil, err
	}
	return loaded, regmap.Validate(loaded.Map), nil
}

// reportIssues prints validation issues. It returns true when the map has
// errors.
func reportIssues(w io.Writer, path string, res *regmap.Result) bool {
	if len(res.Errors) == 0 && len(res.Warnings) == 0 {
		return false
	}
	if !res.Valid {
		fmt.Fprintf(w, "%s: %s\n", path, res.Summary())
	}
	fmt.Fprint(w, inspect.NewFormatter().FormatIssues(res))
	return !res.Valid
}

// signalContext is canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// replaceExt swaps the extension of path.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
