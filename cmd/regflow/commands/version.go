package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/version"
)

// RunVersion prints the regflow version and probes the PeakRDL install.
func RunVersion(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("version", stderr)
	binary := fs.String("peakrdl", peakrdl.DefaultBinary, "PeakRDL executable to probe")
	check := fs.Bool("check", false, "Exit 1 unless a supported PeakRDL is installed")
	if code, ok := parseFlags(fs, args, stderr, printVersionUsage); !ok {
		return code
	}

	fmt.Fprintln(stdout, version.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := peakrdl.NewDriver()
	d.Binary = *binary
	out, err := d.Version(ctx)
	if err != nil {
		if errors.Is(err, peakrdl.ErrToolNotFound) {
			fmt.Fprintf(stdout, "peakrdl: not found (%s)\n", *binary)
		} else {
			fmt.Fprintf(stdout, "peakrdl: %v\n", err)
		}
		if *check {
			return exitCommandError
		}
		return exitSuccess
	}

	v, err := version.CheckPeakRDL(out)
	if err != nil {
		fmt.Fprintf(stdout, "peakrdl: %s (%v)\n", out, err)
		if *check {
			return exitCommandError
		}
		return exitSuccess
	}
	fmt.Fprintf(stdout, "peakrdl: %s\n", v)
	return exitSuccess
}

func printVersionUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow version [options]

Options:
  -peakrdl <path>  PeakRDL executable to probe [default: peakrdl]
  -check           Exit 1 unless a supported PeakRDL is installed`)
}
