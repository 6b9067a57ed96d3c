package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/regflow/regflow-go/pkg/config"
	"github.com/regflow/regflow-go/pkg/sheet"
)

// RunInit writes a default regflow.yaml and, optionally, an example
// workbook next to it.
func RunInit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("init", stderr)
	path := fs.String("o", config.FileName, "Config file to write")
	example := fs.Bool("example", false, "Also write an example registers.xlsx")
	if code, ok := parseFlags(fs, args, stderr, printInitUsage); !ok {
		return code
	}

	if err := config.WriteDefaultConfig(*path); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintf(stdout, "Wrote %s\n", *path)

	if *example {
		xlsx := filepath.Join(filepath.Dir(*path), "registers.xlsx")
		if _, err := os.Stat(xlsx); err == nil {
			fmt.Fprintf(stdout, "Kept existing %s\n", xlsx)
			return exitSuccess
		}
		if err := sheet.WriteTemplate(xlsx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintf(stdout, "Wrote %s\n", xlsx)
	}
	return exitSuccess
}

func printInitUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow init [options]

Write a commented default configuration.

Options:
  -o <file>   Config file to write [default: regflow.yaml]
  -example    Also write an example registers.xlsx next to it`)
}
