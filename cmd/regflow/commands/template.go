package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/regflow/regflow-go/pkg/regspec"
	"github.com/regflow/regflow-go/pkg/sheet"
	"github.com/regflow/regflow-go/pkg/source"
)

// RunTemplate writes an example register source to start from.
func RunTemplate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("template", stderr)
	force := fs.Bool("force", false, "Overwrite an existing file")
	if code, ok := parseFlags(fs, args, stderr, printTemplateUsage); !ok {
		return code
	}

	path := "registers.xlsx"
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "Error: expected at most one output file")
		return exitCommandError
	}
	if fs.NArg() == 1 {
		path = fs.Arg(0)
	}

	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(stderr, "Error: %s already exists (use -force to overwrite)\n", path)
		return exitCommandError
	}

	format, err := source.Detect(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	switch format {
	case source.FormatYAML:
		err = regspec.Save(path, sheet.ExampleMap())
	default:
		err = sheet.WriteTemplate(path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	fmt.Fprintf(stdout, "Wrote %s template to %s\n", strings.ToUpper(string(format)), path)
	return exitSuccess
}

func printTemplateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow template [options] [file]

Write an example register source with a UART block. The format follows
the extension: .xlsx (default registers.xlsx) or .yaml.

Options:
  -force   Overwrite an existing file`)
}
