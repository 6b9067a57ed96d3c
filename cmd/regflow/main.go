// regflow converts register spreadsheets to SystemRDL and drives the
// PeakRDL generators.
package main

import (
	"fmt"
	"os"

	"github.com/regflow/regflow-go/cmd/regflow/commands"
	"github.com/regflow/regflow-go/pkg/version"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "convert":
		exitCode = commands.RunConvert(args, os.Stdout, os.Stderr)
	case "validate":
		exitCode = commands.RunValidate(args, os.Stdout, os.Stderr)
	case "generate":
		exitCode = commands.RunGenerate(args, os.Stdout, os.Stderr)
	case "run":
		exitCode = commands.RunRun(args, os.Stdout, os.Stderr)
	case "watch":
		exitCode = commands.RunWatch(args, os.Stdout, os.Stderr)
	case "template":
		exitCode = commands.RunTemplate(args, os.Stdout, os.Stderr)
	case "gen-go":
		exitCode = commands.RunGenGo(args, os.Stdout, os.Stderr)
	case "show":
		exitCode = commands.RunShow(args, os.Stdout, os.Stderr)
	case "shell":
		exitCode = commands.RunShell(args, os.Stdout, os.Stderr)
	case "init":
		exitCode = commands.RunInit(args, os.Stdout, os.Stderr)
	case "version":
		exitCode = commands.RunVersion(args, os.Stdout, os.Stderr)
	case "-v", "--version":
		fmt.Println(version.String())
		exitCode = exitSuccess
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`regflow - register map workflow tool

Usage:
  regflow <command> [options] [args...]

Commands:
  convert    Convert a register spreadsheet or YAML file to SystemRDL
  validate   Check register sources for errors
  generate   Run PeakRDL generators on a SystemRDL file
  run        Run the full workflow from the config file
  watch      Re-run the workflow whenever the sources change
  template   Write an example register spreadsheet
  gen-go     Generate Go register constants
  show       Print a register map, block, register or field
  shell      Browse a register map interactively
  init       Write a default regflow.yaml
  version    Show version information and probe PeakRDL

Exit codes:
  0  success
  1  command error
  2  validation errors or stale output

Examples:
  regflow template registers.xlsx
  regflow convert registers.xlsx
  regflow run -force
  regflow show -path UART/CTRL registers.xlsx

For command-specific help, run:
  regflow <command> -h`)
}
