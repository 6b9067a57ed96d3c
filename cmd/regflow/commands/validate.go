package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/source"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	JSON    bool
	Verbose bool
	Files   []string
	Log     LogOptions
}

// ValidationOutput represents the validation result for a file.
type ValidationOutput struct {
	Valid    bool          `json:"valid"`
	Format   string        `json:"format,omitempty"`
	Counts   *CountsOutput `json:"counts,omitempty"`
	Errors   []IssueOutput `json:"errors,omitempty"`
	Warnings []IssueOutput `json:"warnings,omitempty"`
	Orphans  []string      `json:"orphans,omitempty"`
}

// CountsOutput reports the size of a map.
type CountsOutput struct {
	Blocks    int `json:"blocks"`
	Registers int `json:"registers"`
	Fields    int `json:"fields"`
}

// IssueOutput represents a validation issue.
type IssueOutput struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// RunValidate runs the validate command.
func RunValidate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("validate", stderr)
	opts := ValidateOptions{}
	fs.BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Show all warnings")
	fs.BoolVar(&opts.Verbose, "v", false, "Show all warnings (shorthand)")
	opts.Log.register(fs)
	if code, ok := parseFlags(fs, args, stderr, printValidateUsage); !ok {
		return code
	}
	opts.Files = fs.Args()

	if len(opts.Files) == 0 {
		fmt.Fprintln(stderr, "Error: no files specified")
		printValidateUsage(stderr)
		return exitCommandError
	}

	logger, err := NewLogger(opts.Log.withDefaults("warn", "text"), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	hasErrors := false
	results := make(map[string]*ValidationOutput)

	for _, file := range opts.Files {
		result := validateFile(file, logger)
		results[file] = result

		if !result.Valid {
			hasErrors = true
		}

		if !opts.JSON {
			printValidationResult(stdout, file, result, opts.Verbose)
		}
	}

	if opts.JSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(stdout, string(output))
	}

	if hasErrors {
		return exitValidation
	}
	return exitSuccess
}

func validateFile(path string, logger *slog.Logger) *ValidationOutput {
	output := &ValidationOutput{Valid: true}

	loaded, err := source.Load(path, logger)
	if err != nil {
		output.Valid = false
		output.Errors = append(output.Errors, IssueOutput{
			Code:    "LOAD",
			Message: err.Error(),
		})
		return output
	}

	output.Format = string(loaded.Format)
	c := loaded.Map.Counts()
	output.Counts = &CountsOutput{Blocks: c.Blocks, Registers: c.Registers, Fields: c.Fields}
	for _, o := range loaded.Orphans {
		output.Orphans = append(output.Orphans, fmt.Sprintf("%s row %d: %s", o.Sheet, o.Row, o.Reason))
	}

	result := regmap.Validate(loaded.Map)
	output.Valid = result.Valid
	output.Errors = append(output.Errors, issueOutputs(result.Errors)...)
	output.Warnings = issueOutputs(result.Warnings)
	return output
}

func issueOutputs(issues []regmap.Issue) []IssueOutput {
	var out []IssueOutput
	for _, i := range issues {
		out = append(out, IssueOutput{Code: i.Code, Path: i.Path, Message: i.Message})
	}
	return out
}

func printValidationResult(w io.Writer, file string, result *ValidationOutput, verbose bool) {
	if result.Valid && len(result.Warnings) == 0 {
		fmt.Fprintf(w, "%s: OK", file)
	} else if result.Valid {
		fmt.Fprintf(w, "%s: OK (with %d warnings)", file, len(result.Warnings))
	} else {
		fmt.Fprintf(w, "%s: FAILED (%d errors, %d warnings)", file, len(result.Errors), len(result.Warnings))
	}
	if result.Counts != nil {
		fmt.Fprintf(w, " [%d blocks, %d registers, %d fields]", result.Counts.Blocks, result.Counts.Registers, result.Counts.Fields)
	}
	fmt.Fprintln(w)

	for _, e := range result.Errors {
		fmt.Fprintf(w, "  ERROR %s\n", formatIssue(e))
	}

	if verbose {
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  WARNING %s\n", formatIssue(warn))
		}
		for _, o := range result.Orphans {
			fmt.Fprintf(w, "  SKIPPED %s\n", o)
		}
	}
}

func formatIssue(i IssueOutput) string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Path, i.Code, i.Message)
}

func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: regflow validate [options] <files...>

Check register sources for naming, layout and reset-value problems.
Exits 2 when any file has errors.

Options:
  -json           Output results as JSON
  -v, -verbose    Show warnings and skipped rows

Examples:
  regflow validate registers.xlsx
  regflow validate -json regs/*.yaml`)
}
