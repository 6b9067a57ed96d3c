package rdl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 2

// Diff returns a line diff from old to new, or "" when they are equal.
// Removed lines start with "-", added lines with "+" and context lines
// with a space. Long unchanged runs are collapsed into a single "@@" line.
func Diff(old, new string) string {
	if old == new {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out strings.Builder
	for i, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range lines {
				fmt.Fprintf(&out, "-%s\n", l)
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range lines {
				fmt.Fprintf(&out, "+%s\n", l)
			}
		case diffmatchpatch.DiffEqual:
			writeContext(&out, lines, i > 0, i < len(diffs)-1)
		}
	}
	return out.String()
}

func writeContext(out *strings.Builder, lines []string, hasBefore, hasAfter bool) {
	keepHead, keepTail := 0, 0
	if hasBefore {
		keepHead = contextLines
	}
	if hasAfter {
		keepTail = contextLines
	}
	if keepHead+keepTail >= len(lines) {
		for _, l := range lines {
			fmt.Fprintf(out, " %s\n", l)
		}
		return
	}
	for _, l := range lines[:keepHead] {
		fmt.Fprintf(out, " %s\n", l)
	}
	fmt.Fprintf(out, "@@ %d unchanged lines @@\n", len(lines)-keepHead-keepTail)
	for _, l := range lines[len(lines)-keepTail:] {
		fmt.Fprintf(out, " %s\n", l)
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// Stale compares content with the file at path. It returns the diff from
// the file to content, or "" when the file is up to date. A missing file is
// reported as entirely added.
func Stale(path, content string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Diff("", content), nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return Diff(string(data), content), nil
}
