// Package commands implements the regflow-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/regflow/regflow-go/pkg/journal"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event journal.Event) {
	// Header line: timestamp [run:id] KIND step
	ts := event.Timestamp.UTC().Format(timeLayout)
	fmt.Fprintf(w, "%s [run:%s] %-6s %s\n", ts, shortID(event.RunID), event.Kind, event.Step)

	if event.Target != "" && event.Target != event.Step {
		fmt.Fprintf(w, "  Target: %s\n", event.Target)
	}
	if event.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(event.Duration))
	}
	if event.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", event.Message)
	}
	if event.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Error)
	}
	for _, a := range event.Artifacts {
		fmt.Fprintf(w, "  Artifact: %s\n", a)
	}
	if event.Fingerprint != "" && event.Kind != journal.KindStart {
		fmt.Fprintf(w, "  Fingerprint: %s\n", shortFingerprint(event.Fingerprint))
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortID returns the first 8 characters of a run ID.
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func shortFingerprint(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	default:
		return d.Round(time.Millisecond).String()
	}
}

// RunView executes the view command.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	filter, err := opts.Build(path)
	if err != nil {
		return err
	}

	reader, err := journal.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}

// RunSummary is the outcome of one pipeline run.
type RunSummary struct {
	RunID    string
	Start    time.Time
	Duration time.Duration
	Input    string
	Status   string // ok, failed or running
	Failed   []string
	Skipped  int
	Warnings int
}

// Summarize groups events by run, in order of first appearance.
func Summarize(events []journal.Event) []*RunSummary {
	var runs []*RunSummary
	byID := make(map[string]*RunSummary)
	for _, e := range events {
		r, ok := byID[e.RunID]
		if !ok {
			r = &RunSummary{RunID: e.RunID, Start: e.Timestamp, Status: "running"}
			byID[e.RunID] = r
			runs = append(runs, r)
		}

		switch {
		case e.Step == journal.StepRun && e.Kind == journal.KindStart:
			r.Input = e.Message
		case e.Step == journal.StepRun && e.Kind == journal.KindFinish:
			r.Status = "ok"
			r.Duration = e.Duration
		case e.Step == journal.StepRun && e.Kind == journal.KindFail:
			r.Status = "failed"
			r.Duration = e.Duration
		case e.Kind == journal.KindFail:
			r.Failed = append(r.Failed, e.Step)
		case e.Kind == journal.KindSkip:
			r.Skipped++
		case e.Kind == journal.KindWarn:
			r.Warnings++
		}
	}
	return runs
}

// RunRuns lists one line per run.
func RunRuns(path string, output io.Writer) error {
	events, err := journal.ReadAll(path, journal.Filter{})
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	for _, r := range Summarize(events) {
		line := fmt.Sprintf("%s  %s  %-7s %8s", shortID(r.RunID), r.Start.UTC().Format(time.RFC3339), r.Status, formatDuration(r.Duration))
		if r.Input != "" {
			line += "  " + r.Input
		}
		var notes []string
		if len(r.Failed) > 0 {
			notes = append(notes, "failed: "+strings.Join(r.Failed, ","))
		}
		if r.Skipped > 0 {
			notes = append(notes, fmt.Sprintf("%d skipped", r.Skipped))
		}
		if r.Warnings > 0 {
			notes = append(notes, fmt.Sprintf("%d warnings", r.Warnings))
		}
		if len(notes) > 0 {
			line += "  (" + strings.Join(notes, "; ") + ")"
		}
		fmt.Fprintln(output, line)
	}
	return nil
}
