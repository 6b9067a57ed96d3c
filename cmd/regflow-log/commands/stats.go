package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/regflow/regflow-go/pkg/journal"
)

// Stats holds aggregate statistics about a journal.
type Stats struct {
	TotalEvents  int
	EventsByKind map[journal.Kind]int
	Steps        map[string]*StepStats
	Runs         []*RunSummary
	TimeRange    struct {
		Start time.Time
		End   time.Time
	}
}

// StepStats holds statistics for a single step or target.
type StepStats struct {
	Finished int
	Failed   int
	Skipped  int
	Total    time.Duration // sum of finish durations
	Max      time.Duration
}

// Average returns the mean duration of finished executions.
func (s *StepStats) Average() time.Duration {
	if s.Finished == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Finished)
}

// Collect computes statistics for events.
func Collect(events []journal.Event) *Stats {
	stats := &Stats{
		EventsByKind: make(map[journal.Kind]int),
		Steps:        make(map[string]*StepStats),
	}

	for _, event := range events {
		stats.TotalEvents++
		stats.EventsByKind[event.Kind]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Step == journal.StepRun {
			continue
		}
		s, ok := stats.Steps[event.Step]
		if !ok {
			s = &StepStats{}
			stats.Steps[event.Step] = s
		}
		switch event.Kind {
		case journal.KindFinish:
			s.Finished++
			s.Total += event.Duration
			if event.Duration > s.Max {
				s.Max = event.Duration
			}
		case journal.KindFail:
			s.Failed++
		case journal.KindSkip:
			s.Skipped++
		}
	}

	stats.Runs = Summarize(events)
	return stats
}

// RunStats analyzes the journal and prints statistics.
func RunStats(path string, w io.Writer) error {
	events, err := journal.ReadAll(path, journal.Filter{})
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	printStats(w, Collect(events))
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== regflow Journal Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by kind
	fmt.Fprintln(w, "Events by Kind:")
	for _, kind := range []journal.Kind{journal.KindStart, journal.KindFinish, journal.KindSkip, journal.KindFail, journal.KindWarn} {
		if count := stats.EventsByKind[kind]; count > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", kind.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Runs
	ok, failed := 0, 0
	for _, r := range stats.Runs {
		switch r.Status {
		case "ok":
			ok++
		case "failed":
			failed++
		}
	}
	fmt.Fprintf(w, "Runs: %d (%d ok, %d failed)\n", len(stats.Runs), ok, failed)

	// Steps
	if len(stats.Steps) > 0 {
		names := make([]string, 0, len(stats.Steps))
		for name := range stats.Steps {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Steps:")
		for _, name := range names {
			s := stats.Steps[name]
			fmt.Fprintf(w, "  %-10s %d ok, %d failed, %d skipped", name, s.Finished, s.Failed, s.Skipped)
			if s.Finished > 0 {
				fmt.Fprintf(w, ", avg %s, max %s", formatDuration(s.Average()), formatDuration(s.Max))
			}
			fmt.Fprintln(w)
		}
	}

	if failures := stats.EventsByKind[journal.KindFail]; failures > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failures: %d\n", failures)
	}
}
