package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/regflow/regflow-go/pkg/journal"
)

// FilterOptions holds the filter flags shared by the commands.
type FilterOptions struct {
	RunID     string
	Last      bool // only the most recent run
	Step      string
	Kind      string
	TimeStart string
	TimeEnd   string
}

// Build converts the options into a journal filter for path.
func (o FilterOptions) Build(path string) (journal.Filter, error) {
	filter := journal.Filter{
		RunID: o.RunID,
		Step:  o.Step,
	}

	if o.Last {
		if o.RunID != "" {
			return filter, fmt.Errorf("-last and -run cannot be combined")
		}
		id, err := journal.LastRunID(path)
		if err != nil {
			return filter, fmt.Errorf("failed to read journal: %w", err)
		}
		if id == "" {
			return filter, fmt.Errorf("journal %s is empty", path)
		}
		filter.RunID = id
	}

	if o.Kind != "" {
		k, err := journal.ParseKind(o.Kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = &k
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunFilter writes the events of path matching opts to output.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Build(path)
	if err != nil {
		return err
	}

	reader, err := journal.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	logger, err := journal.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output journal: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
