package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/regflow/regflow-go/pkg/journal"
)

// ExportRecord is the JSON form of an event.
type ExportRecord struct {
	Timestamp   string   `json:"timestamp"`
	RunID       string   `json:"run_id"`
	Step        string   `json:"step"`
	Kind        string   `json:"kind"`
	Target      string   `json:"target,omitempty"`
	DurationMS  float64  `json:"duration_ms,omitempty"`
	Message     string   `json:"message,omitempty"`
	Error       string   `json:"error,omitempty"`
	Artifacts   []string `json:"artifacts,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

func toRecord(e journal.Event) ExportRecord {
	return ExportRecord{
		Timestamp:   e.Timestamp.UTC().Format(timeLayout),
		RunID:       e.RunID,
		Step:        e.Step,
		Kind:        strings.ToLower(e.Kind.String()),
		Target:      e.Target,
		DurationMS:  float64(e.Duration.Microseconds()) / 1000,
		Message:     e.Message,
		Error:       e.Error,
		Artifacts:   e.Artifacts,
		Fingerprint: e.Fingerprint,
	}
}

// RunExport exports the journal to the specified format.
func RunExport(path, format, output string, opts FilterOptions, stdout io.Writer) (err error) {
	filter, err := opts.Build(path)
	if err != nil {
		return err
	}

	reader, err := journal.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	w := stdout
	if output != "" {
		f, cerr := os.Create(output)
		if cerr != nil {
			return fmt.Errorf("failed to create output file: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *journal.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *journal.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "run_id", "step", "kind", "target", "duration_ms", "message", "error", "artifacts", "fingerprint"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		r := toRecord(event)
		row := []string{
			r.Timestamp,
			r.RunID,
			r.Step,
			r.Kind,
			r.Target,
			strconv.FormatFloat(r.DurationMS, 'f', 3, 64),
			r.Message,
			r.Error,
			strings.Join(r.Artifacts, ";"),
			r.Fingerprint,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
