package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportToJSONL(t *testing.T) {
	path := createTestJournal(t, twoRuns())

	var buf bytes.Buffer
	if err := RunExport(path, "jsonl", "", FilterOptions{RunID: runA}, &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}

	var rec ExportRecord
	if err := json.Unmarshal([]byte(lines[3]), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec.Step != "regblock" || rec.Kind != "finish" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.DurationMS != 2000 {
		t.Errorf("DurationMS = %v, want 2000", rec.DurationMS)
	}
	if len(rec.Artifacts) != 1 || rec.Artifacts[0] != "output" {
		t.Errorf("Artifacts = %v", rec.Artifacts)
	}
	if rec.Timestamp != "2026-03-02T09:00:02.000000Z" {
		t.Errorf("Timestamp = %q", rec.Timestamp)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestJournal(t, twoRuns())
	out := filepath.Join(t.TempDir(), "runs.csv")

	if err := RunExport(path, "csv", out, FilterOptions{Step: "uvm"}, nil); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(records))
	}
	if records[0][0] != "timestamp" || records[0][3] != "kind" {
		t.Errorf("unexpected header: %v", records[0])
	}
	row := records[1]
	if row[2] != "uvm" || row[3] != "fail" || row[7] != "peakrdl not found" {
		t.Errorf("unexpected row: %v", row)
	}
	if row[5] != "0.500" {
		t.Errorf("duration_ms = %q, want 0.500", row[5])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestJournal(t, twoRuns())

	var buf bytes.Buffer
	err := RunExport(path, "xml", "", FilterOptions{}, &buf)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

// failingWriter accepts nothing.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExportCSVReportsFlushError(t *testing.T) {
	path := createTestJournal(t, twoRuns())

	err := RunExport(path, "csv", "", FilterOptions{}, failingWriter{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected the write failure to surface, got %v", err)
	}
}
