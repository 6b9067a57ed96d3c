package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/regflow/regflow-go/pkg/journal"
)

func createTestJournal(t *testing.T, events []journal.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.rlog")

	logger, err := journal.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

const (
	runA = "aaaaaaaa-1111-4111-8111-111111111111"
	runB = "bbbbbbbb-2222-4222-8222-222222222222"
)

// twoRuns returns a successful run followed by one where uvm failed.
func twoRuns() []journal.Event {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	at := func(s int) time.Time { return ts.Add(time.Duration(s) * time.Second) }
	return []journal.Event{
		{Timestamp: at(0), RunID: runA, Step: journal.StepRun, Kind: journal.KindStart, Message: "regs.xlsx"},
		{Timestamp: at(1), RunID: runA, Step: journal.StepLoad, Kind: journal.KindFinish, Duration: 20 * time.Millisecond},
		{Timestamp: at(1), RunID: runA, Step: journal.StepLoad, Kind: journal.KindWarn, Message: "Fields row 9: register UNKNOWN not found"},
		{Timestamp: at(2), RunID: runA, Step: "regblock", Kind: journal.KindFinish, Target: "regblock", Duration: 2 * time.Second,
			Artifacts: []string{"output"}, Fingerprint: "0123456789abcdef0123456789abcdef"},
		{Timestamp: at(3), RunID: runA, Step: journal.StepRun, Kind: journal.KindFinish, Duration: 3 * time.Second},

		{Timestamp: at(60), RunID: runB, Step: journal.StepRun, Kind: journal.KindStart, Message: "regs.xlsx"},
		{Timestamp: at(61), RunID: runB, Step: "regblock", Kind: journal.KindSkip, Target: "regblock", Message: "up to date"},
		{Timestamp: at(62), RunID: runB, Step: "uvm", Kind: journal.KindFail, Target: "uvm", Duration: 500 * time.Microsecond,
			Error: "peakrdl not found"},
		{Timestamp: at(62), RunID: runB, Step: journal.StepRun, Kind: journal.KindFail, Duration: 2 * time.Second, Error: "uvm: peakrdl not found"},
	}
}
