package pipeline

import (
	"time"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// Status is the outcome of a step.
type Status string

// Step outcomes.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry-run"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name      string
	Status    Status
	Duration  time.Duration
	Artifacts []string
	Message   string
	Err       error
}

// Report summarizes a run.
type Report struct {
	RunID       string
	Input       string
	RDL         string
	Fingerprint string
	Counts      regmap.Counts
	Validation  *regmap.Result
	Steps       []StepResult
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Step returns the result of the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
