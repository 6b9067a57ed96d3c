package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExtension is the file extension of journal files.
const DefaultExtension = ".rlog"

// Step names used by the pipeline. Generator steps use the target name.
const (
	StepRun      = "run"
	StepLoad     = "load"
	StepValidate = "validate"
	StepRender   = "render"
)

// Event is one journal entry.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID groups the events of one pipeline run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Step is the pipeline step, e.g. "load" or "regblock".
	Step string `cbor:"3,keyasint"`

	Kind Kind `cbor:"4,keyasint"`

	// Target is the generator target for generator steps.
	Target string `cbor:"5,keyasint,omitempty"`

	// Duration of the step, set on finish and fail events.
	Duration time.Duration `cbor:"6,keyasint,omitempty"`

	Message string `cbor:"7,keyasint,omitempty"`
	Error   string `cbor:"8,keyasint,omitempty"`

	// Artifacts lists the files the step produced.
	Artifacts []string `cbor:"9,keyasint,omitempty"`

	// Fingerprint of the rendered RDL the step consumed.
	Fingerprint string `cbor:"10,keyasint,omitempty"`
}

// Kind classifies an event.
type Kind uint8

const (
	KindStart  Kind = 0
	KindFinish Kind = 1
	KindSkip   Kind = 2
	KindFail   Kind = 3
	KindWarn   Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "START"
	case KindFinish:
		return "FINISH"
	case KindSkip:
		return "SKIP"
	case KindFail:
		return "FAIL"
	case KindWarn:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// ParseKind converts a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(s) {
	case "START":
		return KindStart, nil
	case "FINISH":
		return KindFinish, nil
	case "SKIP":
		return KindSkip, nil
	case "FAIL":
		return KindFail, nil
	case "WARN":
		return KindWarn, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}
