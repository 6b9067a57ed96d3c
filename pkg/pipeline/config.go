// Package pipeline runs the register workflow end to end: load the source,
// validate it, render SystemRDL and drive the PeakRDL generators.
package pipeline

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/regflow/regflow-go/pkg/peakrdl"
)

var (
	// ErrInvalidMap indicates validation found errors in the register map.
	ErrInvalidMap = errors.New("register map has errors")

	// ErrTargetsFailed indicates one or more generator targets failed.
	ErrTargetsFailed = errors.New("generator targets failed")
)

// TargetConfig describes one generator invocation.
type TargetConfig struct {
	Target  peakrdl.Target
	Output  string
	Options peakrdl.RegblockOptions
}

// Config describes one run.
type Config struct {
	Input   string // .xlsx or .yaml register source
	RDL     string // rendered SystemRDL path
	Top     string // optional top-level addrmap
	Targets []TargetConfig

	// ContinueOnError runs remaining targets after a failure.
	ContinueOnError bool

	// Force regenerates targets even when they are up to date.
	Force bool

	// DryRun loads, validates and renders but writes nothing and only
	// reports the generator commands.
	DryRun bool
}

// Validate checks the config for missing or conflicting values.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("no input file configured")
	}
	if c.RDL == "" {
		return errors.New("no rdl output configured")
	}
	seen := make(map[peakrdl.Target]bool)
	for _, t := range c.Targets {
		if seen[t.Target] {
			return fmt.Errorf("target %s listed twice", t.Target)
		}
		seen[t.Target] = true
		if t.Output == "" {
			return fmt.Errorf("target %s has no output", t.Target)
		}
	}
	return nil
}

// Fingerprint returns the hex blake2b-256 digest of content.
func Fingerprint(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// OptionsHash digests every generator argument besides the RDL content.
func OptionsHash(binary string, t TargetConfig) string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		binary, t.Target, t.Output, t.Options.CPUIF, t.Options.ModuleName, t.Options.PackageName)))
	return hex.EncodeToString(sum[:8])
}
