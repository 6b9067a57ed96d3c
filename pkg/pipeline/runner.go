package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/regflow/regflow-go/pkg/journal"
	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/persistence"
	"github.com/regflow/regflow-go/pkg/rdl"
	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/source"
)

// Runner executes pipeline runs.
type Runner struct {
	Driver  *peakrdl.Driver
	Journal journal.Logger
	State   *persistence.StateStore // nil disables incremental skipping
	Logger  *slog.Logger
}

// NewRunner returns a Runner with a real PeakRDL driver.
func NewRunner() *Runner {
	return &Runner{Driver: peakrdl.NewDriver()}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) journal() journal.Logger {
	if r.Journal == nil {
		return journal.NoopLogger{}
	}
	return r.Journal
}

func (r *Runner) driver() *peakrdl.Driver {
	if r.Driver == nil {
		return peakrdl.NewDriver()
	}
	return r.Driver
}

// run carries the per-run state shared by the steps.
type run struct {
	*Runner
	cfg    Config
	report *Report
	state  *persistence.State
}

func (x *run) emit(e journal.Event) {
	e.Timestamp = time.Now()
	e.RunID = x.report.RunID
	x.journal().Log(e)
}

// step records start, then finish or fail, around fn.
func (x *run) step(name, target string, fn func() ([]string, error)) error {
	x.emit(journal.Event{Step: name, Kind: journal.KindStart, Target: target})
	start := time.Now()

	artifacts, err := fn()
	res := StepResult{Name: name, Duration: time.Since(start), Artifacts: artifacts}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		x.emit(journal.Event{
			Step: name, Kind: journal.KindFail, Target: target,
			Duration: res.Duration, Error: err.Error(), Fingerprint: x.report.Fingerprint,
		})
		x.logger().Error("step failed", "step", name, "error", err)
	} else {
		res.Status = StatusOK
		x.emit(journal.Event{
			Step: name, Kind: journal.KindFinish, Target: target,
			Duration: res.Duration, Artifacts: artifacts, Fingerprint: x.report.Fingerprint,
		})
		x.logger().Info("step finished", "step", name, "duration", res.Duration)
	}
	x.report.Steps = append(x.report.Steps, res)
	return err
}

// Run executes cfg. The returned report is non-nil whenever the run got past
// config validation, including failed runs.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	x := &run{
		Runner: r,
		cfg:    cfg,
		report: &Report{RunID: journal.NewRunID(), Input: cfg.Input, RDL: cfg.RDL},
	}

	x.emit(journal.Event{Step: journal.StepRun, Kind: journal.KindStart, Message: cfg.Input})
	start := time.Now()

	err := x.execute(ctx)

	end := journal.Event{Step: journal.StepRun, Kind: journal.KindFinish, Duration: time.Since(start)}
	if err != nil {
		end.Kind = journal.KindFail
		end.Error = err.Error()
	}
	x.emit(end)

	return x.report, err
}

func (x *run) execute(ctx context.Context) error {
	var m *regmap.Map
	err := x.step(journal.StepLoad, "", func() ([]string, error) {
		loaded, err := source.Load(x.cfg.Input, x.logger())
		if err != nil {
			return nil, err
		}
		for _, o := range loaded.Orphans {
			x.emit(journal.Event{
				Step: journal.StepLoad, Kind: journal.KindWarn,
				Message: fmt.Sprintf("%s row %d: %s", o.Sheet, o.Row, o.Reason),
			})
		}
		m = loaded.Map
		x.report.Counts = m.Counts()
		return nil, nil
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err = x.step(journal.StepValidate, "", func() ([]string, error) {
		res := regmap.Validate(m)
		x.report.Validation = res
		for _, w := range res.Warnings {
			x.emit(journal.Event{Step: journal.StepValidate, Kind: journal.KindWarn, Message: w.Error()})
			x.logger().Warn("validation warning", "code", w.Code, "path", w.Path, "msg", w.Message)
		}
		if !res.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMap, res.Summary())
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err = x.step(journal.StepRender, "", func() ([]string, error) {
		content, err := rdl.Render(m, rdl.Options{
			Top:    x.cfg.Top,
			Header: fmt.Sprintf("Generated by regflow from %s. Do not edit.", filepath.Base(x.cfg.Input)),
		})
		if err != nil {
			return nil, err
		}
		x.report.Fingerprint = Fingerprint(content)
		if x.cfg.DryRun {
			return nil, nil
		}
		if err := rdl.WriteFile(x.cfg.RDL, content); err != nil {
			return nil, err
		}
		return []string{x.cfg.RDL}, nil
	})
	if err != nil {
		return err
	}

	return x.generate(ctx)
}

func (x *run) generate(ctx context.Context) error {
	if len(x.cfg.Targets) == 0 {
		return nil
	}

	if x.State != nil {
		st, err := x.State.Load()
		if err != nil {
			x.logger().Warn("ignoring unreadable state", "path", x.State.Path(), "error", err)
		}
		x.state = st
	}
	if x.state == nil || x.state.Input != x.cfg.Input {
		x.state = &persistence.State{Input: x.cfg.Input}
	}

	drv := x.driver()
	binary := drv.Binary
	if binary == "" {
		binary = peakrdl.DefaultBinary
	}

	failed := 0
	for _, tc := range x.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := tc.Target.String()
		output := artifactPath(tc, x.cfg.RDL)
		optsHash := OptionsHash(binary, tc)

		if !x.cfg.Force && x.state.UpToDate(name, x.report.Fingerprint, optsHash, output) {
			x.emit(journal.Event{
				Step: name, Kind: journal.KindSkip, Target: name,
				Message: "up to date", Fingerprint: x.report.Fingerprint,
			})
			x.logger().Info("target up to date", "target", name)
			x.report.Steps = append(x.report.Steps, StepResult{Name: name, Status: StatusSkipped, Message: "up to date"})
			continue
		}

		if x.cfg.DryRun {
			argv, err := drv.Command(tc.Target, x.cfg.RDL, tc.Output, tc.Options)
			if err != nil {
				return err
			}
			x.report.Steps = append(x.report.Steps, StepResult{
				Name: name, Status: StatusDryRun, Message: strings.Join(argv, " "),
			})
			continue
		}

		err := x.step(name, name, func() ([]string, error) {
			out, err := drv.Generate(ctx, tc.Target, x.cfg.RDL, tc.Output, tc.Options)
			if out.Stdout != "" {
				x.logger().Debug("generator output", "target", name, "stdout", out.Stdout)
			}
			if err != nil {
				return nil, err
			}
			return []string{output}, nil
		})
		if err != nil {
			failed++
			if !x.cfg.ContinueOnError {
				return fmt.Errorf("%s: %w", name, err)
			}
			continue
		}

		x.state.RunID = x.report.RunID
		x.state.SetTarget(name, persistence.TargetState{
			Fingerprint: x.report.Fingerprint,
			OptionsHash: optsHash,
			Output:      output,
			CompletedAt: time.Now(),
		})
		if x.State != nil {
			if err := x.State.Save(x.state); err != nil {
				x.logger().Warn("saving state failed", "path", x.State.Path(), "error", err)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTargetsFailed, failed, len(x.cfg.Targets))
	}
	return nil
}

// artifactPath is the path a target's freshness is judged by.
func artifactPath(tc TargetConfig, rdlPath string) string {
	if tc.Target == peakrdl.TargetUVM {
		return peakrdl.UVMPackagePath(rdlPath, tc.Output)
	}
	return tc.Output
}
