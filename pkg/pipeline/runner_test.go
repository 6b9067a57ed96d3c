package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/regflow/regflow-go/pkg/journal"
	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/persistence"
	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/regspec"
	"github.com/regflow/regflow-go/pkg/sheet"
)

type stubExecutor struct{ mock.Mock }

func (s *stubExecutor) Run(ctx context.Context, dir, name string, args ...string) (peakrdl.Output, error) {
	called := s.Called(name, args)
	return called.Get(0).(peakrdl.Output), called.Error(1)
}

// produce makes the stub create the -o path like the real tool would.
func produce(args mock.Arguments) {
	argv := args.Get(1).([]string)
	for i, a := range argv {
		if a == "-o" && i+1 < len(argv) {
			out := argv[i+1]
			if filepath.Ext(out) == ".sv" {
				_ = os.MkdirAll(filepath.Dir(out), 0o755)
				_ = os.WriteFile(out, []byte("package x;"), 0o644)
			} else {
				_ = os.MkdirAll(out, 0o755)
			}
		}
	}
}

type recorder struct {
	events []journal.Event
}

func (r *recorder) Log(e journal.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds(step string) []journal.Kind {
	var out []journal.Kind
	for _, e := range r.events {
		if e.Step == step {
			out = append(out, e.Kind)
		}
	}
	return out
}

type fixture struct {
	dir   string
	cfg   Config
	exe   *stubExecutor
	rec   *recorder
	store *persistence.StateStore
}

func (f *fixture) runner() *Runner {
	return &Runner{
		Driver:  &peakrdl.Driver{Executor: f.exe},
		Journal: f.rec,
		State:   f.store,
	}
}

func newFixture(t *testing.T, m *regmap.Map) *fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "regs.yaml")
	require.NoError(t, regspec.Save(input, m))

	return &fixture{
		dir: dir,
		cfg: Config{
			Input: input,
			RDL:   filepath.Join(dir, "regs.rdl"),
			Targets: []TargetConfig{
				{Target: peakrdl.TargetRegblock, Output: filepath.Join(dir, "output"), Options: peakrdl.RegblockOptions{CPUIF: "apb4-flat"}},
				{Target: peakrdl.TargetUVM, Output: filepath.Join(dir, "output_uvm")},
				{Target: peakrdl.TargetHTML, Output: filepath.Join(dir, "output_html")},
			},
		},
		exe:   &stubExecutor{},
		rec:   &recorder{},
		store: persistence.NewStateStore(filepath.Join(dir, ".regflow", "state.json")),
	}
}

func TestRun_AllTargets(t *testing.T) {
	f := newFixture(t, sheet.ExampleMap())
	f.exe.On("Run", "peakrdl", mock.Anything).Return(peakrdl.Output{}, nil).Run(produce)

	report, err := f.runner().Run(context.Background(), f.cfg)
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.Fingerprint, 64)
	assert.Equal(t, regmap.Counts{Blocks: 1, Registers: 3, Fields: 6}, report.Counts)
	f.exe.AssertNumberOfCalls(t, "Run", 3)

	data, err := os.ReadFile(f.cfg.RDL)
	require.NoError(t, err)
	assert.Equal(t, report.Fingerprint, Fingerprint(string(data)))
	assert.Contains(t, string(data), "addrmap UART {")

	uvm, ok := report.Step("uvm")
	require.True(t, ok)
	assert.Equal(t, StatusOK, uvm.Status)
	assert.Equal(t, []string{filepath.Join(f.dir, "output_uvm", "regs_uvm_pkg.sv")}, uvm.Artifacts)

	assert.Equal(t, []journal.Kind{journal.KindStart, journal.KindFinish}, f.rec.kinds("regblock"))
	assert.Equal(t, []journal.Kind{journal.KindStart, journal.KindFinish}, f.rec.kinds(journal.StepRun))
	for _, e := range f.rec.events {
		assert.Equal(t, report.RunID, e.RunID)
	}

	state, err := f.store.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.Targets, 3)
	assert.Equal(t, report.RunID, state.RunID)
}

func TestRun_SkipsUpToDateTargets(t *testing.T) {
	f := newFixture(t, sheet.ExampleMap())
	f.exe.On("Run", "peakrdl", mock.Anything).Return(peakrdl.Output{}, nil).Run(produce)

	_, err := f.runner().Run(context.Background(), f.cfg)
	require.NoError(t, err)

	report, err := f.runner().Run(context.Background(), f.cfg)
	require.NoError(t, err)
	f.exe.AssertNumberOfCalls(t, "Run", 3)
	for _, name := range []string{"regblock", "uvm", "html"} {
		s, ok := report.Step(name)
		require.True(t, ok, name)
		assert.Equal(t, StatusSkipped, s.Status, name)
	}
	assert.Contains(t, f.rec.kinds("html"), journal.KindSkip)

	// A changed option regenerates only that target.
	f.cfg.Targets[0].Options.CPUIF = "axi4-lite"
	_, err = f.runner().Run(context.Background(), f.cfg)
	require.NoError(t, err)
	f.exe.AssertNumberOfCalls(t, "Run", 4)

	f.cfg.Force = true
	_, err = f.runner().Run(context.Background(), f.cfg)
	require.NoError(t, err)
	f.exe.AssertNumberOfCalls(t, "Run", 7)
}

func TestRun_InvalidMap(t *testing.T) {
	m := sheet.ExampleMap()
	m.Blocks[0].Registers[0].Fields[1].LSB = 0

	f := newFixture(t, m)
	report, err := f.runner().Run(context.Background(), f.cfg)

	require.ErrorIs(t, err, ErrInvalidMap)
	require.NotNil(t, report)
	assert.True(t, report.Failed())
	assert.True(t, report.Validation.HasCode(regmap.CodeFieldOverlap))
	assert.NoFileExists(t, f.cfg.RDL)
	f.exe.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	assert.Equal(t, []journal.Kind{journal.KindStart, journal.KindFail}, f.rec.kinds(journal.StepValidate))
}

func TestRun_TargetFailureStops(t *testing.T) {
	f := newFixture(t, sheet.ExampleMap())
	boom := &peakrdl.ToolError{Tool: "peakrdl", ExitCode: 1, Stderr: "boom"}
	f.exe.On("Run", "peakrdl", mock.MatchedBy(func(a []string) bool { return a[0] == "regblock" })).Return(peakrdl.Output{}, boom)
	f.exe.On("Run", "peakrdl", mock.Anything).Return(peakrdl.Output{}, nil).Run(produce)

	report, err := f.runner().Run(context.Background(), f.cfg)
	require.Error(t, err)

	var toolErr *peakrdl.ToolError
	assert.True(t, errors.As(err, &toolErr))
	assert.True(t, report.Failed())
	f.exe.AssertNumberOfCalls(t, "Run", 1)

	state, err := f.store.Load()
	require.NoError(t, err)
	assert.Nil(t, state, "nothing succeeded so nothing is saved")
}

func TestRun_ContinueOnError(t *testing.T) {
	f := newFixture(t, sheet.ExampleMap())
	f.cfg.ContinueOnError = true
	f.exe.On("Run", "peakrdl", mock.MatchedBy(func(a []string) bool { return a[0] == "uvm" })).Return(peakrdl.Output{}, peakrdl.ErrToolNotFound)
	f.exe.On("Run", "peakrdl", mock.Anything).Return(peakrdl.Output{}, nil).Run(produce)

	report, err := f.runner().Run(context.Background(), f.cfg)
	require.ErrorIs(t, err, ErrTargetsFailed)
	f.exe.AssertNumberOfCalls(t, "Run", 3)

	html, _ := report.Step("html")
	assert.Equal(t, StatusOK, html.Status)
	uvm, _ := report.Step("uvm")
	assert.Equal(t, StatusFailed, uvm.Status)
	assert.ErrorIs(t, uvm.Err, peakrdl.ErrToolNotFound)

	state, err := f.store.Load()
	require.NoError(t, err)
	_, ok := state.Target("uvm")
	assert.False(t, ok)
	_, ok = state.Target("html")
	assert.True(t, ok)
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t, sheet.ExampleMap())
	f.cfg.DryRun = true

	report, err := f.runner().Run(context.Background(), f.cfg)
	require.NoError(t, err)

	assert.NoFileExists(t, f.cfg.RDL)
	f.exe.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	s, ok := report.Step("regblock")
	require.True(t, ok)
	assert.Equal(t, StatusDryRun, s.Status)
	assert.Contains(t, s.Message, "peakrdl regblock "+f.cfg.RDL+" -o")
	assert.Contains(t, s.Message, "--cpuif apb4-flat")
}

func TestRun_Canceled(t *testing.T) {
	f := newFixture(t, sheet.ExampleMap())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner().Run(ctx, f.cfg)
	assert.ErrorIs(t, err, context.Canceled)
	f.exe.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRun_LogsEachProblemOnce(t *testing.T) {
	m := sheet.ExampleMap()
	m.Blocks[0].Registers = append(m.Blocks[0].Registers, regmap.Register{Name: "SPARE", Offset: 0x40, Width: 32})

	f := newFixture(t, m)
	f.exe.On("Run", "peakrdl", mock.MatchedBy(func(a []string) bool { return a[0] == "regblock" })).
		Return(peakrdl.Output{}, &peakrdl.ToolError{Tool: "peakrdl", ExitCode: 2, Stderr: "bad cpuif"})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	r := f.runner()
	r.Logger = logger
	r.Journal = journal.NewMultiLogger(f.rec, journal.NewSlogAdapter(logger))

	_, err := r.Run(context.Background(), f.cfg)
	require.Error(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, regmap.CodeRegNoFields), out)
	assert.Equal(t, 1, strings.Count(out, "bad cpuif"), out)
	assert.Contains(t, f.rec.kinds(journal.StepValidate), journal.KindWarn)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no input", Config{RDL: "a.rdl"}},
		{"no rdl", Config{Input: "a.xlsx"}},
		{"duplicate target", Config{Input: "a", RDL: "b", Targets: []TargetConfig{
			{Target: peakrdl.TargetHTML, Output: "x"}, {Target: peakrdl.TargetHTML, Output: "y"},
		}}},
		{"no output", Config{Input: "a", RDL: "b", Targets: []TargetConfig{{Target: peakrdl.TargetUVM}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
			_, err := (&Runner{}).Run(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestHashes(t *testing.T) {
	assert.Equal(t, Fingerprint("a"), Fingerprint("a"))
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))

	tc := TargetConfig{Target: peakrdl.TargetRegblock, Output: "out"}
	base := OptionsHash("peakrdl", tc)
	assert.Len(t, base, 16)

	tc.Options.ModuleName = "m"
	assert.NotEqual(t, base, OptionsHash("peakrdl", tc))
	assert.NotEqual(t, base, OptionsHash("/opt/peakrdl", TargetConfig{Target: peakrdl.TargetRegblock, Output: "out"}))
}
