package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regflow/regflow-go/pkg/peakrdl"
)

// isolate runs the test in an empty working directory with an empty home.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", filepath.Join(dir, "home"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	want := Defaults()
	assert.Equal(t, want.RDL, cfg.RDL)
	assert.Equal(t, "peakrdl", cfg.PeakRDL.Binary)
	assert.Equal(t, DefaultTargets(), cfg.Targets)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Empty(t, cfg.File)
}

func TestLoad_ProjectFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(FileName, []byte(`
input: regs/chip.xlsx
top: soc
targets:
  - target: rtl
    output: build/rtl
    cpuif: axi4-lite
continue_on_error: true
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, FileName, cfg.File)
	assert.Equal(t, filepath.Join("regs", "chip.xlsx"), cfg.Input)
	assert.Equal(t, "soc", cfg.Top)
	assert.True(t, cfg.ContinueOnError)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "axi4-lite", cfg.Targets[0].CPUIF)

	pc, err := cfg.Pipeline()
	require.NoError(t, err)
	require.Len(t, pc.Targets, 1)
	assert.Equal(t, peakrdl.TargetRegblock, pc.Targets[0].Target)
	assert.Equal(t, "axi4-lite", pc.Targets[0].Options.CPUIF)
}

func TestLoad_ExplicitFileResolvesRelativePaths(t *testing.T) {
	isolate(t)
	other := t.TempDir()
	path := filepath.Join(other, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: regs.yaml\nstate: /abs/state.json\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(other, "regs.yaml"), cfg.Input)
	assert.Equal(t, filepath.Join(other, "generated_registers.rdl"), cfg.RDL)
	assert.Equal(t, "/abs/state.json", cfg.State)
	assert.Equal(t, filepath.Join(other, "output_uvm"), cfg.Targets[1].Output)
}

func TestLoad_UserConfig(t *testing.T) {
	dir := isolate(t)
	userDir := filepath.Join(dir, "home", ".config", "regflow")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte("peakrdl:\n  binary: /opt/peakrdl\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/peakrdl", cfg.PeakRDL.Binary)
	assert.Equal(t, "/opt/peakrdl", cfg.Driver().Binary)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("REGFLOW_TOP", "chip_top")
	t.Setenv("REGFLOW_PEAKRDL_BINARY", "peakrdl-dev")
	t.Setenv("REGFLOW_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "chip_top", cfg.Top)
	assert.Equal(t, "peakrdl-dev", cfg.PeakRDL.Binary)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("targets: [\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestPipeline_Errors(t *testing.T) {
	cfg := Defaults()
	_, err := cfg.Pipeline()
	assert.Error(t, err, "no input")

	cfg.Input = "regs.xlsx"
	cfg.Targets = append(cfg.Targets, TargetConfig{Target: "verilog", Output: "x"})
	_, err = cfg.Pipeline()
	assert.Error(t, err)
}

func TestWriteDefaultConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join("sub", FileName)

	require.NoError(t, WriteDefaultConfig(path))
	assert.Error(t, WriteDefaultConfig(path), "refuses to overwrite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("sub", "registers.xlsx"), cfg.Input)
	assert.Len(t, cfg.Targets, 3)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)

	pc, err := cfg.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, peakrdl.TargetHTML, pc.Targets[2].Target)
}
