package peakrdl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultBinary is the executable name used when Driver.Binary is empty.
const DefaultBinary = "peakrdl"

// Target selects a PeakRDL output kind.
type Target uint8

// Targets in workflow order.
const (
	TargetRegblock Target = iota
	TargetUVM
	TargetHTML
)

// AllTargets lists every target in workflow order.
var AllTargets = []Target{TargetRegblock, TargetUVM, TargetHTML}

// String returns the PeakRDL subcommand for the target.
func (t Target) String() string {
	switch t {
	case TargetRegblock:
		return "regblock"
	case TargetUVM:
		return "uvm"
	case TargetHTML:
		return "html"
	default:
		return fmt.Sprintf("target(%d)", t)
	}
}

// ParseTarget converts a target name or alias.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regblock", "rtl":
		return TargetRegblock, nil
	case "uvm":
		return TargetUVM, nil
	case "html", "docs":
		return TargetHTML, nil
	default:
		return 0, fmt.Errorf("unknown target %q (want rtl, uvm or html)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(text []byte) error {
	v, err := ParseTarget(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// RegblockOptions are passed to the regblock exporter.
type RegblockOptions struct {
	CPUIF       string // e.g. apb4-flat, axi4-lite
	ModuleName  string
	PackageName string
}

// Driver builds and runs PeakRDL commands.
type Driver struct {
	Executor Executor
	Binary   string // defaults to DefaultBinary
	Dir      string // working directory for every command
}

// NewDriver returns a Driver that runs real processes.
func NewDriver() *Driver {
	return &Driver{Executor: ExecExecutor{}, Binary: DefaultBinary}
}

func (d *Driver) binary() string {
	if d.Binary == "" {
		return DefaultBinary
	}
	return d.Binary
}

func (d *Driver) executor() Executor {
	if d.Executor == nil {
		return ExecExecutor{}
	}
	return d.Executor
}

// Command returns the full argv for target without running it.
func (d *Driver) Command(target Target, rdl, outDir string, opts RegblockOptions) ([]string, error) {
	var args []string
	switch target {
	case TargetRegblock:
		args = []string{"regblock", rdl, "-o", outDir}
		if opts.CPUIF != "" {
			args = append(args, "--cpuif", opts.CPUIF)
		}
		if opts.ModuleName != "" {
			args = append(args, "--module-name", opts.ModuleName)
		}
		if opts.PackageName != "" {
			args = append(args, "--package-name", opts.PackageName)
		}
	case TargetUVM:
		args = []string{"uvm", rdl, "-o", UVMPackagePath(rdl, outDir)}
	case TargetHTML:
		args = []string{"html", rdl, "-o", outDir}
	default:
		return nil, fmt.Errorf("unknown target %s", target)
	}
	return append([]string{d.binary()}, args...), nil
}

// UVMPackagePath returns the file the uvm exporter writes for rdl.
func UVMPackagePath(rdl, outDir string) string {
	top := strings.TrimSuffix(filepath.Base(rdl), filepath.Ext(rdl))
	return filepath.Join(outDir, top+"_uvm_pkg.sv")
}

// Generate runs the exporter for target.
func (d *Driver) Generate(ctx context.Context, target Target, rdl, outDir string, opts RegblockOptions) (Output, error) {
	argv, err := d.Command(target, rdl, outDir, opts)
	if err != nil {
		return Output{}, err
	}
	return d.executor().Run(ctx, d.Dir, argv[0], argv[1:]...)
}

// Regblock generates synthesizable RTL into outDir.
func (d *Driver) Regblock(ctx context.Context, rdl, outDir string, opts RegblockOptions) (Output, error) {
	return d.Generate(ctx, TargetRegblock, rdl, outDir, opts)
}

// UVM generates a UVM register model package into outDir.
func (d *Driver) UVM(ctx context.Context, rdl, outDir string) (Output, error) {
	return d.Generate(ctx, TargetUVM, rdl, outDir, RegblockOptions{})
}

// HTML generates browsable documentation into outDir.
func (d *Driver) HTML(ctx context.Context, rdl, outDir string) (Output, error) {
	return d.Generate(ctx, TargetHTML, rdl, outDir, RegblockOptions{})
}

// Version reports the installed tool version. It fails with
// ErrToolNotFound when the binary is missing.
func (d *Driver) Version(ctx context.Context) (string, error) {
	out, err := d.executor().Run(ctx, d.Dir, d.binary(), "--version")
	if err != nil {
		return "", err
	}
	return firstLine(out.Stdout), nil
}
