// Package config provides configuration types, defaults and loading for regflow.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/regflow/regflow-go/pkg/peakrdl"
	"github.com/regflow/regflow-go/pkg/pipeline"
	"github.com/regflow/regflow-go/pkg/rdl"
)

// FileName is the project config file looked up in the working directory.
const FileName = "regflow.yaml"

// EnvPrefix prefixes environment overrides, e.g. REGFLOW_PEAKRDL_BINARY.
const EnvPrefix = "REGFLOW"

// TargetConfig configures one generator target.
type TargetConfig struct {
	Target      string `mapstructure:"target"` // rtl, uvm or html
	Output      string `mapstructure:"output"`
	CPUIF       string `mapstructure:"cpuif"`
	ModuleName  string `mapstructure:"module_name"`
	PackageName string `mapstructure:"package_name"`
}

// PeakRDLConfig locates the external tool.
type PeakRDLConfig struct {
	Binary string `mapstructure:"binary"`
	Dir    string `mapstructure:"dir"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// WatchConfig configures regflow watch.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config holds all configuration options for regflow.
type Config struct {
	Input           string         `mapstructure:"input"`
	RDL             string         `mapstructure:"rdl"`
	Top             string         `mapstructure:"top"`
	PeakRDL         PeakRDLConfig  `mapstructure:"peakrdl"`
	Targets         []TargetConfig `mapstructure:"targets"`
	ContinueOnError bool           `mapstructure:"continue_on_error"`
	Journal         string         `mapstructure:"journal"`
	State           string         `mapstructure:"state"`
	Log             LogConfig      `mapstructure:"log"`
	Watch           WatchConfig    `mapstructure:"watch"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// DefaultTargets returns the three generator targets in workflow order.
func DefaultTargets() []TargetConfig {
	return []TargetConfig{
		{Target: "rtl", Output: "output"},
		{Target: "uvm", Output: "output_uvm"},
		{Target: "html", Output: "output_html"},
	}
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		RDL:     rdl.DefaultOutput,
		PeakRDL: PeakRDLConfig{Binary: peakrdl.DefaultBinary},
		Targets: DefaultTargets(),
		Journal: ".regflow/journal.rlog",
		State:   ".regflow/state.json",
		Log:     LogConfig{Level: "info", Format: "text"},
		Watch:   WatchConfig{Debounce: 300 * time.Millisecond},
	}
}

// Load reads configuration. An explicit path must exist. Otherwise the
// lookup order is ./regflow.yaml, then ~/.config/regflow/config.yaml, and
// missing files fall back to defaults. REGFLOW_* environment variables
// override file values.
func Load(path string) (Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("rdl", d.RDL)
	v.SetDefault("peakrdl.binary", d.PeakRDL.Binary)
	v.SetDefault("peakrdl.dir", d.PeakRDL.Dir)
	v.SetDefault("input", d.Input)
	v.SetDefault("top", d.Top)
	v.SetDefault("continue_on_error", d.ContinueOnError)
	v.SetDefault("journal", d.Journal)
	v.SetDefault("state", d.State)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("watch.debounce", d.Watch.Debounce)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(FileName); err == nil {
		v.SetConfigFile(FileName)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "regflow"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}
	cfg.File = v.ConfigFileUsed()
	if cfg.File != "" {
		cfg.resolve(filepath.Dir(cfg.File))
	}
	return cfg, nil
}

// resolve makes relative paths relative to the config file's directory.
func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Input = abs(c.Input)
	c.RDL = abs(c.RDL)
	c.Journal = abs(c.Journal)
	c.State = abs(c.State)
	c.PeakRDL.Dir = abs(c.PeakRDL.Dir)
	for i := range c.Targets {
		c.Targets[i].Output = abs(c.Targets[i].Output)
	}
}

// Pipeline converts the config into a pipeline run configuration.
func (c Config) Pipeline() (pipeline.Config, error) {
	pc := pipeline.Config{
		Input:           c.Input,
		RDL:             c.RDL,
		Top:             c.Top,
		ContinueOnError: c.ContinueOnError,
	}
	for _, t := range c.Targets {
		target, err := peakrdl.ParseTarget(t.Target)
		if err != nil {
			return pipeline.Config{}, err
		}
		pc.Targets = append(pc.Targets, pipeline.TargetConfig{
			Target: target,
			Output: t.Output,
			Options: peakrdl.RegblockOptions{
				CPUIF:       t.CPUIF,
				ModuleName:  t.ModuleName,
				PackageName: t.PackageName,
			},
		})
	}
	return pc, pc.Validate()
}

// Driver returns a PeakRDL driver for the configured binary.
func (c Config) Driver() *peakrdl.Driver {
	d := peakrdl.NewDriver()
	if c.PeakRDL.Binary != "" {
		d.Binary = c.PeakRDL.Binary
	}
	d.Dir = c.PeakRDL.Dir
	return d
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# regflow configuration

# Register source (.xlsx or .yaml).
input: registers.xlsx

# Rendered SystemRDL file.
rdl: generated_registers.rdl

# Optional top-level addrmap instantiating every block.
# top: soc

peakrdl:
  binary: peakrdl

# Generators run in this order.
targets:
  - target: rtl
    output: output
    # cpuif: apb4-flat
  - target: uvm
    output: output_uvm
  - target: html
    output: output_html

continue_on_error: false

journal: .regflow/journal.rlog
state: .regflow/state.json

log:
  level: info
  format: text

watch:
  debounce: 300ms
`
}

// WriteDefaultConfig writes the default config template to path.
func WriteDefaultConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
