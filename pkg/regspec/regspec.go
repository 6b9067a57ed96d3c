// Package regspec reads and writes register maps as YAML documents.
//
// It is the text-friendly counterpart of the sheet package: a YAML file that
// mirrors the Blocks/Registers/Fields hierarchy can be kept under version
// control and fed to every regflow command in place of a workbook.
package regspec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// RawMap is the YAML document root.
type RawMap struct {
	Name   string     `yaml:"name,omitempty"`
	Blocks []RawBlock `yaml:"blocks"`
}

// RawBlock is a block entry.
type RawBlock struct {
	Name        string        `yaml:"name"`
	BaseAddress Number        `yaml:"baseAddress"`
	Size        Number        `yaml:"size,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Registers   []RawRegister `yaml:"registers,omitempty"`
}

// RawRegister is a register entry.
type RawRegister struct {
	Name        string     `yaml:"name"`
	Offset      Number     `yaml:"offset"`
	Width       int        `yaml:"width,omitempty"` // defaults to 32
	Description string     `yaml:"description,omitempty"`
	Fields      []RawField `yaml:"fields,omitempty"`
}

// RawField is a field entry.
type RawField struct {
	Name        string `yaml:"name"`
	LSB         int    `yaml:"lsb"`
	Width       int    `yaml:"width"`
	Access      string `yaml:"access"` // "rw", "ro", "wo", "w1c"
	Reset       Number `yaml:"reset,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Number is an integer that accepts every regmap.ParseNumber form in YAML
// and is written back as hex.
type Number uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	v, err := regmap.ParseNumber(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = Number(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n Number) MarshalYAML() (any, error) {
	return regmap.FormatAddress(uint64(n)), nil
}

// IsZero lets omitempty drop zero values.
func (n Number) IsZero() bool { return n == 0 }

// Parse decodes a YAML register map.
func Parse(data []byte) (*regmap.Map, error) {
	var raw RawMap
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing register map: %w", err)
	}
	if len(raw.Blocks) == 0 {
		return nil, fmt.Errorf("register map has no blocks")
	}
	return raw.ToMap(), nil
}

// Load reads and parses a YAML register map. The map name defaults to the
// sanitized file name.
func Load(path string) (*regmap.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		base := filepath.Base(path)
		m.Name = regmap.SanitizeName(base[:len(base)-len(filepath.Ext(base))])
	}
	return m, nil
}

// Marshal encodes the map as YAML.
func Marshal(m *regmap.Map) ([]byte, error) {
	data, err := yaml.Marshal(FromMap(m))
	if err != nil {
		return nil, fmt.Errorf("encoding register map: %w", err)
	}
	return data, nil
}

// Save writes the map to path as YAML.
func Save(path string, m *regmap.Map) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ToMap converts the raw document into a regmap.Map. Names are sanitized and
// fields sorted by LSB, the same as the workbook reader.
func (raw *RawMap) ToMap() *regmap.Map {
	m := &regmap.Map{Name: regmap.SanitizeName(raw.Name)}
	for _, rb := range raw.Blocks {
		b := regmap.Block{
			Name:        regmap.SanitizeName(rb.Name),
			BaseAddress: uint64(rb.BaseAddress),
			Size:        uint64(rb.Size),
			Description: rb.Description,
		}
		for _, rr := range rb.Registers {
			r := regmap.Register{
				Name:        regmap.SanitizeName(rr.Name),
				Offset:      uint64(rr.Offset),
				Width:       rr.Width,
				Description: rr.Description,
			}
			if r.Width == 0 {
				r.Width = regmap.DefaultRegisterWidth
			}
			for _, rf := range rr.Fields {
				access, _ := regmap.ParseAccess(rf.Access)
				r.Fields = append(r.Fields, regmap.Field{
					Name:        regmap.SanitizeName(rf.Name),
					LSB:         rf.LSB,
					Width:       rf.Width,
					Access:      access,
					RawAccess:   rf.Access,
					Reset:       uint64(rf.Reset),
					Description: rf.Description,
				})
			}
			sortFields(r.Fields)
			b.Registers = append(b.Registers, r)
		}
		m.Blocks = append(m.Blocks, b)
	}
	return m
}

// FromMap converts a regmap.Map into its YAML document form.
func FromMap(m *regmap.Map) *RawMap {
	raw := &RawMap{Name: m.Name}
	for _, b := range m.Blocks {
		rb := RawBlock{
			Name:        b.Name,
			BaseAddress: Number(b.BaseAddress),
			Size:        Number(b.Size),
			Description: b.Description,
		}
		for _, r := range b.Registers {
			rr := RawRegister{
				Name:        r.Name,
				Offset:      Number(r.Offset),
				Width:       r.Width,
				Description: r.Description,
			}
			for _, f := range r.Fields {
				access := f.RawAccess
				if access == "" {
					access = f.Access.String()
				}
				rr.Fields = append(rr.Fields, RawField{
					Name:        f.Name,
					LSB:         f.LSB,
					Width:       f.Width,
					Access:      access,
					Reset:       Number(f.Reset),
					Description: f.Description,
				})
			}
			rb.Registers = append(rb.Registers, rr)
		}
		raw.Blocks = append(raw.Blocks, rb)
	}
	return raw
}

func sortFields(fs []regmap.Field) {
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].LSB < fs[j].LSB })
}
