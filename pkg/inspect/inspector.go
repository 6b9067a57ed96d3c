package inspect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// Inspector errors.
var (
	ErrBlockNotFound    = errors.New("block not found")
	ErrRegisterNotFound = errors.New("register not found")
	ErrFieldNotFound    = errors.New("field not found")
	ErrNotRegister      = errors.New("path does not address a register")
	ErrValueTooWide     = errors.New("value does not fit")
)

// Inspector answers questions about a register map.
type Inspector struct {
	m *regmap.Map
}

// NewInspector creates a new Inspector for the given map.
func NewInspector(m *regmap.Map) *Inspector {
	return &Inspector{m: m}
}

// Map returns the underlying register map.
func (i *Inspector) Map() *regmap.Map {
	return i.m
}

// Target is a resolved path. Register and Field are nil above their level.
type Target struct {
	Path     Path
	Block    *regmap.Block
	Register *regmap.Register
	Field    *regmap.Field
}

// Resolve finds the entities a path names. Exact names win; otherwise a
// unique case-insensitive match is accepted. The returned Path carries the
// canonical names.
func (i *Inspector) Resolve(p *Path) (*Target, error) {
	bi, ok := lookup(len(i.m.Blocks), func(k int) string { return i.m.Blocks[k].Name }, p.Block)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, p.Block)
	}
	t := &Target{Block: &i.m.Blocks[bi]}
	t.Path.Block = t.Block.Name

	if p.Register == "" {
		t.Path.Raw = t.Path.String()
		return t, nil
	}
	regs := t.Block.Registers
	ri, ok := lookup(len(regs), func(k int) string { return regs[k].Name }, p.Register)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrRegisterNotFound, t.Block.Name, p.Register)
	}
	t.Register = &regs[ri]
	t.Path.Register = t.Register.Name

	if p.Field != "" {
		fields := t.Register.Fields
		fi, ok := lookup(len(fields), func(k int) string { return fields[k].Name }, p.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrFieldNotFound, t.Block.Name, t.Register.Name, p.Field)
		}
		t.Field = &fields[fi]
		t.Path.Field = t.Field.Name
	}
	t.Path.Raw = t.Path.String()
	return t, nil
}

// lookup returns the index whose name equals want, falling back to a
// unique case-insensitive match.
func lookup(n int, name func(int) string, want string) (int, bool) {
	for k := 0; k < n; k++ {
		if name(k) == want {
			return k, true
		}
	}
	found := -1
	for k := 0; k < n; k++ {
		if strings.EqualFold(name(k), want) {
			if found >= 0 {
				return -1, false
			}
			found = k
		}
	}
	return found, found >= 0
}

// ResolveString parses and resolves s.
func (i *Inspector) ResolveString(s string) (*Target, error) {
	p, err := ParsePath(s)
	if err != nil {
		return nil, err
	}
	return i.Resolve(p)
}

// Address returns the absolute address of a path: the base address for a
// block and the register address for registers and fields.
func (i *Inspector) Address(p *Path) (uint64, error) {
	t, err := i.Resolve(p)
	if err != nil {
		return 0, err
	}
	if t.Register == nil {
		return t.Block.BaseAddress, nil
	}
	return t.Block.BaseAddress + t.Register.Offset, nil
}

// FieldValue is one field extracted from a register value.
type FieldValue struct {
	Field regmap.Field
	Value uint64
}

// Decode splits a register value into its fields, LSB first.
func (i *Inspector) Decode(p *Path, value uint64) ([]FieldValue, error) {
	t, err := i.register(p)
	if err != nil {
		return nil, err
	}
	out := make([]FieldValue, 0, len(t.Register.Fields))
	for _, f := range t.Register.Fields {
		out = append(out, FieldValue{Field: f, Value: (value & f.Mask()) >> uint(f.LSB)})
	}
	return out, nil
}

// Encode builds a register value starting from its reset value and
// applying the named field assignments.
func (i *Inspector) Encode(p *Path, assign map[string]uint64) (uint64, error) {
	t, err := i.register(p)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(assign))
	for name := range assign {
		names = append(names, name)
	}
	sort.Strings(names)

	value := t.Register.Reset()
	fields := t.Register.Fields
	for _, name := range names {
		fi, ok := lookup(len(fields), func(k int) string { return fields[k].Name }, name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
		}
		f := fields[fi]
		v := assign[name]
		if f.Width < 64 && v>>uint(f.Width) != 0 {
			return 0, fmt.Errorf("%w: %s is %d bits, got %#x", ErrValueTooWide, f.Name, f.Width, v)
		}
		value = (value &^ f.Mask()) | ((v << uint(f.LSB)) & f.Mask())
	}
	return value, nil
}

func (i *Inspector) register(p *Path) (*Target, error) {
	if p.Register == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotRegister, p.String())
	}
	return i.Resolve(p)
}

// Find returns the paths of every block, register and field whose name
// contains query, case-insensitively.
func (i *Inspector) Find(query string) []Path {
	q := strings.ToLower(query)
	match := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	var out []Path
	for _, b := range i.m.Blocks {
		if match(b.Name) {
			out = append(out, Path{Block: b.Name})
		}
		for _, r := range b.Registers {
			if match(r.Name) {
				out = append(out, Path{Block: b.Name, Register: r.Name})
			}
			for _, f := range r.Fields {
				if match(f.Name) {
					out = append(out, Path{Block: b.Name, Register: r.Name, Field: f.Name})
				}
			}
		}
	}
	return out
}
