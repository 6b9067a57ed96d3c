package regmap

import "fmt"

// DefaultRegisterWidth is used when a register does not declare a width.
const DefaultRegisterWidth = 32

// Field is a contiguous bit range inside a register.
type Field struct {
	Name  string
	LSB   int
	Width int

	// Access is the parsed access policy. RawAccess keeps the source text so
	// unknown spellings can be reported.
	Access    Access
	RawAccess string

	Reset       uint64
	Description string
}

// MSB returns the most significant bit index of the field.
func (f Field) MSB() int {
	return f.LSB + f.Width - 1
}

// Mask returns the in-register bit mask of the field.
func (f Field) Mask() uint64 {
	if f.Width <= 0 {
		return 0
	}
	if f.Width >= 64 {
		return ^uint64(0) << uint(f.LSB)
	}
	return ((uint64(1) << uint(f.Width)) - 1) << uint(f.LSB)
}

// Register is a fixed-width register at an offset inside a block.
type Register struct {
	Name        string
	Offset      uint64
	Width       int
	Description string
	Fields      []Field
}

// Bytes returns the register size in bytes.
func (r Register) Bytes() uint64 {
	w := r.Width
	if w <= 0 {
		w = DefaultRegisterWidth
	}
	return uint64((w + 7) / 8)
}

// Field returns the named field.
func (r *Register) Field(name string) (*Field, bool) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i], true
		}
	}
	return nil, false
}

// Reset returns the register reset value composed from its fields.
func (r Register) Reset() uint64 {
	var v uint64
	for _, f := range r.Fields {
		v |= (f.Reset << uint(f.LSB)) & f.Mask()
	}
	return v
}

// Block is an address map instantiated at a base address.
type Block struct {
	Name        string
	BaseAddress uint64

	// Size is the address span in bytes; zero when unknown.
	Size        uint64
	Description string
	Registers   []Register
}

// Register returns the named register.
func (b *Block) Register(name string) (*Register, bool) {
	for i := range b.Registers {
		if b.Registers[i].Name == name {
			return &b.Registers[i], true
		}
	}
	return nil, false
}

// Map is a complete register description.
type Map struct {
	// Name is used for the optional top-level address map.
	Name   string
	Blocks []Block
}

// Block returns the named block.
func (m *Map) Block(name string) (*Block, bool) {
	for i := range m.Blocks {
		if m.Blocks[i].Name == name {
			return &m.Blocks[i], true
		}
	}
	return nil, false
}

// Register returns the named register inside the named block.
func (m *Map) Register(block, reg string) (*Register, bool) {
	b, ok := m.Block(block)
	if !ok {
		return nil, false
	}
	return b.Register(reg)
}

// Counts reports the number of blocks, registers and fields in the map.
type Counts struct {
	Blocks    int
	Registers int
	Fields    int
}

// String returns a short summary such as "2 blocks, 5 registers, 12 fields".
func (c Counts) String() string {
	return fmt.Sprintf("%d blocks, %d registers, %d fields", c.Blocks, c.Registers, c.Fields)
}

// Counts returns the entity counts of the map.
func (m *Map) Counts() Counts {
	c := Counts{Blocks: len(m.Blocks)}
	for _, b := range m.Blocks {
		c.Registers += len(b.Registers)
		for _, r := range b.Registers {
			c.Fields += len(r.Fields)
		}
	}
	return c
}

// DefaultBlockDescription is used when a block has no description.
func DefaultBlockDescription(name string) string { return name + " Block" }

// DefaultRegisterDescription is used when a register has no description.
func DefaultRegisterDescription(name string) string { return name + " Register" }

// DefaultFieldDescription is used when a field has no description.
func DefaultFieldDescription(name string) string { return name + " field" }
