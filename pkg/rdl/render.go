// Package rdl renders a register map as SystemRDL source.
//
// Each block becomes an addrmap definition holding anonymous reg and field
// definitions. The output is the input format of the PeakRDL toolchain.
package rdl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// DefaultOutput is the file name used when no output path is given.
const DefaultOutput = "generated_registers.rdl"

const indent = "    "

// Options configures Render.
type Options struct {
	// Top, when set, appends a top-level addrmap with this name that
	// instantiates every block at its base address.
	Top string

	// Header is emitted as a leading // comment block when non-empty.
	Header string
}

// Render returns the SystemRDL source for m.
func Render(m *regmap.Map, opts Options) (string, error) {
	if opts.Top != "" && !regmap.ValidIdentifier(opts.Top) {
		return "", fmt.Errorf("top addrmap name %q is not a valid identifier", opts.Top)
	}
	for _, b := range m.Blocks {
		if b.Name == opts.Top {
			return "", fmt.Errorf("top addrmap name %q collides with a block", opts.Top)
		}
	}

	var b strings.Builder

	if opts.Header != "" {
		for _, line := range strings.Split(strings.TrimRight(opts.Header, "\n"), "\n") {
			fmt.Fprintf(&b, "// %s\n", line)
		}
		b.WriteString("\n")
	}

	for i := range m.Blocks {
		writeBlock(&b, &m.Blocks[i])
	}

	if opts.Top != "" {
		writeTop(&b, m, opts.Top)
	}

	return b.String(), nil
}

func writeBlock(b *strings.Builder, blk *regmap.Block) {
	desc := blk.Description
	if desc == "" {
		desc = regmap.DefaultBlockDescription(blk.Name)
	}

	fmt.Fprintf(b, "addrmap %s {\n", blk.Name)
	fmt.Fprintf(b, "%sname = %s;\n", indent, quote(blk.Name))
	fmt.Fprintf(b, "%sdesc = %s;\n\n", indent, quote(desc))

	if len(blk.Registers) == 0 {
		fmt.Fprintf(b, "%s// No registers found for this block\n\n", indent)
		b.WriteString("};\n\n")
		return
	}

	for i := range blk.Registers {
		writeRegister(b, &blk.Registers[i])
	}
	b.WriteString("};\n\n")
}

func writeRegister(b *strings.Builder, reg *regmap.Register) {
	desc := reg.Description
	if desc == "" {
		desc = regmap.DefaultRegisterDescription(reg.Name)
	}
	width := reg.Width
	if width == 0 {
		width = regmap.DefaultRegisterWidth
	}
	in := indent + indent

	fmt.Fprintf(b, "%s// Register %s\n", indent, reg.Name)
	fmt.Fprintf(b, "%sreg {\n", indent)
	fmt.Fprintf(b, "%sname = %s;\n", in, quote(reg.Name))
	fmt.Fprintf(b, "%sdesc = %s;\n", in, quote(desc))
	fmt.Fprintf(b, "%sregwidth = %d;\n\n", in, width)

	if len(reg.Fields) == 0 {
		fmt.Fprintf(b, "%s// No fields found for this register\n\n", in)
	}
	for _, f := range reg.Fields {
		writeField(b, f)
	}

	fmt.Fprintf(b, "%s} %s @ %s;\n\n", indent, reg.Name, regmap.FormatAddress(reg.Offset))
}

func writeField(b *strings.Builder, f regmap.Field) {
	desc := f.Description
	if desc == "" {
		desc = regmap.DefaultFieldDescription(f.Name)
	}
	in := indent + indent
	body := in + indent

	fmt.Fprintf(b, "%sfield {\n", in)
	fmt.Fprintf(b, "%sname = %s;\n", body, quote(f.Name))
	fmt.Fprintf(b, "%sdesc = %s;\n", body, quote(desc))
	fmt.Fprintf(b, "%ssw = %s;\n", body, f.Access.SW())
	fmt.Fprintf(b, "%shw = r;\n", body)
	if ow := f.Access.OnWrite(); ow != "" {
		fmt.Fprintf(b, "%sonwrite = %s;\n", body, ow)
	}
	fmt.Fprintf(b, "%s} %s[%d:%d] = %d'b%s;\n\n", in, f.Name, f.MSB(), f.LSB, f.Width, regmap.ResetBinary(f))
}

func writeTop(b *strings.Builder, m *regmap.Map, top string) {
	fmt.Fprintf(b, "addrmap %s {\n", top)
	if m.Name != "" {
		fmt.Fprintf(b, "%sname = %s;\n\n", indent, quote(m.Name))
	}
	for _, blk := range m.Blocks {
		fmt.Fprintf(b, "%s%s %s @ %s;\n", indent, blk.Name, blk.Name, regmap.FormatAddress(blk.BaseAddress))
	}
	b.WriteString("};\n")
}

// quote returns s as a SystemRDL string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
