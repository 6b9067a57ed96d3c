package inspect

import (
	"fmt"
	"strings"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowDescriptions appends descriptions to table rows.
	ShowDescriptions bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowDescriptions: true,
		IndentWidth:      2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatHex formats v as 0x-prefixed hex padded to the given bit width.
func FormatHex(v uint64, width int) string {
	digits := (width + 3) / 4
	if digits < 1 {
		digits = 1
	}
	return fmt.Sprintf("0x%0*X", digits, v)
}

// FormatBits formats a field's bit range as [msb:lsb] or [bit].
func FormatBits(fld regmap.Field) string {
	if fld.Width == 1 {
		return fmt.Sprintf("[%d]", fld.LSB)
	}
	return fmt.Sprintf("[%d:%d]", fld.MSB(), fld.LSB)
}

func (f *Formatter) desc(s string) string {
	if !f.ShowDescriptions || s == "" {
		return ""
	}
	return "  " + s
}

// FormatMap lists the blocks of a map.
func (f *Formatter) FormatMap(m *regmap.Map) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", m.Name, m.Counts())
	if len(m.Blocks) == 0 {
		sb.WriteString(f.Indent(1, "(no blocks)\n"))
		return sb.String()
	}
	nameWidth := 0
	for _, b := range m.Blocks {
		nameWidth = max(nameWidth, len(b.Name))
	}
	for _, b := range m.Blocks {
		line := fmt.Sprintf("%-*s @ %s  %d registers", nameWidth, b.Name, FormatHex(b.BaseAddress, 32), len(b.Registers))
		if b.Size > 0 {
			line += fmt.Sprintf(", size %s", regmap.FormatAddress(b.Size))
		}
		sb.WriteString(f.Indent(1, line+f.desc(b.Description)+"\n"))
	}
	return sb.String()
}

// FormatBlock lists the registers of a block.
func (f *Formatter) FormatBlock(b *regmap.Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s @ %s", b.Name, FormatHex(b.BaseAddress, 32))
	if b.Size > 0 {
		fmt.Fprintf(&sb, " (size %s)", regmap.FormatAddress(b.Size))
	}
	sb.WriteString(f.desc(b.Description) + "\n")

	if len(b.Registers) == 0 {
		sb.WriteString(f.Indent(1, "(no registers)\n"))
		return sb.String()
	}
	nameWidth := 0
	for _, r := range b.Registers {
		nameWidth = max(nameWidth, len(r.Name))
	}
	for _, r := range b.Registers {
		line := fmt.Sprintf("+%-6s %-*s %2d bits  reset %s",
			regmap.FormatAddress(r.Offset), nameWidth, r.Name, r.Width, FormatHex(r.Reset(), r.Width))
		sb.WriteString(f.Indent(1, line+f.desc(r.Description)+"\n"))
	}
	return sb.String()
}

// FormatRegister lists the fields of a register followed by its bit layout.
func (f *Formatter) FormatRegister(b *regmap.Block, r *regmap.Register) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/%s @ %s (+%s), %d bits, reset %s",
		b.Name, r.Name, FormatHex(b.BaseAddress+r.Offset, 32), regmap.FormatAddress(r.Offset),
		r.Width, FormatHex(r.Reset(), r.Width))
	sb.WriteString(f.desc(r.Description) + "\n")

	if len(r.Fields) == 0 {
		sb.WriteString(f.Indent(1, "(no fields)\n"))
		return sb.String()
	}
	bitsWidth, nameWidth := 0, 0
	for _, fld := range r.Fields {
		bitsWidth = max(bitsWidth, len(FormatBits(fld)))
		nameWidth = max(nameWidth, len(fld.Name))
	}
	for _, fld := range r.Fields {
		line := fmt.Sprintf("%-*s %-*s %-3s reset %s",
			bitsWidth, FormatBits(fld), nameWidth, fld.Name, fld.Access, FormatHex(fld.Reset, fld.Width))
		sb.WriteString(f.Indent(1, line+f.desc(fld.Description)+"\n"))
	}
	sb.WriteString(f.Indent(1, "layout: "+FormatLayout(r)+"\n"))
	return sb.String()
}

// FormatField describes a single field.
func (f *Formatter) FormatField(b *regmap.Block, r *regmap.Register, fld *regmap.Field) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/%s/%s %s\n", b.Name, r.Name, fld.Name, FormatBits(*fld))
	sb.WriteString(f.Indent(1, fmt.Sprintf("address: %s\n", FormatHex(b.BaseAddress+r.Offset, 32))))
	sb.WriteString(f.Indent(1, fmt.Sprintf("access:  %s (sw = %s)\n", fld.Access, fld.Access.SW())))
	sb.WriteString(f.Indent(1, fmt.Sprintf("mask:    %s\n", FormatHex(fld.Mask(), r.Width))))
	sb.WriteString(f.Indent(1, fmt.Sprintf("reset:   %s (%d'b%s)\n", FormatHex(fld.Reset, fld.Width), fld.Width, regmap.ResetBinary(*fld))))
	if fld.Description != "" {
		sb.WriteString(f.Indent(1, "desc:    "+fld.Description+"\n"))
	}
	return sb.String()
}

// FormatTarget formats whatever a resolved path points at.
func (f *Formatter) FormatTarget(t *Target) string {
	switch {
	case t.Field != nil:
		return f.FormatField(t.Block, t.Register, t.Field)
	case t.Register != nil:
		return f.FormatRegister(t.Block, t.Register)
	default:
		return f.FormatBlock(t.Block)
	}
}

// FormatLayout renders the register bits from MSB to LSB, naming each
// field and marking unused ranges as "-".
func FormatLayout(r *regmap.Register) string {
	var parts []string
	next := r.Width - 1
	for k := len(r.Fields) - 1; k >= 0; k-- {
		fld := r.Fields[k]
		if fld.MSB() < next {
			parts = append(parts, span(next, fld.MSB()+1)+" -")
		}
		parts = append(parts, span(fld.MSB(), fld.LSB)+" "+fld.Name)
		next = fld.LSB - 1
	}
	if next >= 0 {
		parts = append(parts, span(next, 0)+" -")
	}
	return strings.Join(parts, " | ")
}

func span(msb, lsb int) string {
	if msb == lsb {
		return fmt.Sprintf("%d", msb)
	}
	return fmt.Sprintf("%d:%d", msb, lsb)
}

// FormatDecoded lists decoded field values.
func (f *Formatter) FormatDecoded(value uint64, width int, values []FieldValue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", FormatHex(value, width))
	nameWidth := 0
	for _, v := range values {
		nameWidth = max(nameWidth, len(v.Field.Name))
	}
	for _, v := range values {
		line := fmt.Sprintf("%-*s = %s", nameWidth, v.Field.Name, FormatHex(v.Value, v.Field.Width))
		if v.Value != v.Field.Reset {
			line += "  (reset " + FormatHex(v.Field.Reset, v.Field.Width) + ")"
		}
		sb.WriteString(f.Indent(1, line+"\n"))
	}
	return sb.String()
}

// FormatIssues lists validation errors then warnings, one per line.
func (f *Formatter) FormatIssues(res *regmap.Result) string {
	var sb strings.Builder
	for _, e := range res.Errors {
		sb.WriteString(f.Indent(1, "error:   "+e.Error()+"\n"))
	}
	for _, w := range res.Warnings {
		sb.WriteString(f.Indent(1, "warning: "+w.Error()+"\n"))
	}
	return sb.String()
}
