package regmap

import (
	"fmt"
	"sort"
	"strings"
)

// Validation issue codes.
const (
	CodeNameInvalid      = "NAME_INVALID"
	CodeBlockDuplicate   = "BLOCK_DUPLICATE"
	CodeBlockEmpty       = "BLOCK_EMPTY"
	CodeBlockOverlap     = "BLOCK_OVERLAP"
	CodeRegDuplicate     = "REG_DUPLICATE"
	CodeRegWidth         = "REG_WIDTH"
	CodeRegAlign         = "REG_ALIGN"
	CodeRegOverlap       = "REG_OVERLAP"
	CodeRegOutOfBlock    = "REG_OUT_OF_BLOCK"
	CodeRegNoFields      = "REG_NO_FIELDS"
	CodeRegNameAmbiguous = "REG_NAME_AMBIGUOUS"
	CodeFieldDuplicate   = "FIELD_DUPLICATE"
	CodeFieldWidth       = "FIELD_WIDTH"
	CodeFieldRange       = "FIELD_RANGE"
	CodeFieldOverlap     = "FIELD_OVERLAP"
	CodeFieldReset       = "FIELD_RESET"
	CodeAccessUnknown    = "ACCESS_UNKNOWN"
)

// Issue is a single validation finding. Path locates the entity as
// "block", "block/register" or "block/register/field".
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) Error() string {
	if i.Path != "" {
		return fmt.Sprintf("%s: %s: %s", i.Path, i.Code, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// Result contains the outcome of Validate.
type Result struct {
	// Valid is true when no errors were found. Warnings do not affect it.
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// AddError records an error and marks the result invalid.
func (r *Result) AddError(code, path, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
	r.Valid = false
}

// AddWarning records a non-fatal finding.
func (r *Result) AddWarning(code, path, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

// HasCode reports whether any error or warning carries the code.
func (r *Result) HasCode(code string) bool {
	for _, i := range r.Errors {
		if i.Code == code {
			return true
		}
	}
	for _, i := range r.Warnings {
		if i.Code == code {
			return true
		}
	}
	return false
}

// Summary returns a one-line description of the result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "OK"
	}
	var parts []string
	if len(r.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", len(r.Errors)))
	}
	if len(r.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", len(r.Warnings)))
	}
	return strings.Join(parts, ", ")
}

// Validate checks the map for naming, layout and reset-value problems.
func Validate(m *Map) *Result {
	r := &Result{Valid: true}

	blockNames := make(map[string]bool)
	regBlocks := make(map[string][]string)

	for bi := range m.Blocks {
		b := &m.Blocks[bi]
		if !ValidIdentifier(b.Name) {
			r.AddError(CodeNameInvalid, b.Name, "block name %q is not a valid identifier", b.Name)
		}
		if blockNames[b.Name] {
			r.AddError(CodeBlockDuplicate, b.Name, "block %q defined more than once", b.Name)
		}
		blockNames[b.Name] = true

		if len(b.Registers) == 0 {
			r.AddWarning(CodeBlockEmpty, b.Name, "no registers found for block")
		}

		validateRegisters(r, b)
		for _, reg := range b.Registers {
			regBlocks[reg.Name] = append(regBlocks[reg.Name], b.Name)
		}
	}

	validateBlockOverlap(r, m.Blocks)

	names := make([]string, 0, len(regBlocks))
	for name, blocks := range regBlocks {
		if len(uniq(blocks)) > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		r.AddWarning(CodeRegNameAmbiguous, name,
			"register name used in blocks %s; fields without a block column are matched by name only",
			strings.Join(uniq(regBlocks[name]), ", "))
	}

	return r
}

func validateRegisters(r *Result, b *Block) {
	seen := make(map[string]bool)

	type span struct {
		name       string
		start, end uint64
	}
	var spans []span

	for ri := range b.Registers {
		reg := &b.Registers[ri]
		path := b.Name + "/" + reg.Name

		if !ValidIdentifier(reg.Name) {
			r.AddError(CodeNameInvalid, path, "register name %q is not a valid identifier", reg.Name)
		}
		if seen[reg.Name] {
			r.AddError(CodeRegDuplicate, path, "register %q defined more than once in block", reg.Name)
		}
		seen[reg.Name] = true

		widthOK := reg.Width >= 8 && reg.Width&(reg.Width-1) == 0
		if !widthOK {
			r.AddError(CodeRegWidth, path, "register width %d is not a power of two >= 8", reg.Width)
		} else if align := reg.Bytes(); reg.Offset%align != 0 {
			r.AddError(CodeRegAlign, path, "offset %s is not aligned to %d bytes", FormatAddress(reg.Offset), align)
		}

		end := reg.Offset + reg.Bytes()
		if b.Size > 0 && end > b.Size {
			r.AddError(CodeRegOutOfBlock, path, "register ends at %s, past block size %s",
				FormatAddress(end), FormatAddress(b.Size))
		}
		spans = append(spans, span{name: reg.Name, start: reg.Offset, end: end})

		if len(reg.Fields) == 0 {
			r.AddWarning(CodeRegNoFields, path, "no fields found for register")
		}
		validateFields(r, path, reg)
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	// reach is the span extending furthest among those already seen.
	var reach span
	for i, cur := range spans {
		if i > 0 && cur.start < reach.end {
			r.AddError(CodeRegOverlap, b.Name+"/"+cur.name, "register overlaps %s at %s",
				reach.name, FormatAddress(cur.start))
		}
		if i == 0 || cur.end > reach.end {
			reach = cur
		}
	}
}

func validateFields(r *Result, regPath string, reg *Register) {
	seen := make(map[string]bool)
	var used uint64
	var usedHigh bool

	for _, f := range reg.Fields {
		path := regPath + "/" + f.Name

		if !ValidIdentifier(f.Name) {
			r.AddError(CodeNameInvalid, path, "field name %q is not a valid identifier", f.Name)
		}
		if seen[f.Name] {
			r.AddError(CodeFieldDuplicate, path, "field %q defined more than once in register", f.Name)
		}
		seen[f.Name] = true

		if f.RawAccess != "" {
			if _, ok := ParseAccess(f.RawAccess); !ok {
				r.AddWarning(CodeAccessUnknown, path, "access %q not recognized, assuming read-only", f.RawAccess)
			}
		}

		if f.Width < 1 {
			r.AddError(CodeFieldWidth, path, "field width %d must be at least 1", f.Width)
			continue
		}
		if f.LSB < 0 || f.MSB() >= reg.Width {
			r.AddError(CodeFieldRange, path, "bits [%d:%d] exceed register width %d", f.MSB(), f.LSB, reg.Width)
			continue
		}
		if f.Width < 64 && f.Reset>>uint(f.Width) != 0 {
			r.AddError(CodeFieldReset, path, "reset value %d does not fit in %d bits", f.Reset, f.Width)
		}

		if f.MSB() >= 64 {
			// Overlap tracking covers the low 64 bits; wider registers are
			// checked pairwise.
			usedHigh = true
			continue
		}
		mask := f.Mask()
		if used&mask != 0 {
			r.AddError(CodeFieldOverlap, path, "bits [%d:%d] overlap another field", f.MSB(), f.LSB)
		}
		used |= mask
	}

	if usedHigh {
		checkWideOverlap(r, regPath, reg)
	}
}

func checkWideOverlap(r *Result, regPath string, reg *Register) {
	for i := 0; i < len(reg.Fields); i++ {
		a := reg.Fields[i]
		if a.MSB() < 64 || a.Width < 1 {
			continue
		}
		for j := 0; j < len(reg.Fields); j++ {
			b := reg.Fields[j]
			if i == j || b.Width < 1 {
				continue
			}
			if a.LSB <= b.MSB() && b.LSB <= a.MSB() {
				r.AddError(CodeFieldOverlap, regPath+"/"+a.Name, "bits [%d:%d] overlap %s", a.MSB(), a.LSB, b.Name)
				break
			}
		}
	}
}

func validateBlockOverlap(r *Result, blocks []Block) {
	sized := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Size > 0 {
			sized = append(sized, b)
		}
	}
	sort.SliceStable(sized, func(i, j int) bool { return sized[i].BaseAddress < sized[j].BaseAddress })
	var reach Block
	for i, cur := range sized {
		if i > 0 && cur.BaseAddress < reach.BaseAddress+reach.Size {
			r.AddError(CodeBlockOverlap, cur.Name, "block at %s overlaps %s",
				FormatAddress(cur.BaseAddress), reach.Name)
		}
		if i == 0 || cur.BaseAddress+cur.Size > reach.BaseAddress+reach.Size {
			reach = cur
		}
	}
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
