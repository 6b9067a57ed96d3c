package regmap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SanitizeName converts "Status Reg" to "Status_Reg" and "irq-mask" to "irq_mask".
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// ValidIdentifier reports whether s is usable as a SystemRDL instance name.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// ParseNumber parses an address, offset or value cell.
//
// Accepted forms: decimal ("16"), C prefixes ("0x10", "0b1010", "0o20"),
// Verilog literals ("8'h10", "'d16", "4'b1010"), "_" digit separators and
// spreadsheet floats with an empty fraction ("16.0").
func ParseNumber(s string) (uint64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, fmt.Errorf("empty number")
	}
	clean := strings.ReplaceAll(text, "_", "")

	if i := strings.IndexByte(clean, '\''); i >= 0 {
		return parseVerilog(text, clean[i+1:])
	}

	if whole, frac, ok := strings.Cut(clean, "."); ok {
		if strings.Trim(frac, "0") != "" {
			return 0, fmt.Errorf("invalid number %q: fractional value", text)
		}
		clean = whole
	}

	v, err := strconv.ParseUint(clean, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	return v, nil
}

func parseVerilog(text, lit string) (uint64, error) {
	if lit == "" {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	lit = strings.TrimPrefix(strings.TrimPrefix(lit, "s"), "S")
	if lit == "" {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	base := 0
	switch lit[0] {
	case 'h', 'H':
		base = 16
	case 'd', 'D':
		base = 10
	case 'b', 'B':
		base = 2
	case 'o', 'O':
		base = 8
	default:
		return 0, fmt.Errorf("invalid number %q: unknown radix %q", text, lit[0])
	}
	v, err := strconv.ParseUint(lit[1:], base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	return v, nil
}

// ResetBinary returns the field reset value as a zero-padded binary string of
// exactly Width digits. Bits above Width are dropped.
func ResetBinary(f Field) string {
	if f.Width <= 0 {
		return ""
	}
	v := f.Reset
	if f.Width < 64 {
		v &= (uint64(1) << uint(f.Width)) - 1
	}
	s := strconv.FormatUint(v, 2)
	if len(s) < f.Width {
		s = strings.Repeat("0", f.Width-len(s)) + s
	}
	return s
}

// FormatAddress formats an address or offset as 0x-prefixed upper-case hex.
func FormatAddress(v uint64) string {
	return fmt.Sprintf("0x%X", v)
}
