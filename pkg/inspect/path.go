// Package inspect browses a register map by path.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g. "UART/CTRL/EN" or "uart.ctrl")
//   - Resolving paths against a map, case-insensitively
//   - Decoding and encoding register values field by field
//   - Formatting output for display
package inspect

import (
	"errors"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Level is the depth a path addresses.
type Level int

const (
	LevelBlock Level = iota + 1
	LevelRegister
	LevelField
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelBlock:
		return "block"
	case LevelRegister:
		return "register"
	case LevelField:
		return "field"
	default:
		return "map"
	}
}

// Path represents a parsed inspection path.
// Format: block[/register[/field]], with "." accepted as separator.
type Path struct {
	Block    string
	Register string
	Field    string

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	normalized := strings.ReplaceAll(input, ".", "/")
	if strings.HasPrefix(normalized, "/") || strings.HasSuffix(normalized, "/") ||
		strings.Contains(normalized, "//") {
		return nil, ErrInvalidPath
	}

	parts := strings.Split(normalized, "/")
	if len(parts) > 3 {
		return nil, ErrInvalidPath
	}

	p := &Path{Raw: input, Block: parts[0]}
	if len(parts) > 1 {
		p.Register = parts[1]
	}
	if len(parts) > 2 {
		p.Field = parts[2]
	}
	return p, nil
}

// Level returns how deep the path goes.
func (p *Path) Level() Level {
	switch {
	case p.Field != "":
		return LevelField
	case p.Register != "":
		return LevelRegister
	default:
		return LevelBlock
	}
}

// String returns the path in canonical slash form.
func (p *Path) String() string {
	parts := []string{p.Block}
	if p.Register != "" {
		parts = append(parts, p.Register)
	}
	if p.Field != "" {
		parts = append(parts, p.Field)
	}
	return strings.Join(parts, "/")
}
