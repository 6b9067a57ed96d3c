// Package source loads a register map from any supported input format.
package source

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/regspec"
	"github.com/regflow/regflow-go/pkg/sheet"
)

// Format identifies an input format.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// Detect returns the format implied by the file extension.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported input %s: expected .xlsx, .xlsm, .yaml or .yml", path)
	}
}

// Loaded is a register map together with the rows the reader skipped.
type Loaded struct {
	Map     *regmap.Map
	Format  Format
	Orphans []sheet.Orphan
}

// Load reads path according to its extension.
func Load(path string, logger *slog.Logger) (*Loaded, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatYAML:
		m, err := regspec.Load(path)
		if err != nil {
			return nil, err
		}
		return &Loaded{Map: m, Format: format}, nil
	default:
		res, err := sheet.Load(path, sheet.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		return &Loaded{Map: res.Map, Format: format, Orphans: res.Orphans}, nil
	}
}
