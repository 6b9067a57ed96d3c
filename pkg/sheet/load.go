package sheet

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/regflow/regflow-go/pkg/regmap"
)

// Options configures Decode.
type Options struct {
	// Name overrides the map name. Defaults to the sanitized file name.
	Name string

	// Logger receives warnings about rows that could not be attached.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Orphan is a row that references a block or register that does not exist.
type Orphan struct {
	Sheet  string
	Row    int
	Reason string
}

// Result is a decoded workbook.
type Result struct {
	Map     *regmap.Map
	Orphans []Orphan
}

// Load opens the workbook at path and decodes it into a register map.
func Load(path string, opts Options) (*Result, error) {
	wb, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if opts.Name == "" {
		base := filepath.Base(path)
		opts.Name = regmap.SanitizeName(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return wb.Decode(opts)
}

type regKey struct{ block, reg string }

// Decode reads the Blocks, Registers and Fields sheets.
func (w *Workbook) Decode(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	blocks, err := w.Table(SheetBlocks)
	if err != nil {
		return nil, err
	}
	if err := blocks.Require(ColBlockName, ColBaseAddress); err != nil {
		return nil, err
	}
	registers, err := w.Table(SheetRegisters)
	if err != nil {
		return nil, err
	}
	if err := registers.Require(ColBlockName, ColRegisterName, ColOffset); err != nil {
		return nil, err
	}
	fields, err := w.Table(SheetFields)
	if err != nil {
		return nil, err
	}
	if err := fields.Require(ColRegisterName, ColFieldName, ColLSB, ColWidth); err != nil {
		return nil, err
	}

	res := &Result{Map: &regmap.Map{Name: opts.Name}}
	m := res.Map

	blockIdx := make(map[string]int)
	for _, row := range blocks.Rows {
		b, err := decodeBlock(row)
		if err != nil {
			return nil, err
		}
		if b.Name == "" {
			continue
		}
		if _, dup := blockIdx[b.Name]; !dup {
			blockIdx[b.Name] = len(m.Blocks)
		}
		m.Blocks = append(m.Blocks, b)
	}

	// Registers keep their spreadsheet order within each block.
	for _, row := range registers.Rows {
		blockName := regmap.SanitizeName(row.Get(ColBlockName))
		reg, err := decodeRegister(row)
		if err != nil {
			return nil, err
		}
		if reg.Name == "" {
			continue
		}
		bi, ok := blockIdx[blockName]
		if !ok {
			res.orphan(logger, registers.Sheet, row.Num, fmt.Sprintf("register %s references unknown block %q", reg.Name, blockName))
			continue
		}
		m.Blocks[bi].Registers = append(m.Blocks[bi].Registers, reg)
	}

	// Index registers by name and by (block, name). Fields without a block
	// column attach to every register of that name.
	byName := make(map[string][]*regmap.Register)
	byKey := make(map[regKey]*regmap.Register)
	for bi := range m.Blocks {
		b := &m.Blocks[bi]
		for ri := range b.Registers {
			r := &b.Registers[ri]
			byName[r.Name] = append(byName[r.Name], r)
			if _, dup := byKey[regKey{b.Name, r.Name}]; !dup {
				byKey[regKey{b.Name, r.Name}] = r
			}
		}
	}

	scoped := fields.Has(ColBlockName)
	for _, row := range fields.Rows {
		f, err := decodeField(row)
		if err != nil {
			return nil, err
		}
		if f.Name == "" {
			continue
		}
		regName := regmap.SanitizeName(row.Get(ColRegisterName))

		var targets []*regmap.Register
		if blockName := regmap.SanitizeName(row.Get(ColBlockName)); scoped && blockName != "" {
			if r, ok := byKey[regKey{blockName, regName}]; ok {
				targets = []*regmap.Register{r}
			}
		} else {
			targets = byName[regName]
		}
		if len(targets) == 0 {
			res.orphan(logger, fields.Sheet, row.Num, fmt.Sprintf("field %s references unknown register %q", f.Name, regName))
			continue
		}
		for _, r := range targets {
			r.Fields = append(r.Fields, f)
		}
	}

	for bi := range m.Blocks {
		for ri := range m.Blocks[bi].Registers {
			fs := m.Blocks[bi].Registers[ri].Fields
			sort.SliceStable(fs, func(i, j int) bool { return fs[i].LSB < fs[j].LSB })
		}
	}

	logger.Debug("workbook decoded", "map", m.Name, "counts", m.Counts().String(), "orphans", len(res.Orphans))
	return res, nil
}

func (r *Result) orphan(logger *slog.Logger, sheet string, row int, reason string) {
	r.Orphans = append(r.Orphans, Orphan{Sheet: sheet, Row: row, Reason: reason})
	logger.Warn("skipping row", "sheet", sheet, "row", row, "reason", reason)
}

func decodeBlock(row Row) (regmap.Block, error) {
	b := regmap.Block{
		Name:        regmap.SanitizeName(row.Get(ColBlockName)),
		Description: row.Get(ColDescription),
	}
	if b.Name == "" {
		return b, nil
	}
	var err error
	if b.BaseAddress, err = number(row, ColBaseAddress, true); err != nil {
		return b, err
	}
	if b.Size, err = number(row, ColSize, false); err != nil {
		return b, err
	}
	return b, nil
}

func decodeRegister(row Row) (regmap.Register, error) {
	r := regmap.Register{
		Name:        regmap.SanitizeName(row.Get(ColRegisterName)),
		Description: row.Get(ColDescription),
		Width:       regmap.DefaultRegisterWidth,
	}
	if r.Name == "" {
		return r, nil
	}
	var err error
	if r.Offset, err = number(row, ColOffset, true); err != nil {
		return r, err
	}
	if row.Get(ColRegWidth) != "" {
		w, err := number(row, ColRegWidth, true)
		if err != nil {
			return r, err
		}
		r.Width = int(w)
	}
	return r, nil
}

func decodeField(row Row) (regmap.Field, error) {
	f := regmap.Field{
		Name:        regmap.SanitizeName(row.Get(ColFieldName)),
		RawAccess:   row.Get(ColAccess),
		Description: row.Get(ColDescription),
	}
	if f.Name == "" {
		return f, nil
	}
	f.Access, _ = regmap.ParseAccess(f.RawAccess)

	lsb, err := number(row, ColLSB, true)
	if err != nil {
		return f, err
	}
	width, err := number(row, ColWidth, true)
	if err != nil {
		return f, err
	}
	f.LSB, f.Width = int(lsb), int(width)

	if f.Reset, err = number(row, ColResetValue, false); err != nil {
		return f, err
	}
	return f, nil
}

// number parses a numeric cell. Optional empty cells yield zero.
func number(row Row, col string, required bool) (uint64, error) {
	raw := row.Get(col)
	if raw == "" {
		if !required {
			return 0, nil
		}
		return 0, &CellError{Sheet: row.table.Sheet, Row: row.Num, Column: col, Err: fmt.Errorf("value required")}
	}
	v, err := regmap.ParseNumber(raw)
	if err != nil {
		return 0, &CellError{Sheet: row.table.Sheet, Row: row.Num, Column: col, Value: raw, Err: err}
	}
	return v, nil
}
