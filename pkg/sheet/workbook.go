// Package sheet reads register definitions from an Excel workbook.
//
// The workbook holds three sheets:
//
//	Blocks:    Block Name, Base Address, Size, Description
//	Registers: Block Name, Register Name, Offset, Description, Width (bits)
//	Fields:    Register Name, Field Name, LSB, Width, Access, Reset Value, Description
//
// The Fields sheet may carry an optional Block Name column to disambiguate
// registers that share a name across blocks. Header cells are trimmed and
// matched case-insensitively; extra columns are ignored.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetBlocks    = "Blocks"
	SheetRegisters = "Registers"
	SheetFields    = "Fields"
)

// Column headers.
const (
	ColBlockName    = "Block Name"
	ColBaseAddress  = "Base Address"
	ColSize         = "Size"
	ColDescription  = "Description"
	ColRegisterName = "Register Name"
	ColOffset       = "Offset"
	ColRegWidth     = "Width (bits)"
	ColFieldName    = "Field Name"
	ColLSB          = "LSB"
	ColWidth        = "Width"
	ColAccess       = "Access"
	ColResetValue   = "Reset Value"
)

// Workbook errors.
var (
	ErrMissingSheet  = errors.New("missing sheet")
	ErrMissingColumn = errors.New("missing column")
)

// CellError reports a cell that could not be interpreted.
type CellError struct {
	Sheet  string
	Row    int // 1-based spreadsheet row
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s row %d, column %q: %v", e.Sheet, e.Row, e.Column, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// Workbook is an opened spreadsheet.
type Workbook struct {
	file   *excelize.File
	sheets map[string]string // normalized name -> actual sheet name
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return newWorkbook(f), nil
}

// Read opens a workbook from r.
func Read(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	return newWorkbook(f), nil
}

func newWorkbook(f *excelize.File) *Workbook {
	w := &Workbook{file: f, sheets: make(map[string]string)}
	for _, name := range f.GetSheetList() {
		w.sheets[normalize(name)] = name
	}
	return w
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Table loads the named sheet. The first non-empty row is the header.
func (w *Workbook) Table(name string) (*Table, error) {
	actual, ok := w.sheets[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingSheet, name)
	}

	rows, err := w.file.GetRows(actual)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", actual, err)
	}

	t := &Table{Sheet: actual, columns: make(map[string]int)}
	headerIdx := -1
	for i, row := range rows {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return t, nil
	}

	for col, cell := range rows[headerIdx] {
		key := normalize(cell)
		if key == "" {
			continue
		}
		if _, dup := t.columns[key]; !dup {
			t.columns[key] = col
		}
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		t.Rows = append(t.Rows, Row{table: t, Num: i + 1, cells: rows[i]})
	}
	return t, nil
}

// Table is a sheet with a header row.
type Table struct {
	Sheet   string
	Rows    []Row
	columns map[string]int
}

// Has reports whether the table has the column.
func (t *Table) Has(col string) bool {
	_, ok := t.columns[normalize(col)]
	return ok
}

// Require returns ErrMissingColumn for the first absent column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return fmt.Errorf("%w %q in sheet %s", ErrMissingColumn, c, t.Sheet)
		}
	}
	return nil
}

// Row is a data row of a Table.
type Row struct {
	// Num is the 1-based spreadsheet row number.
	Num   int
	table *Table
	cells []string
}

// Get returns the trimmed cell under the column, or "" when the column or
// cell is absent.
func (r Row) Get(col string) string {
	idx, ok := r.table.columns[normalize(col)]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
