package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/regflow/regflow-go/pkg/regmap"
)

var (
	blockHeader    = []string{ColBlockName, ColBaseAddress, ColSize, ColDescription}
	registerHeader = []string{ColBlockName, ColRegisterName, ColOffset, ColDescription, ColRegWidth}
	fieldHeader    = []string{ColBlockName, ColRegisterName, ColFieldName, ColLSB, ColWidth, ColAccess, ColResetValue, ColDescription}
)

// Save writes the map to a workbook at path.
func Save(m *regmap.Map, path string) error {
	f, err := build(m)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// Write writes the map as a workbook to w.
func Write(m *regmap.Map, w io.Writer) error {
	f, err := build(m)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteTemplate writes an example workbook with all three sheets filled in.
func WriteTemplate(path string) error {
	return Save(ExampleMap(), path)
}

// ExampleMap returns the register map written by WriteTemplate.
func ExampleMap() *regmap.Map {
	return &regmap.Map{
		Name: "example",
		Blocks: []regmap.Block{{
			Name:        "UART",
			BaseAddress: 0x4000_0000,
			Size:        0x100,
			Description: "UART controller",
			Registers: []regmap.Register{
				{
					Name:        "CTRL",
					Offset:      0x0,
					Width:       32,
					Description: "Control register",
					Fields: []regmap.Field{
						{Name: "EN", LSB: 0, Width: 1, Access: regmap.AccessRW, RawAccess: "rw", Description: "Enable"},
						{Name: "PARITY", LSB: 1, Width: 2, Access: regmap.AccessRW, RawAccess: "rw", Description: "Parity mode"},
						{Name: "BAUD_DIV", LSB: 8, Width: 8, Access: regmap.AccessRW, RawAccess: "rw", Reset: 0x1a, Description: "Baud rate divider"},
					},
				},
				{
					Name:        "STATUS",
					Offset:      0x4,
					Width:       32,
					Description: "Status register",
					Fields: []regmap.Field{
						{Name: "TX_EMPTY", LSB: 0, Width: 1, Access: regmap.AccessRO, RawAccess: "ro", Reset: 1, Description: "Transmit FIFO empty"},
						{Name: "RX_OVERRUN", LSB: 1, Width: 1, Access: regmap.AccessW1C, RawAccess: "w1c", Description: "Receive overrun, write 1 to clear"},
					},
				},
				{
					Name:        "TXDATA",
					Offset:      0x8,
					Width:       32,
					Description: "Transmit data",
					Fields: []regmap.Field{
						{Name: "DATA", LSB: 0, Width: 8, Access: regmap.AccessWO, RawAccess: "wo", Description: "Byte to transmit"},
					},
				},
			},
		}},
	}
}

func build(m *regmap.Map) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	var blockRows, regRows, fieldRows [][]any
	for _, b := range m.Blocks {
		blockRows = append(blockRows, []any{b.Name, regmap.FormatAddress(b.BaseAddress), sizeCell(b.Size), b.Description})
		for _, r := range b.Registers {
			regRows = append(regRows, []any{b.Name, r.Name, regmap.FormatAddress(r.Offset), r.Description, r.Width})
			for _, fd := range r.Fields {
				access := fd.RawAccess
				if access == "" {
					access = fd.Access.String()
				}
				fieldRows = append(fieldRows, []any{b.Name, r.Name, fd.Name, fd.LSB, fd.Width, access, regmap.FormatAddress(fd.Reset), fd.Description})
			}
		}
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{SheetBlocks, blockHeader, blockRows},
		{SheetRegisters, registerHeader, regRows},
		{SheetFields, fieldHeader, fieldRows},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("renaming default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.header, s.rows, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any, headerStyle int) error {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &hdr); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", name, i+2, err)
		}
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", lastCol, 18)
}

func sizeCell(size uint64) any {
	if size == 0 {
		return ""
	}
	return regmap.FormatAddress(size)
}
