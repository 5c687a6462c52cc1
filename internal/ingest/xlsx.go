package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

// readXLSX returns every row of the named sheet, or of the first sheet when
// sheet is empty.
func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in workbook", ErrEmptyFile)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows found in sheet %q", ErrEmptyFile, sheet)
	}
	return rows, nil
}

// exportSheet is the sheet name of exported workbooks.
const exportSheet = "Sheet1"

// EncodeXLSX writes t as a single-sheet workbook.
func EncodeXLSX(w io.Writer, t *core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}

	writeRow := func(r int, values []string) error {
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		return sw.SetRow(axis, cells)
	}

	if err := writeRow(0, t.Columns()); err != nil {
		return fmt.Errorf("encode xlsx: header: %w", err)
	}
	for r := 0; r < t.RowCount(); r++ {
		if err := writeRow(r+1, t.Row(r)); err != nil {
			return fmt.Errorf("encode xlsx: row %d: %w", r+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return nil
}
