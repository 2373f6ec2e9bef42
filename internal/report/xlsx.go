package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/estatekit/internal/describe"
)

const summarySheet = "Summary"

// writeXLSX writes s as a single-sheet workbook. Numbers are stored as
// numeric cells so the sheet can be sorted and charted.
func writeXLSX(w io.Writer, s *describe.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	hdr := header(s)
	for i, h := range hdr {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	for r, c := range s.Columns {
		for i, v := range xlsxCells(c) {
			if err := setCell(f, i+1, r+2, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// xlsxCells is cells with raw numbers instead of formatted text.
func xlsxCells(c describe.ColumnSummary) []any {
	row := []any{c.Name, c.Kind, c.Count, c.Absent, c.NoneRatio, c.Mode, nil, nil, nil, nil, nil}
	if n := c.Numeric; n != nil {
		row[6], row[7], row[8], row[9], row[10] = n.Min, n.Max, n.Mean, n.Median, n.Percentile
	}
	return row
}

func setCell(f *excelize.File, col, row int, v any) error {
	if v == nil {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(summarySheet, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
