package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads rows from a workbook sheet whose first row is the header.
// An empty Sheet selects the first sheet.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Rows(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataUnavailable, s.Path, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", ErrDataUnavailable, s.Path)
		}
		sheet = sheets[0]
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrDataUnavailable, sheet, err)
	}
	return RowsFromGrid(grid), nil
}

// RowsFromGrid turns a header row plus data rows into raw rows. Blank cells
// become nil values and fully blank rows are dropped.
func RowsFromGrid(grid [][]string) []Row {
	if len(grid) < 2 {
		return nil
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, line := range grid[1:] {
		row := make(Row, 0, len(header))
		blank := true
		for i, name := range header {
			if name == "" {
				continue
			}
			var v any
			if i < len(line) {
				if cell := strings.TrimSpace(line[i]); cell != "" {
					v = cell
					blank = false
				}
			}
			row = append(row, Cell{Name: name, Value: v})
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
