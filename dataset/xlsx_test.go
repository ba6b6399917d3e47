package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestRowsFromGrid(t *testing.T) {
	grid := [][]string{
		{"Year", " Cebu Solar (GWh) ", ""},
		{"2020", "1,200", "ignored"},
		{"", "", ""},
		{"2021"},
	}
	rows := RowsFromGrid(grid)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][1].Name != "Cebu Solar (GWh)" || rows[0][1].Value != "1,200" {
		t.Errorf("row 0 cell = %+v", rows[0][1])
	}
	if rows[1][1].Value != nil {
		t.Errorf("short row should pad with nil, got %v", rows[1][1].Value)
	}
}

func TestXLSXSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]any{
		{"Year", "Cebu Total Power Generation (GWh)", "Solar Cost (PHP/W)"},
		{2020, 1000, 55.5},
		{2021, "", 50},
		{2022, "1,350", 45},
	}
	for r, line := range cells {
		for c, v := range line {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	table, err := Load(context.Background(), XLSXSource{Path: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	if v, ok := table.Value("Cebu Total Power Generation (GWh)", 2021); !ok || v != 1000 {
		t.Errorf("2021 generation = %v, %v; want forward-filled 1000", v, ok)
	}
	if v, _ := table.Value("Cebu Total Power Generation (GWh)", 2022); v != 1350 {
		t.Errorf("2022 generation = %v, want 1350", v)
	}
	if v, _ := table.Value("Solar Cost (PHP/W)", 2020); v != 55.5 {
		t.Errorf("2020 cost = %v, want 55.5", v)
	}
}

func TestXLSXSourceMissingFile(t *testing.T) {
	_, err := XLSXSource{Path: filepath.Join(t.TempDir(), "nope.xlsx")}.Rows(context.Background())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}
