package dataset

import "testing"

func TestForwardFill(t *testing.T) {
	in := []Point{
		{Year: 1},
		{Year: 2, Value: 4, Valid: true},
		{Year: 3},
		{Year: 4},
		{Year: 5, Value: 7, Valid: true},
		{Year: 6},
	}
	got := ForwardFill(in)
	want := []Point{
		{Year: 1},
		{Year: 2, Value: 4, Valid: true},
		{Year: 3, Value: 4, Valid: true},
		{Year: 4, Value: 4, Valid: true},
		{Year: 5, Value: 7, Valid: true},
		{Year: 6, Value: 7, Valid: true},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if in[2].Valid {
		t.Error("ForwardFill must not modify its input")
	}
}

func TestSubregion(t *testing.T) {
	table, err := Build([]Row{
		row(2020,
			"Cebu Total Power Generation (GWh)", 100.0,
			"Cebu Solar (GWh)", 5.0,
			"Bohol Solar (GWh)", 1.0,
			"Visayas Total Power Generation (GWh)", 400.0,
		),
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	cebu := table.Subregion("Cebu")
	if cebu == nil {
		t.Fatal("Subregion(Cebu) = nil")
	}
	cols := cebu.Columns()
	if len(cols) != 2 || cols[0] != "Total Power Generation (GWh)" || cols[1] != "Solar (GWh)" {
		t.Errorf("Cebu columns = %v", cols)
	}
	if v, ok := cebu.Value("Solar (GWh)", 2020); !ok || v != 5 {
		t.Errorf("Cebu solar = %v, %v", v, ok)
	}
	if table.Subregion("Panay") != nil {
		t.Error("region without columns should project to nil")
	}
}

func TestTableAccessors(t *testing.T) {
	table, err := Build([]Row{
		row(2021, "A", 1.0),
		row(2023, "A", nil),
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !table.HasYear(2021) || table.HasYear(2022) {
		t.Error("HasYear mismatch")
	}
	if y, ok := table.LastYear(); !ok || y != 2023 {
		t.Errorf("LastYear() = %d, %v", y, ok)
	}
	if n := table.Observed("A"); n != 2 {
		t.Errorf("Observed(A) = %d, want 2 after forward fill", n)
	}
	if _, ok := table.Value("missing", 2021); ok {
		t.Error("unknown column should have no value")
	}
}
