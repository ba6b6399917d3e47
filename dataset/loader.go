package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Cell is one named value of a raw source row.
type Cell struct {
	Name  string
	Value any
}

// Row is a raw source row in source column order.
type Row []Cell

// Source provides raw tabular rows, one per year.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}

// StaticSource serves a fixed set of rows.
type StaticSource []Row

func (s StaticSource) Rows(context.Context) ([]Row, error) { return s, nil }

// Keys carried by stored documents that are never metrics.
var ignoredColumns = map[string]bool{
	"_id":         true,
	"isPredicted": true,
	"isDeleted":   true,
	"coordinates": true,
}

// Load reads the source and builds a forward-filled metric table.
func Load(ctx context.Context, src Source) (*Table, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return Build(rows)
}

// Build normalizes raw rows into a table. Text cells are parsed as numbers
// after removing thousands separators; anything unparseable is missing.
// When a year appears on more than one row, later non-missing values win.
func Build(rows []Row) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: source has no rows", ErrDataUnavailable)
	}

	byYear := make(map[int]map[string]Point)
	var order []string
	known := make(map[string]bool)

	for _, row := range rows {
		year, ok := rowYear(row)
		if !ok {
			continue
		}
		cells, exists := byYear[year]
		if !exists {
			cells = make(map[string]Point)
			byYear[year] = cells
		}
		for _, c := range row {
			if isYearKey(c.Name) || ignoredColumns[c.Name] || c.Name == "" {
				continue
			}
			if !known[c.Name] {
				known[c.Name] = true
				order = append(order, c.Name)
			}
			v, valid := Coerce(c.Value)
			if prev, seen := cells[c.Name]; seen && prev.Valid && !valid {
				continue
			}
			cells[c.Name] = Point{Year: year, Value: v, Valid: valid}
		}
	}

	if len(byYear) == 0 {
		return nil, fmt.Errorf("%w: no rows carry a %s", ErrDataUnavailable, YearColumn)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	t := newTable(years)
	for _, col := range order {
		points := make([]Point, len(years))
		for i, y := range years {
			p, ok := byYear[y][col]
			if !ok {
				p = Point{Year: y}
			}
			points[i] = p
		}
		t.setColumn(col, ForwardFill(points))
	}
	return t, nil
}

func isYearKey(name string) bool {
	return name == YearColumn || name == "year"
}

func rowYear(row Row) (int, bool) {
	for _, c := range row {
		if isYearKey(c.Name) {
			if y, ok := ParseYear(c.Value); ok {
				return y, true
			}
		}
	}
	return 0, false
}

// ParseYear accepts integral numbers and numeric text.
func ParseYear(v any) (int, bool) {
	f, ok := Coerce(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Coerce converts a raw cell to a float. Booleans, nil and text that does not
// parse are missing.
func Coerce(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		return parseNumber(x)
	case fmt.Stringer:
		return parseNumber(x.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
