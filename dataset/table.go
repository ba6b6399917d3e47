package dataset

import (
	"errors"
	"sort"
	"strings"
)

// ErrDataUnavailable is returned when a source is empty or cannot be read.
var ErrDataUnavailable = errors.New("data unavailable")

const YearColumn = "Year"

// Point is one year of a metric. Valid is false for a missing value.
type Point struct {
	Year  int
	Value float64
	Valid bool
}

// Series is a metric column ordered by ascending year, one point per year.
type Series struct {
	Name   string
	Points []Point
}

// Observed returns the non-missing points.
func (s Series) Observed() []Point {
	out := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			out = append(out, p)
		}
	}
	return out
}

func (s Series) At(year int) (float64, bool) {
	i := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Year >= year })
	if i < len(s.Points) && s.Points[i].Year == year && s.Points[i].Valid {
		return s.Points[i].Value, true
	}
	return 0, false
}

// Last returns the point for the latest year, missing or not.
func (s Series) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Table maps metric names to series sharing one year domain. Column order
// follows the order columns were first seen in the source.
type Table struct {
	years   []int
	columns []string
	values  map[string][]Point
}

func newTable(years []int) *Table {
	return &Table{years: years, values: make(map[string][]Point)}
}

func (t *Table) setColumn(name string, points []Point) {
	if _, ok := t.values[name]; !ok {
		t.columns = append(t.columns, name)
	}
	t.values[name] = points
}

func (t *Table) Years() []int {
	out := make([]int, len(t.years))
	copy(out, t.years)
	return out
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int { return len(t.years) }

func (t *Table) Has(column string) bool {
	_, ok := t.values[column]
	return ok
}

func (t *Table) HasYear(year int) bool {
	i := sort.SearchInts(t.years, year)
	return i < len(t.years) && t.years[i] == year
}

// LastYear is the latest year in the table's domain.
func (t *Table) LastYear() (int, bool) {
	if len(t.years) == 0 {
		return 0, false
	}
	return t.years[len(t.years)-1], true
}

func (t *Table) Series(column string) (Series, bool) {
	points, ok := t.values[column]
	if !ok {
		return Series{}, false
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return Series{Name: column, Points: cp}, true
}

func (t *Table) Value(column string, year int) (float64, bool) {
	s, ok := t.Series(column)
	if !ok {
		return 0, false
	}
	return s.At(year)
}

// Observed counts the non-missing values of a column.
func (t *Table) Observed(column string) int {
	n := 0
	for _, p := range t.values[column] {
		if p.Valid {
			n++
		}
	}
	return n
}

// Subregion projects the columns named "<region> <metric>" into a table keyed
// by "<metric>". It returns nil when the region has no columns.
func (t *Table) Subregion(region string) *Table {
	prefix := region + " "
	sub := newTable(t.Years())
	for _, col := range t.columns {
		if !strings.HasPrefix(col, prefix) {
			continue
		}
		name := strings.TrimPrefix(col, prefix)
		if name == "" {
			continue
		}
		points := make([]Point, len(t.values[col]))
		copy(points, t.values[col])
		sub.setColumn(name, points)
	}
	if len(sub.columns) == 0 {
		return nil
	}
	return sub
}

// ForwardFill replaces each missing value with the most recent prior valid
// value. Leading missing values stay missing.
func ForwardFill(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	var last float64
	seen := false
	for i := range out {
		if out[i].Valid {
			last = out[i].Value
			seen = true
			continue
		}
		if seen {
			out[i].Value = last
			out[i].Valid = true
		}
	}
	return out
}
