package forecast

import (
	"fmt"
	"log"
	"math"
	"strings"

	"ecopulse-analytics-api/dataset"
)

const (
	DefaultStartYear = 2024
	DefaultEndYear   = 2040

	// Assumed annual GDP growth when the history cannot produce one.
	fallbackGDPGrowth   = 0.03
	// Value used for a model feature the table does not carry.
	missingFeatureValue = 1.0
)

// TrendRow is one year of a national forecast. Features holds the predictor
// values used for the year, excluding the year itself.
type TrendRow struct {
	Year      int
	Predicted float64
	IsActual  bool
	Features  map[string]float64
}

// projection compounds a feature forward from its last observed value.
type projection struct {
	last     float64
	growth   float64
	lastYear int
}

func (p projection) at(year int) float64 {
	return p.last * math.Pow(1+p.growth, float64(year-p.lastYear))
}

// ClampRange applies the default range to zero bounds and lifts an end year
// that precedes the start year up to the start year.
func ClampRange(start, end int) (int, int) {
	if start == 0 {
		start = DefaultStartYear
	}
	if end == 0 {
		end = DefaultEndYear
	}
	if end < start {
		end = start
	}
	return start, end
}

// Trend forecasts the model's target over [start, end]. Predictor features
// are projected with their mean historical year-over-year growth. Years
// present in the table use the observed features and the observed target.
func Trend(table *dataset.Table, params *Params, start, end int) ([]TrendRow, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("%w: no table", dataset.ErrDataUnavailable)
	}
	lastYear, ok := table.LastYear()
	if !ok {
		return nil, fmt.Errorf("%w: empty table", dataset.ErrDataUnavailable)
	}
	if end < start {
		end = start
	}

	projections := make(map[string]projection, len(params.Features))
	for _, name := range params.Features {
		if name == dataset.YearColumn {
			continue
		}
		projections[name] = projectFeature(table, name, lastYear)
	}

	targetCol := ObservedTargetColumn(table.Columns())

	rows := make([]TrendRow, 0, end-start+1)
	for year := start; year <= end; year++ {
		feats := map[string]float64{dataset.YearColumn: float64(year)}
		for name, p := range projections {
			feats[name] = p.at(year)
		}
		predicted := params.Predict(feats)

		actual := table.HasYear(year)
		if actual {
			for name := range projections {
				if v, ok := table.Value(name, year); ok {
					feats[name] = v
				}
			}
			if targetCol != "" {
				if v, ok := table.Value(targetCol, year); ok {
					predicted = v
				}
			}
		}

		delete(feats, dataset.YearColumn)
		rows = append(rows, TrendRow{Year: year, Predicted: predicted, IsActual: actual, Features: feats})
	}
	return rows, nil
}

func projectFeature(table *dataset.Table, name string, lastYear int) projection {
	s, ok := table.Series(name)
	last, hasLast := s.Last()
	if !ok || !hasLast || !last.Valid {
		log.Printf("feature %q not in data, using %.1f", name, missingFeatureValue)
		return projection{last: missingFeatureValue, lastYear: lastYear}
	}

	growth, ok := MeanGrowth(s)
	if !ok {
		if name == GDPColumn {
			log.Printf("no usable %s history, assuming %.0f%% growth", name, fallbackGDPGrowth*100)
			growth = fallbackGDPGrowth
		} else {
			growth = 0
		}
	}
	return projection{last: last.Value, growth: growth, lastYear: lastYear}
}

// MeanGrowth averages the finite fractional changes between consecutive
// years. ok is false when no change can be computed.
func MeanGrowth(s dataset.Series) (float64, bool) {
	var sum float64
	n := 0
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1], s.Points[i]
		if !prev.Valid || !cur.Valid || prev.Value == 0 {
			continue
		}
		r := (cur.Value - prev.Value) / prev.Value
		if !finite(r) {
			continue
		}
		sum += r
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ObservedTargetColumn picks the first "(GWh)" column that is neither a
// total nor the non-renewable column.
func ObservedTargetColumn(columns []string) string {
	for _, c := range columns {
		if strings.Contains(c, "(GWh)") && !strings.Contains(c, "Non-Renewable") && !strings.Contains(c, "Total") {
			return c
		}
	}
	return ""
}
