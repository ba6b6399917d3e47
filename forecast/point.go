package forecast

import "ecopulse-analytics-api/dataset"

// ForecastPoint is a single-year value. IsActual marks an observed value.
type ForecastPoint struct {
	Year     int
	Value    float64
	IsActual bool
}

// PointAt returns the observed value for year when present. Otherwise it
// evaluates an OLS line fitted over every observed point, which covers years
// before, inside and after the observed range alike. A series without
// observations, or one the line cannot be fitted to, yields 0.
func PointAt(s dataset.Series, year int) ForecastPoint {
	if v, ok := s.At(year); ok {
		return ForecastPoint{Year: year, Value: v, IsActual: true}
	}
	obs := s.Observed()
	if len(obs) == 0 {
		return ForecastPoint{Year: year}
	}
	line, err := FitLine(obs)
	if err != nil {
		return ForecastPoint{Year: year}
	}
	v := line.At(float64(year))
	if !finite(v) {
		return ForecastPoint{Year: year}
	}
	return ForecastPoint{Year: year, Value: v}
}
