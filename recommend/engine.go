package recommend

import (
	"fmt"
	"math"

	"ecopulse-analytics-api/dataset"
)

const (
	CostColumn = "Solar Cost (PHP/W)"
	RateColumn = "MERALCO Rate (PHP/kWh)"

	// CostFloor is the lowest installed cost per kW ever predicted.
	CostFloor     = 20000.0
	// DailyYieldKWh is the daily energy yield of one installed kW.
	DailyYieldKWh = 4.0

	wattsPerKW  = 1000
	daysPerYear = 365

	DefaultYear = 2026
)

// Recommendation is the full snapshot for one budget and year.
type Recommendation struct {
	Year                int
	Budget              float64
	SolarCost           float64
	Rate                float64
	CapacityKW          float64
	YearlyProductionKWh float64
	YearlySavings       float64
	ROIYears            float64
}

// Engine holds the fitted cost and rate curves.
type Engine struct {
	cost DecayCurve
	rate Quadratic
}

func NewEngine(cost DecayCurve, rate Quadratic) *Engine {
	return &Engine{cost: cost, rate: rate}
}

// Fit builds an engine from a table with per-watt solar cost and electricity
// rate columns. Cost is converted to a per-kW figure before fitting.
func Fit(table *dataset.Table) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no table", dataset.ErrDataUnavailable)
	}
	costSeries, ok := table.Series(CostColumn)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not in data", dataset.ErrDataUnavailable, CostColumn)
	}
	rateSeries, ok := table.Series(RateColumn)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not in data", dataset.ErrDataUnavailable, RateColumn)
	}

	costs := costSeries.Observed()
	for i := range costs {
		costs[i].Value *= wattsPerKW
	}
	cost, err := FitDecay(costs)
	if err != nil {
		return nil, fmt.Errorf("solar cost: %w", err)
	}
	rate, err := FitQuadratic(rateSeries.Observed())
	if err != nil {
		return nil, fmt.Errorf("electricity rate: %w", err)
	}
	return NewEngine(cost, rate), nil
}

// PredictCost never returns less than CostFloor.
func (e *Engine) PredictCost(year int) float64 {
	v := e.cost.At(year)
	if math.IsNaN(v) || v < CostFloor {
		return CostFloor
	}
	return v
}

// PredictRate never returns a negative rate.
func (e *Engine) PredictRate(year int) float64 {
	v := e.rate.At(year)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func (e *Engine) Recommend(budget float64, year int) Recommendation {
	return Derive(year, budget, e.PredictCost(year), e.PredictRate(year))
}

// Derive computes capacity, production, savings and payback for a budget.
// ROI is +Inf when there are no savings.
func Derive(year int, budget, cost, rate float64) Recommendation {
	r := Recommendation{Year: year, Budget: budget, SolarCost: cost, Rate: rate}
	if cost > 0 {
		r.CapacityKW = budget / cost
	}
	r.YearlyProductionKWh = r.CapacityKW * DailyYieldKWh * daysPerYear
	r.YearlySavings = r.YearlyProductionKWh * rate
	if r.YearlySavings > 0 {
		r.ROIYears = budget / r.YearlySavings
	} else {
		r.ROIYears = math.Inf(1)
	}
	return r
}
