package recommend

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"
)

// ErrModelFit is returned when a cost or rate curve cannot be fitted.
var ErrModelFit = errors.New("model fit failed")

// DecayCurve is cost(year) = A*exp(-B*(year-Origin)) + C.
type DecayCurve struct {
	A, B, C float64
	Origin  int
}

func (d DecayCurve) At(year int) float64 {
	return d.A*math.Exp(-d.B*float64(year-d.Origin)) + d.C
}

// Starting decay rates tried before the simplex search.
var decaySeeds = []float64{-0.5, -0.1, 0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 1, 2}

// FitDecay fits a DecayCurve by nonlinear least squares. For a fixed B the
// curve is linear in A and C, so only B is searched and A, C are solved
// exactly at each step.
func FitDecay(points []dataset.Point) (DecayCurve, error) {
	if len(points) < 3 {
		return DecayCurve{}, fmt.Errorf("%w: decay curve needs 3 points, have %d", ErrModelFit, len(points))
	}
	origin := points[0].Year
	for _, p := range points {
		origin = min(origin, p.Year)
	}
	ts := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		ts[i] = float64(p.Year - origin)
		ys[i] = p.Value
	}

	solve := func(b float64) (a, c, sse float64) {
		e := make([]float64, len(ts))
		for i, t := range ts {
			e[i] = math.Exp(-b * t)
		}
		c, a = stat.LinearRegression(e, ys, nil, false)
		for i := range ys {
			r := ys[i] - (a*e[i] + c)
			sse += r * r
		}
		if math.IsNaN(sse) || math.IsInf(sse, 0) || math.IsNaN(a) || math.IsNaN(c) {
			return 0, 0, math.Inf(1)
		}
		return a, c, sse
	}

	best, bestSSE := 0.0, math.Inf(1)
	for _, b := range decaySeeds {
		if _, _, sse := solve(b); sse < bestSSE {
			best, bestSSE = b, sse
		}
	}
	if math.IsInf(bestSSE, 1) {
		return DecayCurve{}, fmt.Errorf("%w: no finite starting point for decay curve", ErrModelFit)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			_, _, sse := solve(x[0])
			return sse
		},
	}
	result, err := optimize.Minimize(problem, []float64{best}, nil, &optimize.NelderMead{})
	if err != nil {
		return DecayCurve{}, fmt.Errorf("%w: %v", ErrModelFit, err)
	}

	b := result.X[0]
	a, c, sse := solve(b)
	if math.IsInf(sse, 1) {
		return DecayCurve{}, fmt.Errorf("%w: decay curve diverged", ErrModelFit)
	}
	return DecayCurve{A: a, B: b, C: c, Origin: origin}, nil
}

// Quadratic is rate(year) = C0 + C1*x + C2*x^2 with x = year-Origin.
type Quadratic struct {
	C0, C1, C2 float64
	Origin     int
}

func (q Quadratic) At(year int) float64 {
	x := float64(year - q.Origin)
	return q.C0 + q.C1*x + q.C2*x*x
}

// FitQuadratic fits a degree-2 polynomial by least squares.
func FitQuadratic(points []dataset.Point) (Quadratic, error) {
	if len(points) < 3 {
		return Quadratic{}, fmt.Errorf("%w: quadratic needs 3 points, have %d", ErrModelFit, len(points))
	}
	origin := points[0].Year
	for _, p := range points {
		origin = min(origin, p.Year)
	}
	x := make([][]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		dx := float64(p.Year - origin)
		x[i] = []float64{dx, dx * dx}
		y[i] = p.Value
	}
	c0, coef, err := forecast.LeastSquares(x, y)
	if err != nil {
		return Quadratic{}, fmt.Errorf("%w: %v", ErrModelFit, err)
	}
	return Quadratic{C0: c0, C1: coef[0], C2: coef[1], Origin: origin}, nil
}
