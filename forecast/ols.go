package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"ecopulse-analytics-api/dataset"
)

var errDegenerate = errors.New("degenerate regression input")

// Line is y = Intercept + Slope*x.
type Line struct {
	Intercept float64
	Slope     float64
}

func (l Line) At(x float64) float64 { return l.Intercept + l.Slope*x }

// FitLine fits an ordinary least squares line of value against year.
func FitLine(points []dataset.Point) (Line, error) {
	if len(points) < 2 {
		return Line{}, errDegenerate
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Year)
		ys[i] = p.Value
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !finite(alpha) || !finite(beta) {
		return Line{}, errDegenerate
	}
	return Line{Intercept: alpha, Slope: beta}, nil
}

// LeastSquares fits y = intercept + X·coef with an intercept term. Each row
// of x is one observation. Columns are centered before solving, and the
// minimum-norm solution is taken when the design is rank deficient.
func LeastSquares(x [][]float64, y []float64) (float64, []float64, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0, nil, errDegenerate
	}
	k := len(x[0])
	means := make([]float64, k)
	for _, row := range x {
		if len(row) != k {
			return 0, nil, errDegenerate
		}
		for j, v := range row {
			means[j] += v / float64(n)
		}
	}
	ym := stat.Mean(y, nil)

	coef := make([]float64, k)
	if k == 0 {
		return ym, coef, nil
	}

	a := mat.NewDense(n, k, nil)
	for i, row := range x {
		for j, v := range row {
			a.Set(i, j, v-means[j])
		}
	}
	b := mat.NewVecDense(n, nil)
	for i, v := range y {
		b.SetVec(i, v-ym)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return 0, nil, errDegenerate
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	// Pseudo-inverse solve, dropping singular values below tolerance.
	var utb mat.VecDense
	utb.MulVec(u.T(), b)
	tol := 1e-12 * sv[0]
	scaled := mat.NewVecDense(len(sv), nil)
	for i, s := range sv {
		if s > tol {
			scaled.SetVec(i, utb.AtVec(i)/s)
		}
	}
	var beta mat.VecDense
	beta.MulVec(&v, scaled)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}

	intercept := ym
	for j, c := range coef {
		if !finite(c) {
			return 0, nil, errDegenerate
		}
		intercept -= c * means[j]
	}
	return intercept, coef, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
