package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"ecopulse-analytics-api/dataset"
)

// ErrInsufficientData is returned when too few complete rows remain to train.
var ErrInsufficientData = errors.New("insufficient training data")

type TrainOptions struct {
	TestFraction float64
	Seed         int64
}

var DefaultTrainOptions = TrainOptions{TestFraction: 0.2, Seed: 42}

// Train fits an OLS model of target against features. Rows missing any value
// are dropped. A shuffled fraction of the rows is held out for MAE and MSE.
func Train(table *dataset.Table, features []string, target string, opts TrainOptions) (*Params, error) {
	for _, name := range append([]string{target}, features...) {
		if name != dataset.YearColumn && !table.Has(name) {
			return nil, fmt.Errorf("%w: column %q not in data", ErrInsufficientData, name)
		}
	}

	var x [][]float64
	var y []float64
	for _, year := range table.Years() {
		tv, ok := table.Value(target, year)
		if !ok {
			continue
		}
		row, ok := featureRow(table, features, year)
		if !ok {
			continue
		}
		x = append(x, row)
		y = append(y, tv)
	}

	n := len(y)
	nTest := int(math.Ceil(opts.TestFraction * float64(n)))
	if n < 2 || n-nTest < 1 {
		return nil, fmt.Errorf("%w: %d complete rows for %s", ErrInsufficientData, n, target)
	}

	perm := rand.New(rand.NewSource(opts.Seed)).Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i], trainY[i] = x[idx], y[idx]
	}

	intercept, coef, err := LeastSquares(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", target, err)
	}
	params := &Params{
		Target:       target,
		Features:     append([]string(nil), features...),
		Intercept:    intercept,
		Coefficients: coef,
	}

	pred := make([]float64, len(testIdx))
	actual := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		feats := make(map[string]float64, len(features))
		for j, name := range features {
			feats[name] = x[idx][j]
		}
		pred[i] = params.Predict(feats)
		actual[i] = y[idx]
	}
	params.Evaluation = Evaluation{TrainRows: len(trainIdx), TestRows: len(testIdx)}
	if len(testIdx) > 0 {
		m := float64(len(testIdx))
		dist := floats.Distance(pred, actual, 2)
		params.Evaluation.MAE = floats.Distance(pred, actual, 1) / m
		params.Evaluation.MSE = dist * dist / m
	}
	return params, nil
}

func featureRow(table *dataset.Table, features []string, year int) ([]float64, bool) {
	row := make([]float64, len(features))
	for j, name := range features {
		if name == dataset.YearColumn {
			row[j] = float64(year)
			continue
		}
		v, ok := table.Value(name, year)
		if !ok {
			return nil, false
		}
		row[j] = v
	}
	return row, true
}
