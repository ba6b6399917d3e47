package services

import (
	"context"
	"fmt"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/metrics"
	"ecopulse-analytics-api/peer"
	"ecopulse-analytics-api/recommend"
)

// Analytics wires data sources and model parameters to the forecasting
// engines. Every call reloads its table so results track the stored data.
type Analytics struct {
	records dataset.Source
	peer    dataset.Source
	costs   dataset.Source
	params  forecast.ParamStore
	peerCfg peer.Config
}

type AnalyticsSources struct {
	Records dataset.Source
	Peer    dataset.Source
	Costs   dataset.Source
}

func NewAnalytics(src AnalyticsSources, params forecast.ParamStore, peerCfg peer.Config) *Analytics {
	return &Analytics{
		records: src.Records,
		peer:    src.Peer,
		costs:   src.Costs,
		params:  params,
		peerCfg: peerCfg,
	}
}

// NationalForecast resolves a short target name ("solar") to its column,
// loads its model and forecasts [start, end].
func (a *Analytics) NationalForecast(ctx context.Context, target string, start, end int) (string, []forecast.TrendRow, error) {
	column := forecast.TargetColumn(target)
	params, err := a.params.Load(ctx, column)
	if err != nil {
		metrics.ForecastsFailed.WithLabelValues("national").Inc()
		return column, nil, err
	}
	table, err := dataset.Load(ctx, a.records)
	if err != nil {
		metrics.ForecastsFailed.WithLabelValues("national").Inc()
		return column, nil, err
	}
	rows, err := forecast.Trend(table, params, start, end)
	if err != nil {
		metrics.ForecastsFailed.WithLabelValues("national").Inc()
		return column, nil, fmt.Errorf("forecast %s: %w", column, err)
	}
	metrics.ForecastsGenerated.WithLabelValues("national").Inc()
	return column, rows, nil
}

func (a *Analytics) PeerForecast(ctx context.Context, start, end int) ([]peer.Record, error) {
	table, err := dataset.Load(ctx, a.peer)
	if err != nil {
		metrics.ForecastsFailed.WithLabelValues("peer").Inc()
		return nil, err
	}
	records := peer.Predict(table, a.peerCfg, start, end)
	metrics.ForecastsGenerated.WithLabelValues("peer").Inc()
	metrics.PeerRowsEmitted.Add(float64(len(records)))
	return records, nil
}

// Recommend fits the cost and rate curves on the current data and derives
// the investment snapshot for budget in year.
func (a *Analytics) Recommend(ctx context.Context, year int, budget float64) (recommend.Recommendation, error) {
	table, err := dataset.Load(ctx, a.costs)
	if err != nil {
		metrics.ForecastsFailed.WithLabelValues("recommendation").Inc()
		return recommend.Recommendation{}, err
	}
	engine, err := recommend.Fit(table)
	if err != nil {
		metrics.ForecastsFailed.WithLabelValues("recommendation").Inc()
		return recommend.Recommendation{}, err
	}
	metrics.ForecastsGenerated.WithLabelValues("recommendation").Inc()
	return engine.Recommend(budget, year), nil
}
