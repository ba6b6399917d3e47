package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"

	"github.com/google/uuid"
)

// TrainAll fits every target on one snapshot of src and saves each model
// under a fresh version. A failing target does not stop the others.
func TrainAll(ctx context.Context, src dataset.Source, params forecast.ParamStore, targets, features []string, opts forecast.TrainOptions, now time.Time) ([]*forecast.Params, error) {
	table, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	var trained []*forecast.Params
	var errs []error
	for _, target := range targets {
		p, err := forecast.Train(table, features, target, opts)
		if err != nil {
			log.Printf("train %s: %v", target, err)
			errs = append(errs, fmt.Errorf("train %s: %w", target, err))
			continue
		}
		p.Version = uuid.NewString()
		p.TrainedAt = now
		if err := params.Save(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", target, err))
			continue
		}
		log.Printf("%s: MAE=%.4f MSE=%.4f (train=%d test=%d) version=%s",
			target, p.Evaluation.MAE, p.Evaluation.MSE, p.Evaluation.TrainRows, p.Evaluation.TestRows, p.Version)
		trained = append(trained, p)
	}
	return trained, errors.Join(errs...)
}
