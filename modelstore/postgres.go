package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/models"
)

// PostgresStore keeps models in the trend_models table.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&models.TrendModel{}); err != nil {
		return nil, fmt.Errorf("migrate trend_models: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, target string) (*forecast.Params, error) {
	var row models.TrendModel
	err := s.db.WithContext(ctx).Where("model_key = ?", forecast.ModelKey(target)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", forecast.ErrModelNotFound, target)
	}
	if err != nil {
		return nil, fmt.Errorf("query model %s: %w", target, err)
	}
	return fromRow(row)
}

func (s *PostgresStore) Save(ctx context.Context, p *forecast.Params) error {
	row, err := toRow(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func toRow(p *forecast.Params) (models.TrendModel, error) {
	if err := p.Validate(); err != nil {
		return models.TrendModel{}, err
	}
	features, err := json.Marshal(p.Features)
	if err != nil {
		return models.TrendModel{}, err
	}
	coef, err := json.Marshal(p.Coefficients)
	if err != nil {
		return models.TrendModel{}, err
	}
	return models.TrendModel{
		ModelKey:     forecast.ModelKey(p.Target),
		Target:       p.Target,
		Features:     string(features),
		Coefficients: string(coef),
		Intercept:    p.Intercept,
		MAE:          p.Evaluation.MAE,
		MSE:          p.Evaluation.MSE,
		TrainRows:    p.Evaluation.TrainRows,
		TestRows:     p.Evaluation.TestRows,
		ModelVersion: p.Version,
		TrainedAt:    p.TrainedAt,
	}, nil
}

func fromRow(row models.TrendModel) (*forecast.Params, error) {
	p := &forecast.Params{
		Target:    row.Target,
		Intercept: row.Intercept,
		Evaluation: forecast.Evaluation{
			MAE:       row.MAE,
			MSE:       row.MSE,
			TrainRows: row.TrainRows,
			TestRows:  row.TestRows,
		},
		Version:   row.ModelVersion,
		TrainedAt: row.TrainedAt,
	}
	if err := json.Unmarshal([]byte(row.Features), &p.Features); err != nil {
		return nil, fmt.Errorf("decode features of %s: %w", row.ModelKey, err)
	}
	if err := json.Unmarshal([]byte(row.Coefficients), &p.Coefficients); err != nil {
		return nil, fmt.Errorf("decode coefficients of %s: %w", row.ModelKey, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
