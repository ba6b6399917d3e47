package models

import "time"

// TrendModel is a trained national trend model. Features and Coefficients
// are JSON arrays of equal length.
type TrendModel struct {
	ModelKey     string    `gorm:"column:model_key;primaryKey" json:"model_key"`
	Target       string    `gorm:"column:target" json:"target"`
	Features     string    `gorm:"column:features;type:jsonb" json:"features"`
	Coefficients string    `gorm:"column:coefficients;type:jsonb" json:"coefficients"`
	Intercept    float64   `gorm:"column:intercept" json:"intercept"`
	MAE          float64   `gorm:"column:mae" json:"mae"`
	MSE          float64   `gorm:"column:mse" json:"mse"`
	TrainRows    int       `gorm:"column:train_rows" json:"train_rows"`
	TestRows     int       `gorm:"column:test_rows" json:"test_rows"`
	ModelVersion string    `gorm:"column:model_version" json:"model_version"`
	TrainedAt    time.Time `gorm:"column:trained_at" json:"trained_at"`
}

func (TrendModel) TableName() string { return "trend_models" }
