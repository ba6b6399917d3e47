package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ecopulse-analytics-api/dataset"
)

// ErrModelNotFound is returned when no trained parameters exist for a target.
var ErrModelNotFound = errors.New("model not found")

const (
	PopulationColumn   = "Population (in millions)"
	NonRenewableColumn = "Non-Renewable Energy (GWh)"
	GDPColumn          = "Gross Domestic Product"
)

// DefaultFeatures are the predictors every trend model is trained on.
var DefaultFeatures = []string{dataset.YearColumn, PopulationColumn, NonRenewableColumn}

// Targets are the energy sources with a trend model.
var Targets = []string{
	"Geothermal (GWh)",
	"Hydro (GWh)",
	"Biomass (GWh)",
	"Solar (GWh)",
	"Wind (GWh)",
}

// Evaluation holds held-out diagnostics. They are informational only.
type Evaluation struct {
	MAE       float64 `json:"mae"`
	MSE       float64 `json:"mse"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
}

// Params is a fitted linear trend model for one target column.
type Params struct {
	Target       string     `json:"target"`
	Features     []string   `json:"features"`
	Intercept    float64    `json:"intercept"`
	Coefficients []float64  `json:"coefficients"`
	Evaluation   Evaluation `json:"evaluation"`
	Version      string     `json:"version,omitempty"`
	TrainedAt    time.Time  `json:"trained_at"`
}

func (p *Params) Validate() error {
	if p.Target == "" {
		return errors.New("model has no target")
	}
	if len(p.Features) == 0 || len(p.Features) != len(p.Coefficients) {
		return fmt.Errorf("model %s: %d features for %d coefficients",
			p.Target, len(p.Features), len(p.Coefficients))
	}
	return nil
}

// Predict evaluates the model. Features absent from the map count as zero.
func (p *Params) Predict(features map[string]float64) float64 {
	y := p.Intercept
	for i, name := range p.Features {
		y += p.Coefficients[i] * features[name]
	}
	return y
}

// ParamStore reads and writes trained models keyed by target column.
type ParamStore interface {
	Load(ctx context.Context, target string) (*Params, error)
	Save(ctx context.Context, p *Params) error
}

// ModelKey is the storage key for a target, e.g. "solar_(gwh)".
func ModelKey(target string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(target)), " ", "_")
}

// TargetColumn maps a short source name such as "solar" to its column,
// "Solar (GWh)". Full column names pass through unchanged.
func TargetColumn(name string) string {
	name = strings.TrimSpace(name)
	for _, t := range Targets {
		if strings.EqualFold(name, t) || strings.EqualFold(name, strings.TrimSuffix(t, " (GWh)")) {
			return t
		}
	}
	if strings.HasSuffix(name, "(GWh)") || name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:] + " (GWh)"
}
