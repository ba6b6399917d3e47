package services

import (
	"context"
	"testing"

	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/modelstore"
	"ecopulse-analytics-api/peer"
)

type recordingInvalidator struct{ targets []string }

func (r *recordingInvalidator) Invalidate(target string) { r.targets = append(r.targets, target) }

func TestModelEventTarget(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		ok      bool
	}{
		{"retrained", `{"type":"retrained","collection":"models","key":"Solar (GWh)"}`, "Solar (GWh)", true},
		{"record write", `{"type":"updated","collection":"predictiveAnalysis","key":"2020"}`, "", false},
		{"retrained without key", `{"type":"retrained","collection":"models"}`, "", false},
		{"malformed", `{`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ModelEventTarget([]byte(tt.payload))
			if ok != tt.ok || got != tt.want {
				t.Errorf("ModelEventTarget() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestApplyModelEvent(t *testing.T) {
	cache := &CacheService{}
	inv := &recordingInvalidator{}

	if cache.applyModelEvent(context.Background(), inv, []byte(`{"type":"created","collection":"peertopeer","key":"x"}`)) {
		t.Error("record events should not invalidate models")
	}
	if !cache.applyModelEvent(context.Background(), inv, []byte(`{"type":"retrained","collection":"models","key":"Wind (GWh)"}`)) {
		t.Fatal("retrained event not applied")
	}
	if len(inv.targets) != 1 || inv.targets[0] != "Wind (GWh)" {
		t.Errorf("invalidated = %v", inv.targets)
	}
}

func TestRetrainEventRefreshesAnalyticsModel(t *testing.T) {
	ctx := context.Background()
	backend := modelstore.NewMemory(&forecast.Params{
		Target:       "Solar (GWh)",
		Features:     forecast.DefaultFeatures,
		Coefficients: []float64{0, 0, 0},
		Intercept:    1,
		Version:      "v1",
	})
	params, err := modelstore.NewCached(backend, 4, 0)
	if err != nil {
		t.Fatalf("NewCached() error: %v", err)
	}
	a := NewAnalytics(AnalyticsSources{Records: nationalRows()}, params, peer.DefaultConfig())

	if _, rows, err := a.NationalForecast(ctx, "solar", 2030, 2030); err != nil || rows[0].Predicted != 1 {
		t.Fatalf("first forecast = %+v, %v", rows, err)
	}

	// another process saves straight to the backend
	if err := backend.Save(ctx, &forecast.Params{
		Target:       "Solar (GWh)",
		Features:     forecast.DefaultFeatures,
		Coefficients: []float64{0, 0, 0},
		Intercept:    9,
		Version:      "v2",
	}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	(&CacheService{}).applyModelEvent(ctx, params, []byte(`{"type":"retrained","collection":"models","key":"Solar (GWh)"}`))

	_, rows, err := a.NationalForecast(ctx, "solar", 2030, 2030)
	if err != nil {
		t.Fatalf("NationalForecast() error: %v", err)
	}
	if rows[0].Predicted != 9 {
		t.Errorf("forecast after retrain = %v, want the v2 intercept 9", rows[0].Predicted)
	}
}
