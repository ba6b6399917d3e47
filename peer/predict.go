package peer

import (
	"fmt"
	"log"
	"math"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"
)

const (
	TotalGeneration = "Total Power Generation (GWh)"
	DefaultYear     = 2026
)

// DefaultMetrics are forecast for every subgrid.
var DefaultMetrics = []string{
	"Total Power Generation (GWh)",
	"Total Non-Renewable Energy (GWh)",
	"Total Renewable Energy (GWh)",
	"Geothermal (GWh)",
	"Hydro (GWh)",
	"Biomass (GWh)",
	"Solar (GWh)",
	"Wind (GWh)",
	"Visayas Total Power Consumption (GWh)",
}

var DefaultSubgrids = []string{"Bohol", "Cebu", "Negros", "Panay", "Leyte-Samar"}

// Config names the region whose aggregate columns drive the allocation and
// the subgrids and metrics to forecast.
type Config struct {
	Region   string
	Subgrids []string
	Metrics  []string
}

func DefaultConfig() Config {
	return Config{Region: "Visayas", Subgrids: DefaultSubgrids, Metrics: DefaultMetrics}
}

func (c Config) AggregateGeneration() string {
	return c.Region + " Total Power Generation (GWh)"
}

func (c Config) AggregateConsumption() string {
	return c.Region + " Total Power Consumption (GWh)"
}

// Record is one row of the long peer forecast table.
type Record struct {
	Year       int
	Place      string
	EnergyType string
	Value      float64
}

func ConsumptionEnergyType(place string) string {
	return fmt.Sprintf("%s Estimated Consumption (GWh)", place)
}

// Predict forecasts every configured metric for every subgrid and year in
// [start, end], plus a consumption estimate allocated from the aggregate
// region columns. A row that cannot be computed is skipped without affecting
// the others.
func Predict(table *dataset.Table, cfg Config, start, end int) []Record {
	if table == nil {
		return nil
	}
	if end < start {
		end = start
	}

	subgrids := make(map[string]*dataset.Table, len(cfg.Subgrids))
	for _, place := range cfg.Subgrids {
		sub := table.Subregion(place)
		if sub == nil {
			log.Printf("no data found for subgrid %s", place)
			continue
		}
		subgrids[place] = sub
	}
	aggGen, hasAggGen := table.Series(cfg.AggregateGeneration())
	aggCons, hasAggCons := table.Series(cfg.AggregateConsumption())

	var out []Record
	for year := start; year <= end; year++ {
		var genForecast, consForecast float64
		if hasAggGen {
			genForecast = forecast.PointAt(aggGen, year).Value
		}
		if hasAggCons {
			consForecast = forecast.PointAt(aggCons, year).Value
		}

		for _, place := range cfg.Subgrids {
			sub, ok := subgrids[place]
			if !ok {
				continue
			}

			if s, ok := sub.Series(TotalGeneration); ok {
				gen := forecast.PointAt(s, year).Value
				out = appendRecord(out, Record{Year: year, Place: place, EnergyType: TotalGeneration, Value: gen})

				if hasAggGen && hasAggCons {
					if cons, ok := Allocate(gen, genForecast, consForecast); ok {
						out = append(out, Record{Year: year, Place: place, EnergyType: ConsumptionEnergyType(place), Value: cons})
					}
				}
			}

			for _, metric := range cfg.Metrics {
				if metric == TotalGeneration {
					continue
				}
				s, ok := sub.Series(metric)
				if !ok {
					continue
				}
				out = appendRecord(out, Record{Year: year, Place: place, EnergyType: metric, Value: forecast.PointAt(s, year).Value})
			}
		}
	}
	return out
}

func appendRecord(out []Record, r Record) []Record {
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		log.Printf("skipping %s %s %d: value not finite", r.Place, r.EnergyType, r.Year)
		return out
	}
	return append(out, r)
}
