package models

// Field names of national energy records.
const (
	FieldYear         = "Year"
	FieldIsPredicted  = "isPredicted"
	FieldIsDeleted    = "isDeleted"
	FieldTotalRenew   = "Total Renewable Energy (GWh)"
	FieldTotalPower   = "Total Power Generation (GWh)"
	FieldNonRenewable = "Non-Renewable Energy (GWh)"
	FieldGeothermal   = "Geothermal (GWh)"
	FieldHydro        = "Hydro (GWh)"
	FieldBiomass      = "Biomass (GWh)"
	FieldSolar        = "Solar (GWh)"
	FieldWind         = "Wind (GWh)"
	FieldPopulation   = "Population (in millions)"
	FieldGDP          = "Gross Domestic Product"
)

// RenewableSources are summed into FieldTotalRenew.
var RenewableSources = []string{FieldGeothermal, FieldHydro, FieldBiomass, FieldSolar, FieldWind}

// Record change event types.
const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
	EventRecovered = "recovered"
	EventRetrained = "retrained"
)

// ModelsCollection names retrained model events, which carry the target
// column as their key.
const ModelsCollection = "models"

// RecordEvent is published on the records channel after every write.
type RecordEvent struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	Key        string `json:"key"`
}
