package store

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/models"
)

// rowFromDoc keeps the document's field order. Nested values are left for
// the loader to treat as missing.
func rowFromDoc(doc bson.D) dataset.Row {
	row := make(dataset.Row, 0, len(doc))
	for _, e := range doc {
		row = append(row, dataset.Cell{Name: e.Key, Value: e.Value})
	}
	return row
}

// publicDoc renders a document for JSON output with a hex _id.
func publicDoc(doc bson.M) bson.M {
	if id, ok := doc["_id"].(primitive.ObjectID); ok {
		doc["_id"] = id.Hex()
	}
	return doc
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

func numeric(v any) float64 {
	f, ok := dataset.Coerce(v)
	if !ok {
		return 0
	}
	return f
}

// RecomputeTotals derives the renewable and overall totals for an update.
// Each term comes from the update when present, else from the stored record.
func RecomputeTotals(existing, update bson.M) bson.M {
	term := func(field string) float64 {
		if v, ok := update[field]; ok {
			return numeric(v)
		}
		return numeric(existing[field])
	}
	renewable := 0.0
	for _, f := range models.RenewableSources {
		renewable += term(f)
	}
	out := bson.M{}
	for k, v := range update {
		out[k] = v
	}
	out[models.FieldTotalRenew] = renewable
	out[models.FieldTotalPower] = renewable + term(models.FieldNonRenewable)
	return out
}

// YearRangeFilter matches documents whose year or Year falls within
// [start, end]. Zero bounds are open.
func YearRangeFilter(start, end int) bson.M {
	if start == 0 && end == 0 {
		return bson.M{}
	}
	cond := bson.M{}
	if start != 0 {
		cond["$gte"] = start
	}
	if end != 0 {
		cond["$lte"] = end
	}
	return bson.M{"$or": bson.A{
		bson.M{"year": cond},
		bson.M{models.FieldYear: cond},
	}}
}
