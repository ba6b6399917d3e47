package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/models"
)

// Records is the national energy record collection, one document per year.
type Records struct {
	coll  *mongo.Collection
	retry RetryPolicy
}

// Rows returns every record that is not soft-deleted, in stored order.
func (r *Records) Rows(ctx context.Context) ([]dataset.Row, error) {
	return findRows(ctx, r.coll, r.retry, "records find", bson.M{models.FieldIsDeleted: bson.M{"$ne": true}})
}

// Create stores a new observed record and returns its id.
func (r *Records) Create(ctx context.Context, doc bson.M) (string, error) {
	doc = cloneDoc(doc)
	delete(doc, "_id")
	doc[models.FieldIsPredicted] = false
	if y, ok := dataset.ParseYear(doc[models.FieldYear]); ok {
		doc[models.FieldYear] = y
	}
	return insertDoc(ctx, r.coll, r.retry, "records insert", doc)
}

// UpdateByYear applies update to the record for year and recomputes the
// renewable and generation totals. It returns the fields written.
func (r *Records) UpdateByYear(ctx context.Context, year int, update bson.M) (bson.M, error) {
	var existing bson.M
	err := r.retry.Do(ctx, "records find one", func(ctx context.Context) error {
		return r.coll.FindOne(ctx, bson.M{models.FieldYear: year}).Decode(&existing)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	update = cloneDoc(update)
	delete(update, "_id")
	delete(update, models.FieldYear)
	fields := RecomputeTotals(existing, update)

	if err := r.set(ctx, year, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SetDeleted soft-deletes or recovers the record for year.
func (r *Records) SetDeleted(ctx context.Context, year int, deleted bool) error {
	return r.set(ctx, year, bson.M{models.FieldIsDeleted: deleted})
}

func (r *Records) set(ctx context.Context, year int, fields bson.M) error {
	var res *mongo.UpdateResult
	err := r.retry.Do(ctx, "records update", func(ctx context.Context) error {
		var err error
		res, err = r.coll.UpdateOne(ctx, bson.M{models.FieldYear: year}, bson.M{"$set": fields})
		return err
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findRows(ctx context.Context, coll *mongo.Collection, retry RetryPolicy, op string, filter bson.M) ([]dataset.Row, error) {
	var docs []bson.D
	err := retry.Do(ctx, op, func(ctx context.Context) error {
		cur, err := coll.Find(ctx, filter)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, errors.Join(dataset.ErrDataUnavailable, err)
	}
	rows := make([]dataset.Row, len(docs))
	for i, d := range docs {
		rows[i] = rowFromDoc(d)
	}
	return rows, nil
}

func insertDoc(ctx context.Context, coll *mongo.Collection, retry RetryPolicy, op string, doc bson.M) (string, error) {
	var res *mongo.InsertOneResult
	err := retry.Do(ctx, op, func(ctx context.Context) error {
		var err error
		res, err = coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return "", err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		return id.Hex(), nil
	}
	return "", nil
}

func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
