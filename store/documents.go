package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/models"
)

// Documents is a collection of free-form records addressed by ObjectID.
type Documents struct {
	coll  *mongo.Collection
	retry RetryPolicy
	// intYear stores Year as an integer on every write.
	intYear bool
}

func (d *Documents) Name() string { return d.coll.Name() }

// Rows returns every document as a raw table row.
func (d *Documents) Rows(ctx context.Context) ([]dataset.Row, error) {
	return findRows(ctx, d.coll, d.retry, d.Name()+" find", bson.M{})
}

// Page bounds a listing. Limit 0 returns every match in stored order;
// otherwise results are newest first, older than Before when it is set.
type Page struct {
	Limit  int64
	Before string
}

func (d *Documents) List(ctx context.Context, filter bson.M, page Page) ([]bson.M, error) {
	filter = cloneDoc(filter)
	opts := options.Find()
	if page.Before != "" {
		id, err := parseID(page.Before)
		if err != nil {
			return nil, err
		}
		filter["_id"] = bson.M{"$lt": id}
	}
	if page.Limit > 0 {
		opts.SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(page.Limit)
	}

	var docs []bson.M
	err := d.retry.Do(ctx, d.Name()+" list", func(ctx context.Context) error {
		cur, err := d.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		publicDoc(doc)
	}
	return docs, nil
}

func (d *Documents) Get(ctx context.Context, id string) (bson.M, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = d.retry.Do(ctx, d.Name()+" get", func(ctx context.Context) error {
		return d.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return publicDoc(doc), nil
}

func (d *Documents) Create(ctx context.Context, doc bson.M) (string, error) {
	return insertDoc(ctx, d.coll, d.retry, d.Name()+" insert", d.prepare(doc))
}

// Update sets the given fields on a document. An _id in fields is ignored.
func (d *Documents) Update(ctx context.Context, id string, fields bson.M) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	fields = d.prepare(fields)
	if len(fields) == 0 {
		return nil
	}
	var res *mongo.UpdateResult
	err = d.retry.Do(ctx, d.Name()+" update", func(ctx context.Context) error {
		var err error
		res, err = d.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
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

func (d *Documents) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	var res *mongo.DeleteResult
	err = d.retry.Do(ctx, d.Name()+" delete", func(ctx context.Context) error {
		var err error
		res, err = d.coll.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Documents) prepare(doc bson.M) bson.M {
	doc = cloneDoc(doc)
	delete(doc, "_id")
	if d.intYear {
		if y, ok := dataset.ParseYear(doc[models.FieldYear]); ok {
			doc[models.FieldYear] = y
		}
	}
	return doc
}
