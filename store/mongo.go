package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/dataset"
)

// ErrNotFound is returned when no document matches a lookup.
var ErrNotFound = errors.New("record not found")

// ErrInvalidID is returned for a malformed document id.
var ErrInvalidID = errors.New("invalid record id")

const (
	RecordsCollection         = "predictiveAnalysis"
	PeerCollection            = "peertopeer"
	RecommendationsCollection = "recommendation"
)

// Store is a connected document database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	retry  RetryPolicy
}

// Connect dials the database and pings it under the retry policy. A store
// that stays unreachable is reported as dataset.ErrDataUnavailable.
func Connect(ctx context.Context, cfg config.MongoConfig, policy RetryPolicy) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", dataset.ErrDataUnavailable, err)
	}

	err = policy.Do(ctx, "mongo ping", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", dataset.ErrDataUnavailable, err)
	}

	log.Printf("mongo connected: db=%s", cfg.Database)
	return &Store{client: client, db: client.Database(cfg.Database), retry: policy}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Records() *Records {
	return &Records{coll: s.db.Collection(RecordsCollection), retry: s.retry.forMongo()}
}

func (s *Store) Peer() *Documents {
	return &Documents{coll: s.db.Collection(PeerCollection), retry: s.retry.forMongo()}
}

func (s *Store) Recommendations() *Documents {
	return &Documents{coll: s.db.Collection(RecommendationsCollection), retry: s.retry.forMongo(), intYear: true}
}

// retryableMongo skips retries for failures another attempt cannot fix.
func retryableMongo(err error) bool {
	if errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err) {
		return false
	}
	var we mongo.WriteException
	return !errors.As(err, &we)
}

func (p RetryPolicy) forMongo() RetryPolicy {
	if p.Retryable == nil {
		p.Retryable = retryableMongo
	}
	return p
}
