package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.OTPStore = (*MongoOTPStore)(nil)

// MongoOTPStore keeps passes in a collection with a unique (owner, pass)
// index and a TTL index on expiresAt.
type MongoOTPStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoOTPStore(coll *mongo.Collection) *MongoOTPStore {
	return &MongoOTPStore{coll: coll, now: time.Now}
}

func (s *MongoOTPStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "pass", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create otp indexes: %w", err)
	}
	return nil
}

// Save upserts only over an expired document. A live document makes the
// upsert collide with the unique index, which is reported as a conflict.
func (s *MongoOTPStore) Save(ctx context.Context, owner, pass string, payload domain.Event, ttl time.Duration) error {
	now := s.now()
	filter := bson.M{
		"owner":     owner,
		"pass":      pass,
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"payload":   payload,
		"createdAt": now,
		"expiresAt": now.Add(ttl),
	}}

	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrPassConflict
		}
		return fmt.Errorf("failed to save pass: %w", err)
	}
	return nil
}

func (s *MongoOTPStore) Verify(ctx context.Context, owner, pass string) (*domain.Event, error) {
	return decodePass(s.coll.FindOne(ctx, s.liveFilter(owner, pass)))
}

// Consume removes the live document with FindOneAndDelete, so only one
// caller receives the payload.
func (s *MongoOTPStore) Consume(ctx context.Context, owner, pass string) (*domain.Event, error) {
	return decodePass(s.coll.FindOneAndDelete(ctx, s.liveFilter(owner, pass)))
}

func (s *MongoOTPStore) liveFilter(owner, pass string) bson.M {
	return bson.M{
		"owner":     owner,
		"pass":      pass,
		"expiresAt": bson.M{"$gt": s.now()},
	}
}

func decodePass(res *mongo.SingleResult) (*domain.Event, error) {
	var entry domain.OTPEntry
	if err := res.Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pass: %w", err)
	}

	if err := entry.Payload.Validate(); err != nil {
		return nil, fmt.Errorf("stored payload: %w", err)
	}
	return &entry.Payload, nil
}

func (s *MongoOTPStore) Cleanup(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": s.now()}})
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup passes: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoOTPStore) Active(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"expiresAt": bson.M{"$gt": s.now()}})
	if err != nil {
		return 0, fmt.Errorf("failed to count passes: %w", err)
	}
	return int(n), nil
}
