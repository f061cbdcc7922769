package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ domain.SessionStore = (*MongoSessionStore)(nil)

type MongoSessionStore struct {
	coll *mongo.Collection
}

func NewMongoSessionStore(coll *mongo.Collection) *MongoSessionStore {
	return &MongoSessionStore{coll: coll}
}

func (s *MongoSessionStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var session domain.Session
	if err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return &session, nil
}

func (s *MongoSessionStore) Save(ctx context.Context, session domain.Session) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": session.UserID}, session, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
