package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	otpCollection     = "otp_passes"
	sessionCollection = "line_sessions"
)

type MongoService struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoService(ctx context.Context, uri, database string) (*MongoService, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoService{client: client, db: client.Database(database)}, nil
}

func (m *MongoService) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func (m *MongoService) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
