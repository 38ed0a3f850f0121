package mongox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Open connects to uri, verifies the primary is reachable and returns the named database.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	if uri == "" || database == "" {
		return nil, nil, errors.New("mongo uri and database are required")
	}
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(20)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(database), nil
}

func ReadyCheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("mongo not configured")
		}
		return client.Ping(ctx, readpref.Primary())
	}
}
