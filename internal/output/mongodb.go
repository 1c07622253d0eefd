// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// MongoSink writes the record set into a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoSink connects to MongoDB and returns a sink for the collection.
func NewMongoSink(dsn, database, collection string) (*MongoSink, error) {
	if dsn == "" || database == "" || collection == "" {
		return nil, fmt.Errorf("mongodb sink requires dsn, database and collection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoSink{client: client, database: database, collection: collection}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) Write(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(records))
	for _, rec := range records {
		doc := bson.M{}
		for _, col := range columns() {
			if v, ok := rec[col]; ok {
				doc[col] = v
			}
		}
		docs = append(docs, doc)
	}

	coll := s.client.Database(s.database).Collection(s.collection)
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert into %s.%s: %w", s.database, s.collection, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoSink) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}
