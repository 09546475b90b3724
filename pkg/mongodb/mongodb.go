package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
)

// Store wraps the Mongo client and database handle shared by the repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// WithTransaction runs fn inside one multi-document transaction. The session
// is always released, and any error out of fn aborts the transaction before
// being returned. Repository calls inside fn must use the session context they
// receive, which is how one saga invocation scopes all its local writes.
func (s *Store) WithTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("start session: %w", err))
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil {
		// Keep typed domain errors intact; only untyped driver failures
		// collapse into a storage error.
		var ae *apperrors.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperrors.Storage(err)
	}
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on: uniqueness of
// one cart and one wishlist per customer, at most one reversal per order, and
// the owner/status lookups used by order listing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		"carts": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: unique},
		},
		"wishlists": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: unique},
		},
		"reversals": {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: unique},
		},
		"orders": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "order_status", Value: 1}}},
			{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "order_status", Value: 1}}},
		},
		"order_log": {
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
		"payments": {
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := s.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", coll, err)
		}
	}
	return nil
}
