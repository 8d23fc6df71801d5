/* store.go
 * Contains the store struct and NewStore function. The methods for this package are split by collection: members,
 * picks, results and status. Each of these files contain methods for interacting with that part of the database
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MembersCollection = "pool_members"
	PicksCollection   = "survivor_picks"
	ResultsCollection = "game_results"
	StatusCollection  = "survivor_status"
)

// Collections holds a handle for every collection the store reads or writes
type Collections struct {
	Members *mongo.Collection
	Picks   *mongo.Collection
	Results *mongo.Collection
	Status  *mongo.Collection
}

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections Collections
}

// NewStore connects to MongoDB and returns a Store for the named database
// Preconditions: Receives a context, the database name and the mongo connection uri
// Postconditions: Returns pointer to the Store object, or error if it occurs
func NewStore(ctx context.Context, dbName string, mongoURI string) (*Store, error) {
	if dbName == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return NewStoreFromDatabase(client, client.Database(dbName)), nil
}

// NewStoreFromDatabase builds a Store on an existing client and database
func NewStoreFromDatabase(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Client:   client,
		Database: db,
		Collections: Collections{
			Members: db.Collection(MembersCollection),
			Picks:   db.Collection(PicksCollection),
			Results: db.Collection(ResultsCollection),
			Status:  db.Collection(StatusCollection),
		},
	}
}

// EnsureIndexes creates the indexes lookups depend on. A pick is unique per user per week
// Preconditions: Receives a context
// Postconditions: Creates the indexes if they do not already exist, or returns an error if it occurs
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collections.Picks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userid", Value: 1}, {Key: "week", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create pick index: %w", err)
	}

	_, err = s.Collections.Results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "week", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create results index: %w", err)
	}
	return nil
}

// Disconnect closes the underlying client
func (s *Store) Disconnect(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}
