/* picks.go
 * Contains the methods for interacting with the survivor_picks collection
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"survivor-pool/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetPick does DB lookup and gets a user's pick for a week
// Preconditions: Receives a context, the userID and the week number
// Postconditions: Returns the pick and true if it exists, an empty pick and false if the user has not picked, or an
// error if the lookup fails
func (s *Store) GetPick(ctx context.Context, userID string, week int) (shared.Pick, bool, error) {
	var pick shared.Pick
	err := s.Collections.Picks.FindOne(ctx, bson.M{"userid": userID, "week": week}).Decode(&pick)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.Pick{}, false, nil
		}
		return shared.Pick{}, false, fmt.Errorf("error fetching pick from db: %w", err)
	}
	return pick, true, nil
}

// StorePick saves a user's pick for a week, replacing any earlier pick for the same week
// Preconditions: Receives a context and the pick. The pick needs a user id and a week of at least 1
// Postconditions: Upserts the pick document keyed on user and week, or returns an error if it occurs
func (s *Store) StorePick(ctx context.Context, pick shared.Pick) error {
	if pick.UserID == "" {
		return fmt.Errorf("pick user id cannot be empty")
	}
	if pick.Week < 1 {
		return fmt.Errorf("pick week must be at least 1, got %d", pick.Week)
	}

	_, err := s.Collections.Picks.ReplaceOne(ctx,
		bson.M{"userid": pick.UserID, "week": pick.Week},
		pick,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store pick: %w", err)
	}
	return nil
}

// ListPicks returns every pick a user has made this season ordered by week
// Preconditions: Receives a context and the userID
// Postconditions: Returns the user's picks (empty if they have none), or an error if the lookup fails
func (s *Store) ListPicks(ctx context.Context, userID string) ([]shared.Pick, error) {
	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}})

	cursor, err := s.Collections.Picks.Find(ctx, bson.M{"userid": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching picks from db: %w", err)
	}

	var picks []shared.Pick
	if err = cursor.All(ctx, &picks); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of picks: %w", err)
	}
	return picks, nil
}
