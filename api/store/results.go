/* results.go
 * Contains the methods for interacting with the game_results collection. Game ids come from the results feed and are
 * used as the document id, so storing a week again replaces its games in place. A game id already stored under a
 * different week is never moved
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"survivor-pool/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetWeekResults gets every game stored for a week
// Preconditions: Receives a context and the week number
// Postconditions: Returns the week's games keyed by game id (empty if the week has no games), or an error if it occurs
func (s *Store) GetWeekResults(ctx context.Context, week int) (map[string]shared.GameResult, error) {
	cursor, err := s.Collections.Results.Find(ctx, bson.M{"week": week})
	if err != nil {
		return nil, fmt.Errorf("error fetching results from db: %w", err)
	}

	var games []shared.GameResult
	if err = cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of results: %w", err)
	}

	results := make(map[string]shared.GameResult, len(games))
	for _, game := range games {
		if game.GameID == "" {
			continue
		}
		results[game.GameID] = game
	}
	return results, nil
}

// ErrGameIDConflict is returned when a game id is already stored under another week
var ErrGameIDConflict = errors.New("game id already stored under another week")

// StoreWeekResults upserts the given games for a week
// Preconditions: Receives a context, the week number and the games to store
// Postconditions: Replaces or inserts every game, or returns an error if it occurs. Games with no id are rejected.
// A game whose id belongs to another week is left untouched and ErrGameIDConflict is returned, the other games of the
// batch are still written
func (s *Store) StoreWeekResults(ctx context.Context, week int, games []shared.GameResult) error {
	if len(games) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(games))
	for _, game := range games {
		if game.GameID == "" {
			return fmt.Errorf("game result for %s vs %s has no game id", game.HomeTeam, game.AwayTeam)
		}
		game.Week = week
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": game.GameID, "week": week}).
			SetReplacement(game).
			SetUpsert(true))
	}

	_, err := s.Collections.Results.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		// the filter includes the week, so an upsert of an id owned by another week collides on _id
		if conflicts := conflictingGameIDs(err, games); len(conflicts) > 0 {
			return fmt.Errorf("failed to store week %d results: %w: %s", week, ErrGameIDConflict, strings.Join(conflicts, ", "))
		}
		return fmt.Errorf("failed to store week %d results: %w", week, err)
	}
	return nil
}

// conflictingGameIDs returns the ids of the games whose write failed with a duplicate key error, or nil if any write
// failed for another reason
func conflictingGameIDs(err error, games []shared.GameResult) []string {
	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil || len(bulkErr.WriteErrors) == 0 {
		return nil
	}
	ids := make([]string, 0, len(bulkErr.WriteErrors))
	for _, we := range bulkErr.WriteErrors {
		if we.Code != 11000 || we.Index < 0 || we.Index >= len(games) {
			return nil
		}
		ids = append(ids, games[we.Index].GameID)
	}
	return ids
}
