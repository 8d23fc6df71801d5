/* status.go
 * Contains the methods for interacting with the survivor_status collection. Writes are conditional on the stored
 * status still being alive, so an elimination can never be overwritten or moved to another week, even when two runs
 * overlap
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"survivor-pool/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetStatus gets the survivor status of a user
// Preconditions: Receives a context and the userID
// Postconditions: Returns the stored status, an alive status if the user has none, or an error if the lookup fails
func (s *Store) GetStatus(ctx context.Context, userID string) (shared.SurvivorStatus, error) {
	var status shared.SurvivorStatus
	err := s.Collections.Status.FindOne(ctx, bson.M{"_id": userID}).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.SurvivorStatus{UserID: userID}, nil
		}
		return shared.SurvivorStatus{}, fmt.Errorf("error fetching status from db: %w", err)
	}
	return status, nil
}

// ListStatuses gets every stored survivor status
// Preconditions: Receives a context
// Postconditions: Returns the statuses, or an error if it occurs
func (s *Store) ListStatuses(ctx context.Context) ([]shared.SurvivorStatus, error) {
	cursor, err := s.Collections.Status.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("error fetching statuses from db: %w", err)
	}

	var statuses []shared.SurvivorStatus
	if err = cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of statuses: %w", err)
	}
	return statuses, nil
}

// ApplyEliminations writes every elimination in the change set
// Preconditions: Receives a context and the change set produced by a reconciliation run
// Postconditions: Each write only matches a status that is not already eliminated. When the stored status is
// already eliminated the upsert collides on _id, the user is reported in AlreadyEliminated and nothing changes.
// Returns the ack for the writes made so far and an error if any other write fails
func (s *Store) ApplyEliminations(ctx context.Context, changes shared.ChangeSet) (ApplyAck, error) {
	ack := ApplyAck{Applied: []string{}, AlreadyEliminated: []string{}}

	userIDs := make([]string, 0, len(changes))
	for id := range changes {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		patch := changes[userID]
		filter := bson.M{"_id": userID, "eliminated": bson.M{"$ne": true}}
		update := bson.M{"$set": patch}

		_, err := s.Collections.Status.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				ack.AlreadyEliminated = append(ack.AlreadyEliminated, userID)
				continue
			}
			return ack, fmt.Errorf("failed to write elimination for %s: %w", userID, err)
		}
		ack.Applied = append(ack.Applied, userID)
	}
	return ack, nil
}
