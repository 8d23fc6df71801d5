/* members.go
 * Contains the methods for interacting with the pool_members collection
 */

package store

import (
	"context"
	"fmt"

	"survivor-pool/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListMembers returns every user registered in the pool ordered by user id
// Preconditions: Receives a context
// Postconditions: Returns the pool members, or an error if the lookup fails
func (s *Store) ListMembers(ctx context.Context) ([]shared.PoolMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.Collections.Members.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching pool members from db: %w", err)
	}

	var members []shared.PoolMember
	if err = cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of members: %w", err)
	}
	return members, nil
}

// AddMember registers a user in the pool. Registering an existing user updates their display name
// Preconditions: Receives a context and the member to store
// Postconditions: Upserts the member document, or returns an error if it occurs
func (s *Store) AddMember(ctx context.Context, member shared.PoolMember) error {
	if member.UserID == "" {
		return fmt.Errorf("member user id cannot be empty")
	}

	_, err := s.Collections.Members.UpdateOne(ctx,
		bson.M{"_id": member.UserID},
		bson.M{"$set": bson.M{"displayname": member.DisplayName}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store pool member: %w", err)
	}
	return nil
}
