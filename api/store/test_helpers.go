/* test_helpers.go
 * Contains test helper functions and sample data for store and api package tests
 */

package store

import (
	"context"
	"time"

	"survivor-pool/api/shared"
)

// CreateTestStore creates a Store connected to a test database.
// Returns the store and a cleanup function that drops the database.
func CreateTestStore(ctx context.Context, mongoURI string) (*Store, func(), error) {
	store, err := NewStore(ctx, "test_survivor", mongoURI)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Database.Drop(context.Background())
		_ = store.Disconnect(context.Background())
	}

	return store, cleanup, nil
}

// CreateSampleGameResults creates a week of sample results: a Chiefs win, a Giants upset and a tie
func CreateSampleGameResults(week int) []shared.GameResult {
	return []shared.GameResult{
		{GameID: "401", Week: week, HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 27, AwayScore: 20, Status: "Final"},
		{GameID: "402", Week: week, HomeTeam: "Dallas Cowboys", AwayTeam: "New York Giants", HomeScore: 10, AwayScore: 13, Status: "Final"},
		{GameID: "403", Week: week, HomeTeam: "Seattle Seahawks", AwayTeam: "San Francisco 49ers", HomeScore: 17, AwayScore: 17, Status: "Final/OT"},
	}
}

// CreateSampleStatus creates an eliminated status for testing
func CreateSampleStatus(userID string, week int, reason string) shared.SurvivorStatus {
	return shared.SurvivorStatus{
		UserID:            userID,
		Eliminated:        true,
		EliminatedWeek:    &week,
		EliminationReason: reason,
		LastUpdated:       time.Date(2025, 9, 14, 20, 0, 0, 0, time.UTC),
	}
}
