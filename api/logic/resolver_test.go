/* resolver_test.go
 * Contains unit tests for resolver.go functions
 */

package logic

import (
	"testing"

	"survivor-pool/api/shared"

	"github.com/stretchr/testify/assert"
)

func weekResults(games ...shared.GameResult) map[string]shared.GameResult {
	results := make(map[string]shared.GameResult, len(games))
	for _, g := range games {
		results[g.GameID] = g
	}
	return results
}

// TestResolveGame_ByGameID tests a pick's game id is used directly when it is present in the results
func TestResolveGame_ByGameID(t *testing.T) {
	results := weekResults(
		game("401", "Kansas City Chiefs", "Buffalo Bills", 27, 20, "Final"),
		game("402", "Dallas Cowboys", "New York Giants", 10, 13, "Final"),
	)

	res := ResolveGame(shared.Pick{Team: "KC", GameID: "401"}, results)

	assert.True(t, res.Found)
	assert.Equal(t, "401", res.GameID)
	assert.False(t, res.Ambiguous)
	assert.False(t, res.GameIDMismatch)
}

// TestResolveGame_ByTeamName tests the game is found by normalized team name when there is no game id
func TestResolveGame_ByTeamName(t *testing.T) {
	results := weekResults(
		game("401", "Kansas City Chiefs", "Buffalo Bills", 27, 20, "Final"),
		game("402", "Dallas Cowboys", "New York Giants", 10, 13, "Final"),
	)

	res := ResolveGame(shared.Pick{Team: "NY Giants"}, results)

	assert.True(t, res.Found)
	assert.Equal(t, "402", res.GameID)
	assert.Equal(t, "Dallas Cowboys", res.Game.HomeTeam)
}

// TestResolveGame_UnknownGameIDFallsBackToTeam tests a game id that is not in the results is ignored
func TestResolveGame_UnknownGameIDFallsBackToTeam(t *testing.T) {
	results := weekResults(game("401", "Kansas City Chiefs", "Buffalo Bills", 27, 20, "Final"))

	res := ResolveGame(shared.Pick{Team: "Bills", GameID: "999"}, results)

	assert.True(t, res.Found)
	assert.Equal(t, "401", res.GameID)
	assert.False(t, res.GameIDMismatch)
}

// TestResolveGame_GameIDForOtherGame tests a game id that does not involve the picked team is not trusted
func TestResolveGame_GameIDForOtherGame(t *testing.T) {
	results := weekResults(
		game("401", "Kansas City Chiefs", "Buffalo Bills", 27, 20, "Final"),
		game("402", "Dallas Cowboys", "New York Giants", 10, 13, "Final"),
	)

	res := ResolveGame(shared.Pick{Team: "Dallas", GameID: "401"}, results)

	assert.True(t, res.Found)
	assert.True(t, res.GameIDMismatch)
	assert.Equal(t, "402", res.GameID)
}

// TestResolveGame_NoMatch tests resolution fails when the team did not play
func TestResolveGame_NoMatch(t *testing.T) {
	results := weekResults(game("401", "Kansas City Chiefs", "Buffalo Bills", 27, 20, "Final"))

	res := ResolveGame(shared.Pick{Team: "Denver Broncos"}, results)

	assert.False(t, res.Found)
	assert.Empty(t, res.Candidates)
}

// TestResolveGame_Ambiguous tests duplicate result data resolves to the lowest game id
func TestResolveGame_Ambiguous(t *testing.T) {
	results := weekResults(
		game("b-2", "Kansas City Chiefs", "Buffalo Bills", 27, 20, "Final"),
		game("a-1", "KC", "BUF", 27, 20, "Final"),
	)

	res := ResolveGame(shared.Pick{Team: "Chiefs"}, results)

	assert.True(t, res.Found)
	assert.True(t, res.Ambiguous)
	assert.Equal(t, "a-1", res.GameID)
	assert.Equal(t, []string{"a-1", "b-2"}, res.Candidates)
}

// TestResolveGame_EmptyResults tests there is no panic on empty input
func TestResolveGame_EmptyResults(t *testing.T) {
	res := ResolveGame(shared.Pick{Team: "KC"}, nil)
	assert.False(t, res.Found)
}
