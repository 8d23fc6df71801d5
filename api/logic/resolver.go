/* resolver.go
 * Contains the game resolver which finds the game a user's picked team played in for a week
 */

package logic

import (
	"sort"

	"survivor-pool/api/shared"
)

// Resolution is the result of matching a pick to the week's games
type Resolution struct {
	GameID string
	Game   shared.GameResult
	Found  bool

	// Ambiguous is set when the team appeared in more than one game, Candidates holds every matching game id
	Ambiguous  bool
	Candidates []string

	// GameIDMismatch is set when the pick carried a game id whose game does not involve the picked team
	GameIDMismatch bool
}

// ResolveGame finds the game the picked team participated in.
// Preconditions: Receives a pick and the week's results keyed by game id
// Postconditions: Returns a Resolution. If the pick's game id is known and the picked team plays in it, that game is
// used. Otherwise every game is scanned by normalized team name; with several matches the lowest game id wins and
// Ambiguous is set. Found is false when no game matches
func ResolveGame(pick shared.Pick, results map[string]shared.GameResult) Resolution {
	team := NormalizeTeam(pick.Team)
	var res Resolution

	if pick.GameID != "" {
		if game, ok := results[pick.GameID]; ok {
			if playsIn(team, game) {
				return Resolution{GameID: pick.GameID, Game: game, Found: true, Candidates: []string{pick.GameID}}
			}
			res.GameIDMismatch = true
		}
	}

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if playsIn(team, results[id]) {
			res.Candidates = append(res.Candidates, id)
		}
	}
	if len(res.Candidates) == 0 {
		return res
	}

	res.GameID = res.Candidates[0]
	res.Game = results[res.GameID]
	res.Found = true
	res.Ambiguous = len(res.Candidates) > 1
	return res
}

// playsIn reports whether the canonical team is the home or away side of the game
func playsIn(team string, game shared.GameResult) bool {
	if team == "" {
		return false
	}
	return NormalizeTeam(game.HomeTeam) == team || NormalizeTeam(game.AwayTeam) == team
}
