/* parser.go
 * Contains the logic to turn a decoded feed document into game results
 */

package external

import (
	"fmt"
	"sort"
	"strings"

	"survivor-pool/api/shared"
)

// ParseWeekDocument converts the feed's games into GameResults for the given week
// Preconditions: Receives a decoded WeekDocument and the week that was requested
// Postconditions: Returns the games sorted by id and a list of reasons for every game that was skipped. Games with no
// id or a missing team are skipped, as are duplicate ids (the first is kept)
func ParseWeekDocument(doc WeekDocument, week int) ([]shared.GameResult, []string) {
	var skipped []string
	if doc.Week != 0 && doc.Week != week {
		skipped = append(skipped, fmt.Sprintf("feed returned week %d for week %d, using requested week", doc.Week, week))
	}

	seen := make(map[string]bool, len(doc.Games))
	games := make([]shared.GameResult, 0, len(doc.Games))
	for i, g := range doc.Games {
		id := strings.TrimSpace(g.ID)
		home := strings.TrimSpace(g.Home.Team)
		away := strings.TrimSpace(g.Away.Team)

		switch {
		case id == "":
			skipped = append(skipped, fmt.Sprintf("game %d has no id", i))
			continue
		case home == "" || away == "":
			skipped = append(skipped, fmt.Sprintf("game %s is missing a team", id))
			continue
		case seen[id]:
			skipped = append(skipped, fmt.Sprintf("game %s appears more than once", id))
			continue
		}
		seen[id] = true

		games = append(games, shared.GameResult{
			GameID:    id,
			Week:      week,
			HomeTeam:  home,
			AwayTeam:  away,
			HomeScore: int(g.Home.Score),
			AwayScore: int(g.Away.Score),
			Status:    strings.TrimSpace(g.Status),
		})
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].GameID < games[j].GameID
	})
	return games, skipped
}
