/* models.go
 * This file contain the structs that are shared between sub packages: pool members, picks, game results and the
 * survivor status documents the reconciler owns
 */

package shared

import "time"

type User struct {
	UserID   string
	Username string
}

// PoolMember is one entrant of the survivor pool. DisplayName is only used for reporting
type PoolMember struct {
	UserID      string `bson:"_id" json:"user_id"`
	DisplayName string `bson:"displayname,omitempty" json:"display_name,omitempty"`
}

// Pick is a user's team selection for a week. GameID is optional and is derived from the team when absent
type Pick struct {
	UserID string `bson:"userid" json:"user_id"`
	Week   int    `bson:"week" json:"week"`
	Team   string `bson:"team,omitempty" json:"team"`
	GameID string `bson:"gameid,omitempty" json:"game_id,omitempty"`
}

// GameResult is a single matchup for a week. Status is the raw status string from whichever feed produced it
type GameResult struct {
	GameID    string `bson:"_id" json:"game_id"`
	Week      int    `bson:"week" json:"week"`
	HomeTeam  string `bson:"hometeam" json:"home_team"`
	AwayTeam  string `bson:"awayteam" json:"away_team"`
	HomeScore int    `bson:"homescore" json:"home_score"`
	AwayScore int    `bson:"awayscore" json:"away_score"`
	Status    string `bson:"status" json:"status"`
}

// SurvivorStatus is the persisted survival state of one user. Eliminated is terminal
type SurvivorStatus struct {
	UserID            string    `bson:"_id" json:"user_id"`
	Eliminated        bool      `bson:"eliminated" json:"eliminated"`
	EliminatedWeek    *int      `bson:"eliminatedweek,omitempty" json:"eliminated_week,omitempty"`
	EliminationReason string    `bson:"eliminationreason,omitempty" json:"elimination_reason,omitempty"`
	LastUpdated       time.Time `bson:"lastupdated,omitempty" json:"last_updated,omitempty"`
}

// StatusPatch is the write applied to a user that was eliminated during a run
type StatusPatch struct {
	Eliminated        bool      `bson:"eliminated" json:"eliminated"`
	EliminatedWeek    int       `bson:"eliminatedweek" json:"eliminated_week"`
	EliminationReason string    `bson:"eliminationreason" json:"elimination_reason"`
	LastUpdated       time.Time `bson:"lastupdated" json:"last_updated"`
}

// ChangeSet maps userID to the elimination that should be written for them
type ChangeSet map[string]StatusPatch

// Apply returns the status that results from applying the patch to a prior status. An already eliminated status is
// returned unchanged so eliminations can never be moved or reverted
func (p StatusPatch) Apply(prior SurvivorStatus) SurvivorStatus {
	if prior.Eliminated {
		return prior
	}
	week := p.EliminatedWeek
	return SurvivorStatus{
		UserID:            prior.UserID,
		Eliminated:        true,
		EliminatedWeek:    &week,
		EliminationReason: p.EliminationReason,
		LastUpdated:       p.LastUpdated,
	}
}
