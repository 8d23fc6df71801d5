/* outcome.go
 * Contains the winner determiner. Game results arrive from several feeds with their own status vocabulary, so the
 * raw status is first classified into NotStarted, InProgress or Final before any score comparison happens
 */

package logic

import (
	"strings"
	"unicode"

	"survivor-pool/api/shared"
)

// GameState is the normalised progress of a game
type GameState int

const (
	NotStarted GameState = iota
	InProgress
	Final
)

func (s GameState) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Final:
		return "final"
	default:
		return "not-started"
	}
}

// Outcome is the classified result of a game
type Outcome int

const (
	Pending Outcome = iota
	HomeWin
	AwayWin
	Tie
)

func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "HOME_WIN"
	case AwayWin:
		return "AWAY_WIN"
	case Tie:
		return "TIE"
	default:
		return "PENDING"
	}
}

// TieWinner is the value Winner returns for a tied game
const TieWinner = "TIE"

var finalStatuses = map[string]struct{}{
	"final":                 {},
	"f":                     {},
	"f/ot":                  {},
	"complete":              {},
	"completed":             {},
	"status_final":          {},
	"status_final_overtime": {},
	"status_full_time":      {},
}

var notStartedStatuses = map[string]struct{}{
	"":                 {},
	"not started":      {},
	"scheduled":        {},
	"pre":              {},
	"pregame":          {},
	"pre-game":         {},
	"tbd":              {},
	"status_scheduled": {},
	"postponed":        {},
	"status_postponed": {},
	"canceled":         {},
	"cancelled":        {},
	"status_canceled":  {},
	"delayed":          {},
	"status_delayed":   {},
}

var inProgressStatuses = map[string]struct{}{
	"in progress":        {},
	"in_progress":        {},
	"live":               {},
	"status_in_progress": {},
	"status_halftime":    {},
	"status_end_period":  {},
	"status_overtime":    {},
	"end of period":      {},
}

// quarter and overtime tokens that can appear in live clock strings such as "Q3 04:12", "2nd 10:00" or "End 3rd Qtr"
var inProgressTokens = map[string]struct{}{
	"1st": {}, "2nd": {}, "3rd": {}, "4th": {}, "ot": {}, "2ot": {},
	"q1": {}, "q2": {}, "q3": {}, "q4": {}, "qtr": {}, "quarter": {},
}

// ClassifyStatus maps a raw feed status to a GameState.
// Preconditions: Receives the raw status string of a game result
// Postconditions: Returns Final, InProgress or NotStarted. Unrecognised statuses are NotStarted so they can never
// start a week early
func ClassifyStatus(status string) GameState {
	s := strings.ToLower(strings.TrimSpace(status))

	if _, ok := finalStatuses[s]; ok || strings.HasPrefix(s, "final") {
		return Final
	}
	if _, ok := notStartedStatuses[s]; ok {
		return NotStarted
	}
	if _, ok := inProgressStatuses[s]; ok {
		return InProgress
	}
	if strings.Contains(s, "half") || strings.Contains(s, "overtime") {
		return InProgress
	}
	for _, token := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		if _, ok := inProgressTokens[token]; ok {
			return InProgress
		}
	}
	return NotStarted
}

// DetermineOutcome classifies a game. Scores are only compared once the game is final
func DetermineOutcome(game shared.GameResult) Outcome {
	if ClassifyStatus(game.Status) != Final {
		return Pending
	}
	switch {
	case game.HomeScore > game.AwayScore:
		return HomeWin
	case game.AwayScore > game.HomeScore:
		return AwayWin
	default:
		return Tie
	}
}

// Winner returns the raw name of the winning team, TieWinner for a tie, or "" if the game is not final
func Winner(game shared.GameResult) string {
	switch DetermineOutcome(game) {
	case HomeWin:
		return game.HomeTeam
	case AwayWin:
		return game.AwayTeam
	case Tie:
		return TieWinner
	default:
		return ""
	}
}

// WeekStarted reports whether any game in the results has kicked off (in progress or final)
func WeekStarted(results map[string]shared.GameResult) bool {
	for _, game := range results {
		if ClassifyStatus(game.Status) != NotStarted {
			return true
		}
	}
	return false
}

// WeekHasFinal reports whether any game in the results is final
func WeekHasFinal(results map[string]shared.GameResult) bool {
	for _, game := range results {
		if ClassifyStatus(game.Status) == Final {
			return true
		}
	}
	return false
}
