/* evaluate.go
 * Contains the per user per week evaluator. A user is ALIVE until a week eliminates them, after which they are
 * never evaluated again. Anything that cannot be decided with certainty (missing game, game not final, broken pick
 * record) leaves the user pending rather than eliminating them
 */

package logic

import (
	"fmt"
	"strings"
	"time"

	"survivor-pool/api/shared"
)

// WeekState is the outcome of one user's week
type WeekState int

const (
	StatePending WeekState = iota
	StateSurvived
	StateEliminated
)

func (s WeekState) String() string {
	switch s {
	case StateSurvived:
		return "SURVIVED"
	case StateEliminated:
		return "ELIMINATED"
	default:
		return "PENDING"
	}
}

func (s WeekState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *WeekState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "PENDING":
		*s = StatePending
	case "SURVIVED":
		*s = StateSurvived
	case "ELIMINATED":
		*s = StateEliminated
	default:
		return fmt.Errorf("unknown week state %q", text)
	}
	return nil
}

const (
	ReasonNoPick = "no pick made"
	ReasonTie    = "picked tied game"
)

// LossReason returns the elimination reason for picking the loser of a game won by winner
func LossReason(winner string) string {
	return fmt.Sprintf("picked losing team, %s won", winner)
}

// Evaluation is the decision for one user in one week
type Evaluation struct {
	UserID   string    `json:"user_id"`
	Week     int       `json:"week"`
	State    WeekState `json:"state"`
	Reason   string    `json:"reason,omitempty"`
	Team     string    `json:"team,omitempty"`
	GameID   string    `json:"game_id,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`

	// AlreadyEliminated is set when the prior status was terminal and nothing was evaluated
	AlreadyEliminated bool `json:"already_eliminated,omitempty"`
}

// NewlyEliminated reports whether this evaluation moved the user from alive to eliminated
func (e Evaluation) NewlyEliminated() bool {
	return e.State == StateEliminated && !e.AlreadyEliminated
}

// Patch returns the status write for a newly eliminated user
func (e Evaluation) Patch(now time.Time) shared.StatusPatch {
	return shared.StatusPatch{
		Eliminated:        true,
		EliminatedWeek:    e.Week,
		EliminationReason: e.Reason,
		LastUpdated:       now,
	}
}

// EvaluateWeek decides one user's outcome for one week.
// Preconditions: Receives the user's prior status, the week number, their pick for the week (nil when there is no
// pick), the week's results keyed by game id and the policy for ties and missing picks
// Postconditions: Returns an Evaluation. An already eliminated user is returned as eliminated without looking at the
// pick. The function is pure, so the same inputs always produce the same Evaluation
func EvaluateWeek(prior shared.SurvivorStatus, week int, pick *shared.Pick, results map[string]shared.GameResult, policy Policy) Evaluation {
	ev := Evaluation{UserID: prior.UserID, Week: week, State: StatePending}

	if prior.Eliminated {
		ev.State = StateEliminated
		ev.Reason = prior.EliminationReason
		ev.AlreadyEliminated = true
		if prior.EliminatedWeek != nil {
			ev.Week = *prior.EliminatedWeek
		}
		return ev
	}

	if pick != nil {
		switch {
		case strings.TrimSpace(pick.Team) == "":
			ev.Warnings = append(ev.Warnings, newWarning(prior.UserID, week, ErrInvalidPickShape, "pick record has no team, treated as no pick"))
			pick = nil
		case pick.UserID != "" && pick.UserID != prior.UserID:
			ev.Warnings = append(ev.Warnings, newWarning(prior.UserID, week, ErrInvalidPickShape, "pick record belongs to user %s", pick.UserID))
			return ev
		case pick.Week != 0 && pick.Week != week:
			ev.Warnings = append(ev.Warnings, newWarning(prior.UserID, week, ErrInvalidPickShape, "pick record is for week %d", pick.Week))
			return ev
		}
	}

	if pick == nil {
		if noPickDeadlinePassed(results, policy.NoPick) {
			ev.State = StateEliminated
			ev.Reason = ReasonNoPick
		}
		return ev
	}

	ev.Team = NormalizeTeam(pick.Team)
	res := ResolveGame(*pick, results)
	if res.GameIDMismatch {
		ev.Warnings = append(ev.Warnings, newWarning(prior.UserID, week, ErrUnresolvableGame, "game %s does not involve %s, matched by team name instead", pick.GameID, pick.Team))
	}
	if !res.Found {
		msg := fmt.Sprintf("no game found for %q", pick.Team)
		if !IsKnownTeam(pick.Team) {
			if suggestion, ok := SuggestTeam(pick.Team); ok {
				msg = fmt.Sprintf("%s, did you mean %s?", msg, suggestion)
			}
		}
		ev.Warnings = append(ev.Warnings, newWarning(prior.UserID, week, ErrUnresolvableGame, "%s", msg))
		return ev
	}
	if res.Ambiguous {
		ev.Warnings = append(ev.Warnings, newWarning(prior.UserID, week, ErrAmbiguousGameMatch, "%s found in games %s, using %s", pick.Team, strings.Join(res.Candidates, ", "), res.GameID))
	}
	ev.GameID = res.GameID

	switch DetermineOutcome(res.Game) {
	case Pending:
		return ev
	case Tie:
		ev.Winner = TieWinner
		if policy.Tie == TieSurvives {
			ev.State = StateSurvived
			return ev
		}
		ev.State = StateEliminated
		ev.Reason = ReasonTie
		return ev
	}

	winner := NormalizeTeam(Winner(res.Game))
	ev.Winner = winner
	if winner == ev.Team {
		ev.State = StateSurvived
		return ev
	}
	ev.State = StateEliminated
	ev.Reason = LossReason(winner)
	return ev
}

// noPickDeadlinePassed reports whether a missing pick should now count against the user
func noPickDeadlinePassed(results map[string]shared.GameResult, policy NoPickPolicy) bool {
	if policy == NoPickAtFirstFinal {
		return WeekHasFinal(results)
	}
	return WeekStarted(results)
}
