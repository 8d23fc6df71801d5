/* reconcile.go
 * Contains the pure reconciliation passes. ReconcileWeek evaluates every alive member for one week, AuditSeason walks
 * weeks 1..N for every alive member until their first elimination. Both only ever produce alive -> eliminated
 * changes, so running them again with the same inputs (or applying their output twice) changes nothing
 */

package logic

import (
	"sort"
	"strings"
	"time"

	"survivor-pool/api/shared"
)

// WeekInput is everything ReconcileWeek needs for one week. Members missing from Prior are alive, members missing
// from Picks have no pick. Members listed in Unavailable could not be loaded and are reported, not evaluated
type WeekInput struct {
	Week        int
	Members     []shared.PoolMember
	Prior       map[string]shared.SurvivorStatus
	Picks       map[string]shared.Pick
	Results     map[string]shared.GameResult
	Unavailable map[string]error
	Policy      Policy
	Now         time.Time
}

// SeasonInput is everything AuditSeason needs. Picks and Results are keyed by week. A read failure for a week
// (ResultErrors) or for a user's pick in a week (PickErrors) stops that user's walk at that week
type SeasonInput struct {
	ThroughWeek  int
	Members      []shared.PoolMember
	Prior        map[string]shared.SurvivorStatus
	Picks        map[int]map[string]shared.Pick
	Results      map[int]map[string]shared.GameResult
	Unavailable  map[string]error
	PickErrors   map[int]map[string]error
	ResultErrors map[int]error
	Policy       Policy
	Now          time.Time
}

// Summary counts users by the state they finished the pass in
type Summary struct {
	Members           int `json:"members"`
	AlreadyEliminated int `json:"already_eliminated"`
	Survived          int `json:"survived"`
	Pending           int `json:"pending"`
	NewlyEliminated   int `json:"newly_eliminated"`
	Warnings          int `json:"warnings"`
	Errors            int `json:"errors"`
}

// Reconciliation is the output of a pass: the change set to write plus everything needed to report on it
type Reconciliation struct {
	ChangeSet   shared.ChangeSet `json:"change_set"`
	Evaluations []Evaluation     `json:"evaluations"`
	Warnings    []Warning        `json:"warnings"`
	Errors      []UserError      `json:"errors"`
	Summary     Summary          `json:"summary"`
}

func newReconciliation() Reconciliation {
	return Reconciliation{
		ChangeSet:   make(shared.ChangeSet),
		Evaluations: []Evaluation{},
		Warnings:    []Warning{},
		Errors:      []UserError{},
	}
}

func (r *Reconciliation) record(ev Evaluation) {
	r.Evaluations = append(r.Evaluations, ev)
	r.Warnings = append(r.Warnings, ev.Warnings...)
	r.Summary.Warnings += len(ev.Warnings)
}

func (r *Reconciliation) tally(ev Evaluation, now time.Time) {
	switch {
	case ev.NewlyEliminated():
		r.ChangeSet[ev.UserID] = ev.Patch(now)
		r.Summary.NewlyEliminated++
	case ev.State == StateSurvived:
		r.Summary.Survived++
	default:
		r.Summary.Pending++
	}
}

func (r *Reconciliation) fail(err UserError) {
	r.Errors = append(r.Errors, err)
	r.Summary.Errors++
}

// ReconcileWeek evaluates every alive member for a single week.
// Preconditions: Receives a WeekInput with week >= 1
// Postconditions: Returns the Reconciliation. Already eliminated members are counted and skipped without looking at
// their pick. The change set only contains members newly eliminated this week
func ReconcileWeek(in WeekInput) Reconciliation {
	out := newReconciliation()

	for _, member := range uniqueMembers(in.Members) {
		id := member.UserID
		out.Summary.Members++

		prior := priorStatus(in.Prior, id)
		if prior.Eliminated {
			out.Summary.AlreadyEliminated++
			continue
		}
		if err, ok := in.Unavailable[id]; ok {
			out.fail(NewUserError(id, in.Week, err))
			continue
		}

		var pick *shared.Pick
		if p, ok := in.Picks[id]; ok {
			pick = &p
		}
		ev := EvaluateWeek(prior, in.Week, pick, in.Results, in.Policy)
		out.record(ev)
		out.tally(ev, in.Now)
	}

	sortEvaluations(out.Evaluations)
	return out
}

// AuditSeason walks weeks 1..ThroughWeek in order for every alive member and stops at their first elimination.
// Preconditions: Receives a SeasonInput with ThroughWeek >= 1
// Postconditions: Returns the Reconciliation with one evaluation per member per evaluated week. The change set is the
// same one incremental ReconcileWeek runs over the same weeks and data would have produced. Picking the same team
// twice is reported as a warning, it never eliminates
func AuditSeason(in SeasonInput) Reconciliation {
	out := newReconciliation()

	for _, member := range uniqueMembers(in.Members) {
		id := member.UserID
		out.Summary.Members++

		prior := priorStatus(in.Prior, id)
		if prior.Eliminated {
			out.Summary.AlreadyEliminated++
			continue
		}
		if err, ok := in.Unavailable[id]; ok {
			out.fail(NewUserError(id, 0, err))
			continue
		}

		seen := make(map[string]int)
		var last *Evaluation
		failed := false

		for week := 1; week <= in.ThroughWeek; week++ {
			if err := in.ResultErrors[week]; err != nil {
				out.fail(NewUserError(id, week, err))
				failed = true
				break
			}
			if err := in.PickErrors[week][id]; err != nil {
				out.fail(NewUserError(id, week, err))
				failed = true
				break
			}

			var pick *shared.Pick
			if p, ok := in.Picks[week][id]; ok {
				pick = &p
			}
			ev := EvaluateWeek(prior, week, pick, in.Results[week], in.Policy)

			if pick != nil && strings.TrimSpace(pick.Team) != "" {
				team := NormalizeTeam(pick.Team)
				if firstWeek, dup := seen[team]; dup {
					ev.Warnings = append(ev.Warnings, newWarning(id, week, ErrDuplicateTeam, "%s was already picked in week %d", team, firstWeek))
				} else {
					seen[team] = week
				}
			}

			out.record(ev)
			last = &ev
			if ev.State == StateEliminated {
				break
			}
		}

		if failed {
			continue
		}
		if last == nil {
			out.Summary.Pending++
			continue
		}
		out.tally(*last, in.Now)
	}

	sortEvaluations(out.Evaluations)
	return out
}

// priorStatus returns the stored status for a user, or a default alive status if there is none
func priorStatus(prior map[string]shared.SurvivorStatus, userID string) shared.SurvivorStatus {
	status, ok := prior[userID]
	if !ok {
		return shared.SurvivorStatus{UserID: userID}
	}
	if status.UserID == "" {
		status.UserID = userID
	}
	return status
}

// uniqueMembers drops duplicate and blank user ids, keeping the first occurrence
func uniqueMembers(members []shared.PoolMember) []shared.PoolMember {
	seen := make(map[string]bool, len(members))
	out := make([]shared.PoolMember, 0, len(members))
	for _, m := range members {
		if m.UserID == "" || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		out = append(out, m)
	}
	return out
}

func sortEvaluations(evs []Evaluation) {
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].UserID != evs[j].UserID {
			return evs[i].UserID < evs[j].UserID
		}
		return evs[i].Week < evs[j].Week
	})
}
