/* reconcile.go
 * Contains the Reconciler, which loads everything a run needs from the stores, hands it to the pure reconciliation
 * passes in the logic package and writes the resulting change set back. Reads that fail for one user are reported
 * against that user and the run carries on, only a roster failure or an invalid week abort it
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"survivor-pool/api/logic"
	"survivor-pool/api/shared"
	"survivor-pool/api/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidWeek is returned when a run is requested for a week < 1
var ErrInvalidWeek = errors.New("week must be at least 1")

type Reconciler struct {
	Members  store.MembershipStore
	Picks    store.PickStore
	Results  store.ResultStore
	Statuses store.StatusStore
	Policy   logic.Policy
	Logger   *logrus.Logger
	Now      func() time.Time
}

// NewReconciler creates a Reconciler reading from and writing to s
func NewReconciler(s store.Interface, policy logic.Policy, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{
		Members:  s,
		Picks:    s,
		Results:  s,
		Statuses: s,
		Policy:   policy,
		Logger:   logger,
		Now:      time.Now,
	}
}

type runOptions struct {
	dryRun bool
}

// RunOption changes how a single run behaves
type RunOption func(*runOptions)

// WithDryRun computes the change set without writing it
func WithDryRun(dryRun bool) RunOption {
	return func(o *runOptions) {
		o.dryRun = dryRun
	}
}

// Reconcile runs an incremental reconciliation for one week.
// Preconditions: Receives a context, the week number and optional RunOptions
// Postconditions: Returns the RunResult. Users whose stored status is already eliminated are skipped and their pick
// is never read. The change set is applied unless the run is a dry run. Returns an error if the week is invalid, the
// roster can't be read, or the change set could not be fully written
func (r *Reconciler) Reconcile(ctx context.Context, week int, opts ...RunOption) (RunResult, error) {
	o := applyOptions(opts)
	if week < 1 {
		return RunResult{}, fmt.Errorf("%w: got %d", ErrInvalidWeek, week)
	}

	result := r.newRunResult(ModeReconcile, week, o.dryRun)
	log := r.Logger.WithFields(logrus.Fields{"run_id": result.RunID, "mode": result.Mode, "week": week})

	members, err := r.Members.ListMembers(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load pool members: %w", err)
	}

	results, resultsErr := r.Results.GetWeekResults(ctx, week)
	if resultsErr != nil {
		log.WithError(resultsErr).Warn("week results unavailable, no user can be evaluated")
	}

	in := logic.WeekInput{
		Week:        week,
		Members:     members,
		Prior:       make(map[string]shared.SurvivorStatus),
		Picks:       make(map[string]shared.Pick),
		Results:     results,
		Unavailable: make(map[string]error),
		Policy:      r.Policy,
		Now:         result.StartedAt,
	}

	for _, id := range memberIDs(members) {
		status, alive, err := r.loadStatus(ctx, id)
		if err != nil {
			in.Unavailable[id] = err
			continue
		}
		in.Prior[id] = status
		if !alive {
			continue
		}
		if resultsErr != nil {
			in.Unavailable[id] = resultsErr
			continue
		}

		pick, ok, err := r.Picks.GetPick(ctx, id, week)
		if err != nil {
			in.Unavailable[id] = fmt.Errorf("pick: %w", err)
			continue
		}
		if ok {
			in.Picks[id] = pick
		}
	}

	return r.finish(ctx, log, result, logic.ReconcileWeek(in))
}

// Audit recomputes every alive user's status from week 1 up to and including throughWeek.
// Preconditions: Receives a context, the last week to audit and optional RunOptions
// Postconditions: Returns the RunResult. The change set holds each user's first elimination, which is the same one
// incremental runs over the same weeks would have written. Errors are returned on the same conditions as Reconcile
func (r *Reconciler) Audit(ctx context.Context, throughWeek int, opts ...RunOption) (RunResult, error) {
	o := applyOptions(opts)
	if throughWeek < 1 {
		return RunResult{}, fmt.Errorf("%w: got %d", ErrInvalidWeek, throughWeek)
	}

	result := r.newRunResult(ModeAudit, throughWeek, o.dryRun)
	log := r.Logger.WithFields(logrus.Fields{"run_id": result.RunID, "mode": result.Mode, "week": throughWeek})

	members, err := r.Members.ListMembers(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load pool members: %w", err)
	}

	in := logic.SeasonInput{
		ThroughWeek:  throughWeek,
		Members:      members,
		Prior:        make(map[string]shared.SurvivorStatus),
		Picks:        make(map[int]map[string]shared.Pick, throughWeek),
		Results:      make(map[int]map[string]shared.GameResult, throughWeek),
		Unavailable:  make(map[string]error),
		PickErrors:   make(map[int]map[string]error),
		ResultErrors: make(map[int]error),
		Policy:       r.Policy,
		Now:          result.StartedAt,
	}

	// the walk stops at the first week without results, so later weeks are not read
	lastReadable := throughWeek
	for week := 1; week <= throughWeek; week++ {
		results, err := r.Results.GetWeekResults(ctx, week)
		if err != nil {
			log.WithError(err).WithField("failed_week", week).Warn("week results unavailable, audit stops at this week")
			in.ResultErrors[week] = err
			lastReadable = week - 1
			break
		}
		in.Results[week] = results
		in.Picks[week] = make(map[string]shared.Pick)
	}

	for _, id := range memberIDs(members) {
		status, alive, err := r.loadStatus(ctx, id)
		if err != nil {
			in.Unavailable[id] = err
			continue
		}
		in.Prior[id] = status
		if !alive {
			continue
		}

		for week := 1; week <= lastReadable; week++ {
			pick, ok, err := r.Picks.GetPick(ctx, id, week)
			if err != nil {
				if in.PickErrors[week] == nil {
					in.PickErrors[week] = make(map[string]error)
				}
				in.PickErrors[week][id] = fmt.Errorf("pick: %w", err)
				break
			}
			if ok {
				in.Picks[week][id] = pick
			}
		}
	}

	return r.finish(ctx, log, result, logic.AuditSeason(in))
}

// loadStatus reads a user's status. alive is false when the status is already terminal
func (r *Reconciler) loadStatus(ctx context.Context, userID string) (shared.SurvivorStatus, bool, error) {
	status, err := r.Statuses.GetStatus(ctx, userID)
	if err != nil {
		return shared.SurvivorStatus{}, false, fmt.Errorf("status: %w", err)
	}
	if status.UserID == "" {
		status.UserID = userID
	}
	return status, !status.Eliminated, nil
}

// finish copies the reconciliation into the result, logs it and applies the change set
func (r *Reconciler) finish(ctx context.Context, log *logrus.Entry, result RunResult, rec logic.Reconciliation) (RunResult, error) {
	result.ChangeSet = rec.ChangeSet
	result.Evaluations = rec.Evaluations
	result.Warnings = rec.Warnings
	result.Errors = rec.Errors
	result.Summary = rec.Summary

	for _, w := range rec.Warnings {
		log.WithFields(logrus.Fields{"user_id": w.UserID, "user_week": w.Week, "type": w.Type}).Warn(w.Message)
	}
	for _, e := range rec.Errors {
		log.WithError(e.Err).WithFields(logrus.Fields{"user_id": e.UserID, "user_week": e.Week}).Warn("user skipped")
	}

	if !result.DryRun && len(rec.ChangeSet) > 0 {
		ack, err := r.Statuses.ApplyEliminations(ctx, rec.ChangeSet)
		result.Applied = ack
		if err != nil {
			log.WithError(err).WithField("applied", len(ack.Applied)).Error("failed to apply eliminations")
			return result, fmt.Errorf("failed to apply eliminations: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"members":            rec.Summary.Members,
		"newly_eliminated":   rec.Summary.NewlyEliminated,
		"survived":           rec.Summary.Survived,
		"pending":            rec.Summary.Pending,
		"already_eliminated": rec.Summary.AlreadyEliminated,
		"warnings":           rec.Summary.Warnings,
		"errors":             rec.Summary.Errors,
		"dry_run":            result.DryRun,
	}).Info("reconciliation finished")
	return result, nil
}

func (r *Reconciler) newRunResult(mode Mode, week int, dryRun bool) RunResult {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return RunResult{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Week:      week,
		DryRun:    dryRun,
		StartedAt: now().UTC(),
		Applied:   store.ApplyAck{Applied: []string{}, AlreadyEliminated: []string{}},
	}
}

func applyOptions(opts []RunOption) runOptions {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// memberIDs returns the distinct non-empty user ids of the roster in roster order
func memberIDs(members []shared.PoolMember) []string {
	seen := make(map[string]bool, len(members))
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID == "" || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		ids = append(ids, m.UserID)
	}
	return ids
}
