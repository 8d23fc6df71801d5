/* api.go
 * This file contains the public methods for interacting with this package. The bot, the web server and the command
 * line modes all go through API so that reconciliation, result syncing and standings behave the same everywhere
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"survivor-pool/api/logic"
	"survivor-pool/api/shared"
	"survivor-pool/api/store"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotMember is returned when a user who has not joined the pool asks for their status
	ErrNotMember = errors.New("user is not in the pool")
	// ErrNoFeed is returned when a sync is requested without a results feed configured
	ErrNoFeed = errors.New("no results feed configured")
	// ErrUnknownTeam is returned when a submitted pick does not name a recognised franchise
	ErrUnknownTeam = errors.New("unknown team")
	// ErrWeekLocked is returned when a pick is submitted after a game of that week has kicked off
	ErrWeekLocked = errors.New("picks are locked for this week")
	// ErrTeamAlreadyUsed is returned when a user picks a team they already picked in another week
	ErrTeamAlreadyUsed = errors.New("team already used this season")
	// ErrAlreadyEliminated is returned when an eliminated user submits a pick
	ErrAlreadyEliminated = errors.New("user has already been eliminated")
	// ErrTeamNotPlaying is returned when the week's schedule is stored and the team has no game in it
	ErrTeamNotPlaying = errors.New("team has no game this week")
)

// API provides methods for interacting with the survivor pool data layer
type API struct {
	Store      store.Interface
	Feed       ResultsFeed
	Reconciler *Reconciler
	Logger     *logrus.Logger
}

// NewAPI creates a new API instance. feed may be nil, in which case results can only be stored directly
func NewAPI(s store.Interface, feed ResultsFeed, policy logic.Policy, logger *logrus.Logger) (*API, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &API{
		Store:      s,
		Feed:       feed,
		Reconciler: NewReconciler(s, policy, logger),
		Logger:     logger,
	}, nil
}

// Reconcile runs the incremental reconciliation for a week
func (a *API) Reconcile(ctx context.Context, week int, dryRun bool) (RunResult, error) {
	return a.Reconciler.Reconcile(ctx, week, WithDryRun(dryRun))
}

// Audit runs the full season audit through the given week
func (a *API) Audit(ctx context.Context, throughWeek int, dryRun bool) (RunResult, error) {
	return a.Reconciler.Audit(ctx, throughWeek, WithDryRun(dryRun))
}

// SyncWeekResults fetches a week's results from the feed and stores them.
// Preconditions: Receives a context and the week number
// Postconditions: Returns the number of games stored, or an error if the feed or the store fails
func (a *API) SyncWeekResults(ctx context.Context, week int) (int, error) {
	if week < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWeek, week)
	}
	if a.Feed == nil {
		return 0, ErrNoFeed
	}

	games, err := a.Feed.FetchWeekResults(ctx, week)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch week %d results: %w", week, err)
	}
	if err := a.Store.StoreWeekResults(ctx, week, games); err != nil {
		return 0, err
	}

	a.Logger.WithFields(logrus.Fields{"week": week, "games": len(games)}).Info("synced week results")
	return len(games), nil
}

// StoreWeekResults stores results that were pushed to us rather than fetched
func (a *API) StoreWeekResults(ctx context.Context, week int, games []shared.GameResult) error {
	if week < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWeek, week)
	}
	return a.Store.StoreWeekResults(ctx, week, games)
}

// SyncAndReconcile stores or fetches a week's results and then reconciles that week. When games is empty the
// results are synced from the feed
// Preconditions: Receives a context, the week number and optionally the week's games
// Postconditions: Returns the RunResult of the reconciliation, or an error if storing or reconciling fails
func (a *API) SyncAndReconcile(ctx context.Context, week int, games []shared.GameResult) (RunResult, error) {
	if len(games) > 0 {
		if err := a.StoreWeekResults(ctx, week, games); err != nil {
			return RunResult{}, err
		}
	} else if _, err := a.SyncWeekResults(ctx, week); err != nil {
		return RunResult{}, err
	}
	return a.Reconcile(ctx, week, false)
}

// JoinPool adds a user to the pool, or updates the display name of an existing member
func (a *API) JoinPool(ctx context.Context, user shared.User) error {
	return a.Store.AddMember(ctx, shared.PoolMember{UserID: user.UserID, DisplayName: user.Username})
}

// SubmitPick validates and saves a user's pick for a week. Picking again before the week locks replaces the earlier
// pick for that week
// Preconditions: Receives a context, the user, the week number and the raw team name they typed
// Postconditions: Returns the stored pick with the team in canonical form, or an error if the pick is refused or the
// store fails. Refusals wrap ErrNotMember, ErrInvalidWeek, ErrUnknownTeam, ErrAlreadyEliminated, ErrWeekLocked,
// ErrTeamNotPlaying or ErrTeamAlreadyUsed
func (a *API) SubmitPick(ctx context.Context, user shared.User, week int, team string) (shared.Pick, error) {
	if week < 1 {
		return shared.Pick{}, fmt.Errorf("%w: got %d", ErrInvalidWeek, week)
	}
	if !logic.IsKnownTeam(team) {
		if suggestion, ok := logic.SuggestTeam(team); ok {
			return shared.Pick{}, fmt.Errorf("%w: %q, did you mean %s?", ErrUnknownTeam, team, suggestion)
		}
		return shared.Pick{}, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	pick := shared.Pick{UserID: user.UserID, Week: week, Team: logic.NormalizeTeam(team)}

	if err := a.requireMember(ctx, user.UserID); err != nil {
		return shared.Pick{}, err
	}
	status, err := a.Store.GetStatus(ctx, user.UserID)
	if err != nil {
		return shared.Pick{}, err
	}
	if status.Eliminated {
		return shared.Pick{}, ErrAlreadyEliminated
	}

	results, err := a.Store.GetWeekResults(ctx, week)
	if err != nil {
		return shared.Pick{}, err
	}
	if logic.WeekStarted(results) {
		return shared.Pick{}, fmt.Errorf("%w: week %d has kicked off", ErrWeekLocked, week)
	}
	if len(results) > 0 {
		if !logic.ResolveGame(pick, results).Found {
			return shared.Pick{}, fmt.Errorf("%w: %s in week %d", ErrTeamNotPlaying, pick.Team, week)
		}
	}

	season, err := a.Store.ListPicks(ctx, user.UserID)
	if err != nil {
		return shared.Pick{}, err
	}
	for _, earlier := range season {
		if earlier.Week != week && logic.SameTeam(earlier.Team, pick.Team) {
			return shared.Pick{}, fmt.Errorf("%w: %s was picked in week %d", ErrTeamAlreadyUsed, pick.Team, earlier.Week)
		}
	}

	if err := a.Store.StorePick(ctx, pick); err != nil {
		return shared.Pick{}, err
	}
	a.Logger.WithFields(logrus.Fields{"user": user.UserID, "week": week, "team": pick.Team}).Info("stored pick")
	return pick, nil
}

// GetStandings returns every pool member with their status.
// Preconditions: Receives a context
// Postconditions: Returns alive members first ordered by name, then eliminated members with the longest survivors
// first, or an error if the roster or statuses can't be read
func (a *API) GetStandings(ctx context.Context) ([]Standing, error) {
	members, err := a.Store.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := a.Store.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]shared.SurvivorStatus, len(statuses))
	for _, status := range statuses {
		byUser[status.UserID] = status
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		if _, ok := names[m.UserID]; !ok && m.DisplayName != "" {
			names[m.UserID] = m.DisplayName
		}
	}

	standings := make([]Standing, 0, len(members))
	for _, id := range memberIDs(members) {
		name, ok := names[id]
		if !ok {
			name = id
		}
		standings = append(standings, newStanding(id, name, byUser[id]))
	}

	sort.SliceStable(standings, func(i, j int) bool {
		x, y := standings[i], standings[j]
		if x.Eliminated != y.Eliminated {
			return !x.Eliminated
		}
		if x.Eliminated && x.EliminatedWeek != y.EliminatedWeek {
			return x.EliminatedWeek > y.EliminatedWeek
		}
		if x.DisplayName != y.DisplayName {
			return x.DisplayName < y.DisplayName
		}
		return x.UserID < y.UserID
	})
	return standings, nil
}

// GetUserStatus generates the status report for a single user
// Preconditions: Receives a context and the user
// Postconditions: Returns a string describing whether the user is alive, or ErrNotMember if they have not joined
func (a *API) GetUserStatus(ctx context.Context, user shared.User) (string, error) {
	if err := a.requireMember(ctx, user.UserID); err != nil {
		return "", err
	}

	status, err := a.Store.GetStatus(ctx, user.UserID)
	if err != nil {
		return "", err
	}
	if !status.Eliminated {
		return fmt.Sprintf("%s is still alive", user.Username), nil
	}

	standing := newStanding(user.UserID, user.Username, status)
	return fmt.Sprintf("%s was eliminated in week %d: %s", user.Username, standing.EliminatedWeek, standing.Reason), nil
}

// FormatStandings generates the response string for standings
func FormatStandings(standings []Standing) string {
	var alive, out []Standing
	for _, s := range standings {
		if s.Eliminated {
			out = append(out, s)
		} else {
			alive = append(alive, s)
		}
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("Still alive (%d):\n", len(alive)))
	for _, s := range alive {
		response.WriteString(fmt.Sprintf("- %s\n", s.DisplayName))
	}
	if len(out) > 0 {
		response.WriteString(fmt.Sprintf("Eliminated (%d):\n", len(out)))
		for _, s := range out {
			response.WriteString(fmt.Sprintf("- %s, week %d (%s)\n", s.DisplayName, s.EliminatedWeek, s.Reason))
		}
	}
	return response.String()
}

// FormatRunResult generates the response string for a reconciliation run
func FormatRunResult(result RunResult) string {
	var response strings.Builder
	label := "Week"
	if result.Mode == ModeAudit {
		label = "Audit through week"
	}
	response.WriteString(fmt.Sprintf("%s %d", label, result.Week))
	if result.DryRun {
		response.WriteString(" (dry run)")
	}
	response.WriteString(fmt.Sprintf(": %d newly eliminated, %d survived, %d pending, %d already eliminated",
		result.Summary.NewlyEliminated, result.Summary.Survived, result.Summary.Pending, result.Summary.AlreadyEliminated))
	if result.Summary.Warnings > 0 || result.Summary.Errors > 0 {
		response.WriteString(fmt.Sprintf(", %d warnings, %d errors", result.Summary.Warnings, result.Summary.Errors))
	}
	response.WriteString("\n")

	ids := make([]string, 0, len(result.ChangeSet))
	for id := range result.ChangeSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		patch := result.ChangeSet[id]
		response.WriteString(fmt.Sprintf("- <@%s> eliminated in week %d: %s\n", id, patch.EliminatedWeek, patch.EliminationReason))
	}
	for _, w := range result.Warnings {
		response.WriteString(fmt.Sprintf("! <@%s> week %d: %s\n", w.UserID, w.Week, w.Message))
	}
	return response.String()
}

// requireMember returns ErrNotMember if the user has not joined the pool
func (a *API) requireMember(ctx context.Context, userID string) error {
	members, err := a.Store.ListMembers(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID == userID {
			return nil
		}
	}
	return ErrNotMember
}

func newStanding(userID string, name string, status shared.SurvivorStatus) Standing {
	standing := Standing{UserID: userID, DisplayName: name, Eliminated: status.Eliminated}
	if status.Eliminated {
		standing.Reason = status.EliminationReason
		if status.EliminatedWeek != nil {
			standing.EliminatedWeek = *status.EliminatedWeek
		}
	}
	return standing
}
