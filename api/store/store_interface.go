/* store_interface.go
 * Contains the store interfaces for dependency injection and testing. The reconciler only depends on the four read
 * and write interfaces, the hosts use Interface which bundles everything the Store implements
 */

package store

import (
	"context"

	"survivor-pool/api/shared"
)

// MembershipStore lists the users in the pool
type MembershipStore interface {
	ListMembers(ctx context.Context) ([]shared.PoolMember, error)
}

// PickStore returns a user's pick for a week. The bool is false when the user has not picked
type PickStore interface {
	GetPick(ctx context.Context, userID string, week int) (shared.Pick, bool, error)
}

// PickWriter saves picks submitted by users and lists a user's season of picks
type PickWriter interface {
	StorePick(ctx context.Context, pick shared.Pick) error
	ListPicks(ctx context.Context, userID string) ([]shared.Pick, error)
}

// ResultStore returns the results of every game in a week keyed by game id
type ResultStore interface {
	GetWeekResults(ctx context.Context, week int) (map[string]shared.GameResult, error)
}

// StatusStore reads survivor statuses and writes eliminations. A user with no stored status is alive
type StatusStore interface {
	GetStatus(ctx context.Context, userID string) (shared.SurvivorStatus, error)
	ApplyEliminations(ctx context.Context, changes shared.ChangeSet) (ApplyAck, error)
}

// MemberWriter registers users in the pool
type MemberWriter interface {
	AddMember(ctx context.Context, member shared.PoolMember) error
}

// ResultWriter stores synced game results
type ResultWriter interface {
	StoreWeekResults(ctx context.Context, week int, games []shared.GameResult) error
}

// StatusLister lists every stored survivor status
type StatusLister interface {
	ListStatuses(ctx context.Context) ([]shared.SurvivorStatus, error)
}

// Interface defines the methods that Store implements.
// This allows for mocking in tests.
type Interface interface {
	MembershipStore
	PickStore
	PickWriter
	ResultStore
	StatusStore
	MemberWriter
	ResultWriter
	StatusLister
}

// ApplyAck reports what ApplyEliminations did. AlreadyEliminated holds users whose stored status was already
// terminal, their write was skipped
type ApplyAck struct {
	Applied           []string `json:"applied"`
	AlreadyEliminated []string `json:"already_eliminated"`
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)
