/* test_mocks.go
 * Contains mock structures for testing the API package and its consumers
 */

package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"survivor-pool/api/shared"
	"survivor-pool/api/store"
)

// PickCall records one GetPick call
type PickCall struct {
	UserID string
	Week   int
}

// MockStore implements store.Interface in memory. ApplyEliminations keeps the conditional write semantics of the
// MongoDB store: an already eliminated status is never overwritten
type MockStore struct {
	mu sync.Mutex

	// Storage for mock data
	Members  []shared.PoolMember
	Picks    map[int]map[string]shared.Pick
	Results  map[int]map[string]shared.GameResult
	Statuses map[string]shared.SurvivorStatus

	// Error injection for testing error paths
	ListMembersError       error
	GetPickErrors          map[string]error
	GetWeekResultsErrors   map[int]error
	GetStatusErrors        map[string]error
	ApplyEliminationsError error
	StoreWeekResultsError  error
	ListStatusesError      error
	AddMemberError         error
	StorePickError         error
	ListPicksError         error

	// Call tracking
	PickCalls  []PickCall
	ApplyCalls []shared.ChangeSet
}

// NewMockStore creates a new MockStore with the given members and no other data
func NewMockStore(members ...shared.PoolMember) *MockStore {
	return &MockStore{
		Members:              members,
		Picks:                make(map[int]map[string]shared.Pick),
		Results:              make(map[int]map[string]shared.GameResult),
		Statuses:             make(map[string]shared.SurvivorStatus),
		GetPickErrors:        make(map[string]error),
		GetWeekResultsErrors: make(map[int]error),
		GetStatusErrors:      make(map[string]error),
	}
}

var _ store.Interface = (*MockStore)(nil)

// SetPick is a test helper to set a user's pick
func (m *MockStore) SetPick(pick shared.Pick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Picks[pick.Week] == nil {
		m.Picks[pick.Week] = make(map[string]shared.Pick)
	}
	m.Picks[pick.Week][pick.UserID] = pick
}

// SetResults is a test helper to set a week's games
func (m *MockStore) SetResults(week int, games ...shared.GameResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make(map[string]shared.GameResult, len(games))
	for _, g := range games {
		g.Week = week
		results[g.GameID] = g
	}
	m.Results[week] = results
}

// PickCallsFor returns the weeks GetPick was called with for a user
func (m *MockStore) PickCallsFor(userID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var weeks []int
	for _, c := range m.PickCalls {
		if c.UserID == userID {
			weeks = append(weeks, c.Week)
		}
	}
	return weeks
}

// ListMembers mock implementation
func (m *MockStore) ListMembers(ctx context.Context) ([]shared.PoolMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListMembersError != nil {
		return nil, m.ListMembersError
	}
	return append([]shared.PoolMember(nil), m.Members...), nil
}

// AddMember mock implementation
func (m *MockStore) AddMember(ctx context.Context, member shared.PoolMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddMemberError != nil {
		return m.AddMemberError
	}
	for i := range m.Members {
		if m.Members[i].UserID == member.UserID {
			m.Members[i].DisplayName = member.DisplayName
			return nil
		}
	}
	m.Members = append(m.Members, member)
	return nil
}

// GetPick mock implementation
func (m *MockStore) GetPick(ctx context.Context, userID string, week int) (shared.Pick, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PickCalls = append(m.PickCalls, PickCall{UserID: userID, Week: week})
	if err := m.GetPickErrors[userID]; err != nil {
		return shared.Pick{}, false, err
	}
	pick, ok := m.Picks[week][userID]
	return pick, ok, nil
}

// StorePick mock implementation
func (m *MockStore) StorePick(ctx context.Context, pick shared.Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StorePickError != nil {
		return m.StorePickError
	}
	if pick.UserID == "" {
		return fmt.Errorf("pick user id cannot be empty")
	}
	if m.Picks[pick.Week] == nil {
		m.Picks[pick.Week] = make(map[string]shared.Pick)
	}
	m.Picks[pick.Week][pick.UserID] = pick
	return nil
}

// ListPicks mock implementation
func (m *MockStore) ListPicks(ctx context.Context, userID string) ([]shared.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListPicksError != nil {
		return nil, m.ListPicksError
	}
	var picks []shared.Pick
	for _, byUser := range m.Picks {
		if pick, ok := byUser[userID]; ok {
			picks = append(picks, pick)
		}
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].Week < picks[j].Week })
	return picks, nil
}

// GetWeekResults mock implementation
func (m *MockStore) GetWeekResults(ctx context.Context, week int) (map[string]shared.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.GetWeekResultsErrors[week]; err != nil {
		return nil, err
	}
	results := make(map[string]shared.GameResult, len(m.Results[week]))
	for id, g := range m.Results[week] {
		results[id] = g
	}
	return results, nil
}

// StoreWeekResults mock implementation
func (m *MockStore) StoreWeekResults(ctx context.Context, week int, games []shared.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreWeekResultsError != nil {
		return m.StoreWeekResultsError
	}
	if m.Results[week] == nil {
		m.Results[week] = make(map[string]shared.GameResult)
	}
	for _, g := range games {
		if g.GameID == "" {
			return fmt.Errorf("game result for %s vs %s has no game id", g.HomeTeam, g.AwayTeam)
		}
		g.Week = week
		m.Results[week][g.GameID] = g
	}
	return nil
}

// GetStatus mock implementation
func (m *MockStore) GetStatus(ctx context.Context, userID string) (shared.SurvivorStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.GetStatusErrors[userID]; err != nil {
		return shared.SurvivorStatus{}, err
	}
	status, ok := m.Statuses[userID]
	if !ok {
		return shared.SurvivorStatus{UserID: userID}, nil
	}
	return status, nil
}

// ListStatuses mock implementation
func (m *MockStore) ListStatuses(ctx context.Context) ([]shared.SurvivorStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListStatusesError != nil {
		return nil, m.ListStatusesError
	}
	statuses := make([]shared.SurvivorStatus, 0, len(m.Statuses))
	for _, s := range m.Statuses {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].UserID < statuses[j].UserID })
	return statuses, nil
}

// ApplyEliminations mock implementation
func (m *MockStore) ApplyEliminations(ctx context.Context, changes shared.ChangeSet) (store.ApplyAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCalls = append(m.ApplyCalls, changes)

	ack := store.ApplyAck{Applied: []string{}, AlreadyEliminated: []string{}}
	if m.ApplyEliminationsError != nil {
		return ack, m.ApplyEliminationsError
	}

	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		prior, ok := m.Statuses[id]
		if !ok {
			prior = shared.SurvivorStatus{UserID: id}
		}
		if prior.Eliminated {
			ack.AlreadyEliminated = append(ack.AlreadyEliminated, id)
			continue
		}
		m.Statuses[id] = changes[id].Apply(prior)
		ack.Applied = append(ack.Applied, id)
	}
	return ack, nil
}

// MockFeed implements ResultsFeed for testing
type MockFeed struct {
	mu    sync.Mutex
	Games map[int][]shared.GameResult
	Err   error
	Calls []int
}

// FetchWeekResults mock implementation
func (f *MockFeed) FetchWeekResults(ctx context.Context, week int) ([]shared.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, week)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Games[week], nil
}
