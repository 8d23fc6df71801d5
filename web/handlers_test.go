/* handlers_test.go
 * Contains unit tests for the HTTP handlers using httptest and gin test mode
 */

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"survivor-pool/api/api"
	"survivor-pool/api/logic"
	"survivor-pool/api/shared"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// createTestServer creates a Server over a MockStore where u2 loses week 1 with the Bills
func createTestServer(t *testing.T, feed api.ResultsFeed, secret string) (*Server, *api.MockStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockStore := api.NewMockStore(
		shared.PoolMember{UserID: "u1", DisplayName: "Alice"},
		shared.PoolMember{UserID: "u2", DisplayName: "Bob"},
	)
	mockStore.SetResults(1, shared.GameResult{GameID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 27, AwayScore: 20, Status: "Final"})
	mockStore.SetPick(shared.Pick{UserID: "u1", Week: 1, Team: "KC", GameID: "g1"})
	mockStore.SetPick(shared.Pick{UserID: "u2", Week: 1, Team: "Buffalo", GameID: "g1"})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	apiPtr, err := api.NewAPI(mockStore, feed, logic.DefaultPolicy(), logger)
	require.NoError(t, err)
	apiPtr.Reconciler.Now = func() time.Time { return time.Date(2025, 9, 8, 3, 0, 0, 0, time.UTC) }

	return NewServer(Config{API: apiPtr, Logger: logger, Secret: secret}), mockStore
}

func doRequest(s *Server, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return body
}

// region ResultsWebhookHandler tests

func TestResultsWebhook_InvalidJSON(t *testing.T) {
	s, _ := createTestServer(t, nil, "")

	w := doRequest(s, http.MethodPost, "/webhooks/results", []byte("invalid json"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultsWebhook_InvalidWeek(t *testing.T) {
	s, _ := createTestServer(t, nil, "")

	w := doRequest(s, http.MethodPost, "/webhooks/results", mustJSON(t, ResultsEvent{Week: 0, Event: "final"}), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultsWebhook_GameMissingTeam(t *testing.T) {
	s, _ := createTestServer(t, nil, "")
	body := `{"week": 2, "event": "final", "games": [{"id": "g9", "home_team": "Miami Dolphins"}]}`

	w := doRequest(s, http.MethodPost, "/webhooks/results", []byte(body), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultsWebhook_PingIgnored(t *testing.T) {
	feed := &api.MockFeed{}
	s, _ := createTestServer(t, feed, "")

	w := doRequest(s, http.MethodPost, "/webhooks/results", mustJSON(t, ResultsEvent{Week: 1, Event: "ping"}), nil)
	s.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
	assert.Empty(t, feed.Calls)
}

// TestResultsWebhook_InlineGames tests that pushed games are stored and the week reconciled in the background
func TestResultsWebhook_InlineGames(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")
	mockStore.Results = map[int]map[string]shared.GameResult{}
	event := ResultsEvent{Week: 1, Event: "final", Games: []WebhookGame{
		{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 27, AwayScore: 20, Status: "Final"},
	}}

	w := doRequest(s, http.MethodPost, "/webhooks/results", mustJSON(t, event), nil)
	s.Wait()

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Final", mockStore.Results[1]["g1"].Status)
	assert.True(t, mockStore.Statuses["u2"].Eliminated)
	assert.False(t, mockStore.Statuses["u1"].Eliminated)
}

// TestResultsWebhook_SyncsFromFeed tests that an event without games syncs the week from the feed
func TestResultsWebhook_SyncsFromFeed(t *testing.T) {
	feed := &api.MockFeed{Games: map[int][]shared.GameResult{
		1: {{GameID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 27, AwayScore: 20, Status: "Final"}},
	}}
	s, mockStore := createTestServer(t, feed, "")

	w := doRequest(s, http.MethodPost, "/webhooks/results", mustJSON(t, ResultsEvent{Week: 1, Event: "final"}), nil)
	s.Wait()

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int{1}, feed.Calls)
	assert.True(t, mockStore.Statuses["u2"].Eliminated)
}

// TestResultsWebhook_FeedFailureDoesNotReconcile tests a failed sync leaves statuses untouched
func TestResultsWebhook_FeedFailureDoesNotReconcile(t *testing.T) {
	s, mockStore := createTestServer(t, &api.MockFeed{Err: errors.New("feed down")}, "")

	w := doRequest(s, http.MethodPost, "/webhooks/results", mustJSON(t, ResultsEvent{Week: 1, Event: "final"}), nil)
	s.Wait()

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, mockStore.Statuses)
	assert.Empty(t, mockStore.ApplyCalls)
}

// TestResultsWebhook_RepeatedEventsConverge tests that the same webhook delivered twice eliminates once
func TestResultsWebhook_RepeatedEventsConverge(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")
	event := mustJSON(t, ResultsEvent{Week: 1, Event: "final", Games: []WebhookGame{
		{ID: "g1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills", HomeScore: 27, AwayScore: 20, Status: "Final"},
	}})

	first := doRequest(s, http.MethodPost, "/webhooks/results", event, nil)
	second := doRequest(s, http.MethodPost, "/webhooks/results", event, nil)
	s.Wait()

	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, http.StatusAccepted, second.Code)
	require.True(t, mockStore.Statuses["u2"].Eliminated)
	assert.Equal(t, 1, *mockStore.Statuses["u2"].EliminatedWeek)
	assert.Len(t, mockStore.ApplyCalls, 1)
}

func TestResultsWebhook_RateLimited(t *testing.T) {
	s, _ := createTestServer(t, nil, "")
	s.limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	event := mustJSON(t, ResultsEvent{Week: 1, Event: "final"})

	doRequest(s, http.MethodPost, "/webhooks/results", event, nil)
	w := doRequest(s, http.MethodPost, "/webhooks/results", event, nil)
	s.Wait()

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// endregion

// region requireSecret tests

func TestRequireSecret_Missing(t *testing.T) {
	s, _ := createTestServer(t, nil, "shh")

	w := doRequest(s, http.MethodPost, "/admin/reconcile/1", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSecret_Wrong(t *testing.T) {
	s, _ := createTestServer(t, nil, "shh")

	w := doRequest(s, http.MethodPost, "/webhooks/results", mustJSON(t, ResultsEvent{Week: 1}), map[string]string{SecretHeader: "nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSecret_Correct(t *testing.T) {
	s, _ := createTestServer(t, nil, "shh")

	w := doRequest(s, http.MethodPost, "/admin/reconcile/1?dry_run=true", nil, map[string]string{SecretHeader: "shh"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSecret_PublicRoutesOpen(t *testing.T) {
	s, _ := createTestServer(t, nil, "shh")

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/standings", nil, nil).Code)
}

// endregion

// region admin tests

func TestReconcileHandler_Applies(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")

	w := doRequest(s, http.MethodPost, "/admin/reconcile/1", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var result api.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, api.ModeReconcile, result.Mode)
	assert.Equal(t, 1, result.Summary.NewlyEliminated)
	assert.Equal(t, []string{"u2"}, result.Applied.Applied)
	assert.True(t, mockStore.Statuses["u2"].Eliminated)
}

func TestReconcileHandler_DryRun(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")

	w := doRequest(s, http.MethodPost, "/admin/reconcile/1?dry_run=true", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var result api.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Contains(t, result.ChangeSet, "u2")
	assert.Empty(t, mockStore.Statuses)
}

func TestReconcileHandler_BadParams(t *testing.T) {
	s, _ := createTestServer(t, nil, "")

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/admin/reconcile/0", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/admin/reconcile/abc", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/admin/reconcile/1?dry_run=maybe", nil, nil).Code)
}

func TestReconcileHandler_RosterError(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")
	mockStore.ListMembersError = errors.New("db down")

	w := doRequest(s, http.MethodPost, "/admin/reconcile/1", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to load pool members")
}

func TestAuditHandler_Runs(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")

	w := doRequest(s, http.MethodPost, "/admin/audit/1", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var result api.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, api.ModeAudit, result.Mode)
	assert.True(t, mockStore.Statuses["u2"].Eliminated)
}

func TestSyncHandler_NoFeed(t *testing.T) {
	s, _ := createTestServer(t, nil, "")

	w := doRequest(s, http.MethodPost, "/admin/sync/2", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSyncHandler_StoresGames(t *testing.T) {
	feed := &api.MockFeed{Games: map[int][]shared.GameResult{
		2: {{GameID: "g7", HomeTeam: "Miami Dolphins", AwayTeam: "New York Jets", Status: "Scheduled"}},
	}}
	s, mockStore := createTestServer(t, feed, "")

	w := doRequest(s, http.MethodPost, "/admin/sync/2", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"week":2,"games":1}`, w.Body.String())
	assert.Contains(t, mockStore.Results[2], "g7")
}

// endregion

// region StandingsHandler tests

func TestStandingsHandler_Success(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")
	week := 1
	mockStore.Statuses["u2"] = shared.SurvivorStatus{UserID: "u2", Eliminated: true, EliminatedWeek: &week, EliminationReason: logic.ReasonNoPick}

	w := doRequest(s, http.MethodGet, "/standings", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Standings []api.Standing `json:"standings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Standings, 2)
	assert.Equal(t, "u1", body.Standings[0].UserID)
	assert.False(t, body.Standings[0].Eliminated)
	assert.Equal(t, "u2", body.Standings[1].UserID)
	assert.Equal(t, 1, body.Standings[1].EliminatedWeek)
}

func TestStandingsHandler_StoreError(t *testing.T) {
	s, mockStore := createTestServer(t, nil, "")
	mockStore.ListMembersError = errors.New("db down")

	w := doRequest(s, http.MethodGet, "/standings", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// endregion
