/* models.go
 * Contains the server configuration and the request bodies accepted by the HTTP endpoints
 */

package web

import (
	"sync"

	"survivor-pool/api/api"
	"survivor-pool/api/shared"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config holds the configuration for the web server
type Config struct {
	Addr string
	// Mode is the gin mode, "" leaves the current mode alone
	Mode string
	// Secret, when set, must be sent in the X-Webhook-Secret header of webhook and admin requests
	Secret string
	// WebhookRPS limits how often webhooks are accepted, <= 0 disables the limit
	WebhookRPS float64
	API        *api.API
	Logger     *logrus.Logger
}

// Server is the HTTP server that handles webhook and admin requests
type Server struct {
	api     *api.API
	logger  *logrus.Logger
	secret  string
	limiter *rate.Limiter

	// runMu serializes reconciliation runs so a burst of webhooks is processed one week at a time
	runMu sync.Mutex
	// pending tracks webhook runs still in flight
	pending sync.WaitGroup
}

// ResultsEvent is the body of POST /webhooks/results. Games is optional, without it the week is synced from the
// results feed
type ResultsEvent struct {
	Week  int           `json:"week"`
	Event string        `json:"event"`
	Games []WebhookGame `json:"games,omitempty" binding:"omitempty,dive"`
}

// WebhookGame is one game pushed inside a ResultsEvent
type WebhookGame struct {
	ID        string `json:"id" binding:"required"`
	HomeTeam  string `json:"home_team" binding:"required"`
	AwayTeam  string `json:"away_team" binding:"required"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Status    string `json:"status"`
}

// toGameResults converts the pushed games into stored results for the week
func (e ResultsEvent) toGameResults() []shared.GameResult {
	games := make([]shared.GameResult, 0, len(e.Games))
	for _, g := range e.Games {
		games = append(games, shared.GameResult{
			GameID:    g.ID,
			Week:      e.Week,
			HomeTeam:  g.HomeTeam,
			AwayTeam:  g.AwayTeam,
			HomeScore: g.HomeScore,
			AwayScore: g.AwayScore,
			Status:    g.Status,
		})
	}
	return games
}
