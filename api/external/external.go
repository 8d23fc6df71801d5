/* external.go
 * Contains the client used to fetch game results from the results feed. The feed serves one JSON document per week
 * at {base url}/weeks/{week}/results. Requests are rate limited so a burst of syncs can't hammer the feed
 */

package external

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"survivor-pool/api/shared"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const userAgent = "SurvivorPoolResultFetcher/1.0"

type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Limiter *rate.Limiter
	Logger  *logrus.Logger
}

// NewClient creates a feed client. requestsPerSecond <= 0 disables rate limiting
func NewClient(baseURL string, apiKey string, requestsPerSecond float64, timeout time.Duration, logger *logrus.Logger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Limiter: rate.NewLimiter(limit, 1),
		Logger:  logger,
	}
}

// FetchWeekResults gets the results of every game in a week from the feed
// Preconditions: Receives a context and a week number >= 1
// Postconditions: Returns the week's games, or an error if the request fails or the document can't be parsed
func (c *Client) FetchWeekResults(ctx context.Context, week int) ([]shared.GameResult, error) {
	if week < 1 {
		return nil, fmt.Errorf("invalid week %d", week)
	}

	body, err := c.get(ctx, fmt.Sprintf("/weeks/%d/results", week))
	if err != nil {
		return nil, fmt.Errorf("error fetching week %d results: %w", week, err)
	}

	var doc WeekDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("error decoding week %d results: %w", week, err)
	}

	games, skipped := ParseWeekDocument(doc, week)
	for _, reason := range skipped {
		c.Logger.WithField("week", week).Warn(reason)
	}
	c.Logger.WithFields(logrus.Fields{"week": week, "games": len(games)}).Info("fetched week results")
	return games, nil
}

// get performs a rate limited GET against the feed and returns the (decompressed) body
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Accept-Encoding", "gzip")
	if c.APIKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	response, err := c.HTTP.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	var reader io.Reader = response.Body
	if response.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(response.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s failed with status %d: %s", path, response.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
