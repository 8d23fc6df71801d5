/* models.go
 * This file contains the models used by the external package when decoding the results feed
 */

package external

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WeekDocument is the feed's document for one week
type WeekDocument struct {
	Week  int        `json:"week"`
	Games []FeedGame `json:"games"`
}

type FeedGame struct {
	ID     string   `json:"id"`
	Home   FeedSide `json:"home"`
	Away   FeedSide `json:"away"`
	Status string   `json:"status"`
}

type FeedSide struct {
	Team  string    `json:"team"`
	Score FlexScore `json:"score"`
}

// FlexScore accepts a score sent as a JSON number, a numeric string or null (0)
type FlexScore int

func (s *FlexScore) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = 0
			return nil
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid score %q: %w", raw, err)
	}
	*s = FlexScore(n)
	return nil
}
