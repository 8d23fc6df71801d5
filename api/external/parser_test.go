/* parser_test.go
 * Contains unit tests for parser.go and models.go
 */

package external

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// region ParseWeekDocument tests

func TestParseWeekDocument_SkipsBadGames(t *testing.T) {
	doc := WeekDocument{Week: 5, Games: []FeedGame{
		{ID: "b", Home: FeedSide{Team: "Chiefs", Score: 3}, Away: FeedSide{Team: "Bills", Score: 7}, Status: " Final "},
		{ID: "", Home: FeedSide{Team: "Jets"}, Away: FeedSide{Team: "Giants"}},
		{ID: "c", Home: FeedSide{Team: "Rams"}},
		{ID: "b", Home: FeedSide{Team: "Chiefs"}, Away: FeedSide{Team: "Bills"}},
		{ID: "a", Home: FeedSide{Team: "Eagles"}, Away: FeedSide{Team: "Cowboys"}, Status: "Scheduled"},
	}}

	games, skipped := ParseWeekDocument(doc, 5)

	require.Len(t, games, 2)
	assert.Equal(t, "a", games[0].GameID)
	assert.Equal(t, "b", games[1].GameID)
	assert.Equal(t, "Final", games[1].Status)
	assert.Equal(t, 7, games[1].AwayScore)
	assert.Len(t, skipped, 3)
}

// TestParseWeekDocument_WeekMismatch tests that the requested week always wins
func TestParseWeekDocument_WeekMismatch(t *testing.T) {
	doc := WeekDocument{Week: 4, Games: []FeedGame{
		{ID: "a", Home: FeedSide{Team: "Eagles"}, Away: FeedSide{Team: "Cowboys"}},
	}}

	games, skipped := ParseWeekDocument(doc, 5)

	require.Len(t, games, 1)
	assert.Equal(t, 5, games[0].Week)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "feed returned week 4")
}

// endregion

// region FlexScore tests

func TestFlexScore_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  FlexScore
	}{
		{`{"score": 21}`, 21},
		{`{"score": "14"}`, 14},
		{`{"score": " 3 "}`, 3},
		{`{"score": null}`, 0},
		{`{"score": ""}`, 0},
		{`{}`, 0},
	}
	for _, tt := range tests {
		var side FeedSide
		require.NoError(t, json.Unmarshal([]byte(tt.input), &side), tt.input)
		assert.Equal(t, tt.want, side.Score, tt.input)
	}
}

func TestFlexScore_Invalid(t *testing.T) {
	var side FeedSide
	err := json.Unmarshal([]byte(`{"score": "twenty"}`), &side)
	assert.Error(t, err)
}

// endregion
