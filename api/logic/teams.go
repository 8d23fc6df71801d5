/* teams.go
 * Contains the team name normalizer used to compare the team a user picked against the teams recorded on a game
 * result. Picks and results are recorded with inconsistent naming (full names, abbreviations, city or mascot only,
 * ESPN display variants) so every comparison goes through NormalizeTeam
 */

package logic

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type franchise struct {
	name    string
	aliases []string
}

// Ambiguous forms such as "LA", "Los Angeles", "New York" and "NY" are left out on purpose, they pass through
// NormalizeTeam unchanged
var franchises = []franchise{
	{"Arizona Cardinals", []string{"ARI", "ARZ", "AZ", "Arizona", "Cardinals", "Cards", "ARI Cardinals", "AZ Cardinals", "Phoenix Cardinals"}},
	{"Atlanta Falcons", []string{"ATL", "Atlanta", "Falcons", "ATL Falcons"}},
	{"Baltimore Ravens", []string{"BAL", "Baltimore", "Ravens", "BAL Ravens"}},
	{"Buffalo Bills", []string{"BUF", "Buffalo", "Bills", "BUF Bills"}},
	{"Carolina Panthers", []string{"CAR", "Carolina", "Panthers", "CAR Panthers"}},
	{"Chicago Bears", []string{"CHI", "Chicago", "Bears", "CHI Bears"}},
	{"Cincinnati Bengals", []string{"CIN", "Cincinnati", "Bengals", "CIN Bengals"}},
	{"Cleveland Browns", []string{"CLE", "Cleveland", "Browns", "CLE Browns"}},
	{"Dallas Cowboys", []string{"DAL", "Dallas", "Cowboys", "DAL Cowboys"}},
	{"Denver Broncos", []string{"DEN", "Denver", "Broncos", "DEN Broncos"}},
	{"Detroit Lions", []string{"DET", "Detroit", "Lions", "DET Lions"}},
	{"Green Bay Packers", []string{"GB", "GNB", "Green Bay", "Packers", "GB Packers"}},
	{"Houston Texans", []string{"HOU", "Houston", "Texans", "HOU Texans"}},
	{"Indianapolis Colts", []string{"IND", "Indianapolis", "Indy", "Colts", "IND Colts"}},
	{"Jacksonville Jaguars", []string{"JAX", "JAC", "Jacksonville", "Jaguars", "Jags", "JAX Jaguars"}},
	{"Kansas City Chiefs", []string{"KC", "KAN", "KCC", "Kansas City", "Chiefs", "KC Chiefs"}},
	{"Las Vegas Raiders", []string{"LV", "LVR", "OAK", "Las Vegas", "Vegas", "Oakland", "Raiders", "LV Raiders", "Oakland Raiders"}},
	{"Los Angeles Chargers", []string{"LAC", "SD", "SDG", "Chargers", "LA Chargers", "San Diego", "San Diego Chargers"}},
	{"Los Angeles Rams", []string{"LAR", "STL", "Rams", "LA Rams", "St Louis", "St Louis Rams"}},
	{"Miami Dolphins", []string{"MIA", "Miami", "Dolphins", "Fins", "MIA Dolphins"}},
	{"Minnesota Vikings", []string{"MIN", "Minnesota", "Vikings", "MIN Vikings"}},
	{"New England Patriots", []string{"NE", "NWE", "New England", "Patriots", "Pats", "NE Patriots"}},
	{"New Orleans Saints", []string{"NO", "NOR", "New Orleans", "NOLA", "Saints", "NO Saints"}},
	{"New York Giants", []string{"NYG", "Giants", "NY Giants"}},
	{"New York Jets", []string{"NYJ", "Jets", "NY Jets"}},
	{"Philadelphia Eagles", []string{"PHI", "Philadelphia", "Philly", "Eagles", "PHI Eagles"}},
	{"Pittsburgh Steelers", []string{"PIT", "Pittsburgh", "Steelers", "PIT Steelers"}},
	{"San Francisco 49ers", []string{"SF", "SFO", "San Francisco", "49ers", "Niners", "SF 49ers"}},
	{"Seattle Seahawks", []string{"SEA", "Seattle", "Seahawks", "SEA Seahawks"}},
	{"Tampa Bay Buccaneers", []string{"TB", "TAM", "Tampa Bay", "Tampa", "Buccaneers", "Bucs", "TB Buccaneers", "TB Bucs"}},
	{"Tennessee Titans", []string{"TEN", "Tennessee", "Titans", "TEN Titans"}},
	{"Washington Commanders", []string{"WSH", "WAS", "Washington", "Commanders", "WSH Commanders", "Washington Football Team", "Football Team", "Washington Redskins", "Redskins"}},
}

var (
	teamLookup  = buildTeamLookup()
	teamTargets = buildTeamTargets()
)

// buildTeamLookup maps every lookup key (canonical names included) to its canonical name. First entry wins
func buildTeamLookup() map[string]string {
	lookup := make(map[string]string)
	for _, f := range franchises {
		if _, ok := lookup[teamKey(f.name)]; !ok {
			lookup[teamKey(f.name)] = f.name
		}
		for _, alias := range f.aliases {
			if _, ok := lookup[teamKey(alias)]; !ok {
				lookup[teamKey(alias)] = f.name
			}
		}
	}
	return lookup
}

// buildTeamTargets returns the sorted lookup keys used as fuzzy search targets
func buildTeamTargets() []string {
	targets := make([]string, 0, len(teamLookup))
	for key := range teamLookup {
		targets = append(targets, key)
	}
	sort.Strings(targets)
	return targets
}

// teamKey lower cases the input, removes periods and collapses whitespace
func teamKey(raw string) string {
	key := strings.ToLower(raw)
	key = strings.ReplaceAll(key, ".", "")
	return strings.Join(strings.Fields(key), " ")
}

// NormalizeTeam maps a textual team representation to the canonical franchise name.
// Preconditions: Receives any string, including an empty string. Matching is case-insensitive
// Postconditions: Returns the canonical full name (e.g. "Kansas City Chiefs"), or the input unchanged if it is not a
// known name for any franchise
func NormalizeTeam(raw string) string {
	if canonical, ok := teamLookup[teamKey(raw)]; ok {
		return canonical
	}
	return raw
}

// IsKnownTeam reports whether NormalizeTeam recognises the input
func IsKnownTeam(raw string) bool {
	_, ok := teamLookup[teamKey(raw)]
	return ok
}

// SameTeam reports whether two raw names refer to the same franchise. Unknown names only match when identical
func SameTeam(a, b string) bool {
	return NormalizeTeam(a) == NormalizeTeam(b)
}

// CanonicalTeams returns the 32 canonical franchise names in alphabetical order
func CanonicalTeams() []string {
	names := make([]string, 0, len(franchises))
	for _, f := range franchises {
		names = append(names, f.name)
	}
	sort.Strings(names)
	return names
}

// SuggestTeam proposes the canonical team a misspelt name most likely refers to. It is only used to make warnings
// easier to act on, never to match a pick to a game.
// Preconditions: Receives raw team string
// Postconditions: Returns the canonical name of the closest fuzzy match and true, or "" and false if nothing matches
func SuggestTeam(raw string) (string, bool) {
	key := teamKey(raw)
	if key == "" {
		return "", false
	}
	if canonical, ok := teamLookup[key]; ok {
		return canonical, true
	}

	ranks := fuzzy.RankFindNormalizedFold(key, teamTargets)
	if len(ranks) == 0 {
		return "", false
	}
	// Closest distance first, ties broken by target so the suggestion is deterministic
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})
	return teamLookup[ranks[0].Target], true
}
