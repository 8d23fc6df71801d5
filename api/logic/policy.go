/* policy.go
 * Contains the configurable rules for the two cases the pool rules leave open: tied games and users that did not
 * submit a pick
 */

package logic

import (
	"fmt"
	"strings"
)

// TiePolicy decides what happens to a user whose picked game ended in a tie
type TiePolicy int

const (
	// TieEliminates treats any non win as a loss
	TieEliminates TiePolicy = iota
	// TieSurvives lets the user through to the next week
	TieSurvives
)

func (p TiePolicy) String() string {
	if p == TieSurvives {
		return "survive"
	}
	return "eliminate"
}

// NoPickPolicy decides when a missing pick turns into an elimination
type NoPickPolicy int

const (
	// NoPickAtKickoff eliminates once any game of the week is in progress or final
	NoPickAtKickoff NoPickPolicy = iota
	// NoPickAtFirstFinal eliminates only once any game of the week is final
	NoPickAtFirstFinal
)

func (p NoPickPolicy) String() string {
	if p == NoPickAtFirstFinal {
		return "first-final"
	}
	return "kickoff"
}

// Policy bundles the rules used by EvaluateWeek. The zero value is the default rule set
type Policy struct {
	Tie    TiePolicy
	NoPick NoPickPolicy
}

// DefaultPolicy returns the default rule set: ties eliminate, missing picks eliminate at the first kickoff
func DefaultPolicy() Policy {
	return Policy{Tie: TieEliminates, NoPick: NoPickAtKickoff}
}

// ParseTiePolicy converts a config string into a TiePolicy.
// Preconditions: Receives "eliminate", "survive" or "" (case insensitive)
// Postconditions: Returns the policy, or an error for any other value
func ParseTiePolicy(str string) (TiePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "", "eliminate", "loss":
		return TieEliminates, nil
	case "survive", "win":
		return TieSurvives, nil
	}
	return TieEliminates, fmt.Errorf("invalid tie policy %q, expected eliminate or survive", str)
}

// ParseNoPickPolicy converts a config string into a NoPickPolicy.
// Preconditions: Receives "kickoff", "first-final" or "" (case insensitive)
// Postconditions: Returns the policy, or an error for any other value
func ParseNoPickPolicy(str string) (NoPickPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "", "kickoff":
		return NoPickAtKickoff, nil
	case "first-final", "first_final", "final":
		return NoPickAtFirstFinal, nil
	}
	return NoPickAtKickoff, fmt.Errorf("invalid no pick policy %q, expected kickoff or first-final", str)
}
