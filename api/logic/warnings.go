/* warnings.go
 * Contains the error taxonomy for reconciliation. None of these abort a run, they are attached to the affected user
 * as a Warning or UserError so the host can surface them for manual review
 */

package logic

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable is used when a store read fails for a user. The user is skipped for the week
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrUnresolvableGame is used when a pick cannot be matched to any game of the week. The user stays pending
	ErrUnresolvableGame = errors.New("unresolvable game")
	// ErrAmbiguousGameMatch is used when a team appears in more than one game of the week
	ErrAmbiguousGameMatch = errors.New("ambiguous game match")
	// ErrInvalidPickShape is used when a pick record is missing required fields or belongs to another user/week
	ErrInvalidPickShape = errors.New("invalid pick shape")
	// ErrDuplicateTeam is used by the season audit when a user picked the same team in two weeks
	ErrDuplicateTeam = errors.New("duplicate team")
)

// Warning is a non fatal problem found while evaluating a user. Kind is one of the sentinel errors above
type Warning struct {
	UserID  string `json:"user_id"`
	Week    int    `json:"week"`
	Kind    error  `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newWarning(userID string, week int, kind error, format string, args ...any) Warning {
	return Warning{UserID: userID, Week: week, Kind: kind, Type: kind.Error(), Message: fmt.Sprintf(format, args...)}
}

func (w Warning) Error() string {
	return fmt.Sprintf("user %s week %d: %s: %s", w.UserID, w.Week, w.Kind, w.Message)
}

func (w Warning) Unwrap() error {
	return w.Kind
}

// UserError is a store failure that caused a user to be skipped for a week
type UserError struct {
	UserID string `json:"user_id"`
	Week   int    `json:"week"`
	Err    error  `json:"-"`
	Cause  string `json:"error"`
}

func (e UserError) Error() string {
	return fmt.Sprintf("user %s week %d: %v", e.UserID, e.Week, e.Err)
}

func (e UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err so that errors.Is(result, ErrDataUnavailable) holds
func NewUserError(userID string, week int, err error) UserError {
	wrapped := fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	return UserError{UserID: userID, Week: week, Err: wrapped, Cause: wrapped.Error()}
}
