/* models.go
 * This file contain the structs and helper functions that are used by api consumers
 */

package api

import (
	"context"
	"time"

	"survivor-pool/api/logic"
	"survivor-pool/api/shared"
	"survivor-pool/api/store"
)

// Mode is the kind of reconciliation run
type Mode string

const (
	ModeReconcile Mode = "reconcile"
	ModeAudit     Mode = "audit"
)

// RunResult is the report of a reconciliation run. Week is the reconciled week, or the last audited week
type RunResult struct {
	RunID       string             `json:"run_id"`
	Mode        Mode               `json:"mode"`
	Week        int                `json:"week"`
	DryRun      bool               `json:"dry_run"`
	StartedAt   time.Time          `json:"started_at"`
	ChangeSet   shared.ChangeSet   `json:"change_set"`
	Evaluations []logic.Evaluation `json:"evaluations"`
	Warnings    []logic.Warning    `json:"warnings"`
	Errors      []logic.UserError  `json:"errors"`
	Summary     logic.Summary      `json:"summary"`
	Applied     store.ApplyAck     `json:"applied"`
}

// Standing is one pool member's line in the standings
type Standing struct {
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	Eliminated     bool   `json:"eliminated"`
	EliminatedWeek int    `json:"eliminated_week,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// ResultsFeed fetches a week's game results from outside the pool
type ResultsFeed interface {
	FetchWeekResults(ctx context.Context, week int) ([]shared.GameResult, error)
}
