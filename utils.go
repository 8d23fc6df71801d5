/* utils.go
 * Utility functions used by main.go for reading the command line flags
 */

package main

import (
	"fmt"
	"strings"
)

type runMode string

const (
	modeBot       runMode = "bot"
	modeWeb       runMode = "web"
	modeReconcile runMode = "reconcile"
	modeAudit     runMode = "audit"
	modeSync      runMode = "sync"
)

// parseMode converts the -mode flag into a runMode
// Preconditions: Receives the flag value (case insensitive)
// Postconditions: Returns the runMode or an error if the value is not one of bot, web, reconcile, audit or sync
func parseMode(str string) (runMode, error) {
	mode := runMode(strings.ToLower(strings.TrimSpace(str)))
	switch mode {
	case modeBot, modeWeb, modeReconcile, modeAudit, modeSync:
		return mode, nil
	}
	return "", fmt.Errorf("invalid mode %q, expected bot, web, reconcile, audit or sync", str)
}

// checkWeek validates the -week flag for the modes that need one
func checkWeek(mode runMode, week int) error {
	switch mode {
	case modeReconcile, modeAudit, modeSync:
		if week < 1 {
			return fmt.Errorf("-week must be 1 or greater for %s, got %d", mode, week)
		}
	}
	return nil
}
