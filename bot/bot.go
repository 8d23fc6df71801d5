/* bot.go
 * Contains logic used for creating the bot and parsing commands. Requires a discord bot token and an API pointer,
 * both of which are passed in from main.go
 */

package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"survivor-pool/api/api"

	"github.com/go-andiamo/splitter"
	"github.com/sirupsen/logrus"
)

// commandTimeout bounds the store and feed work a single command can do
const commandTimeout = 2 * time.Minute

type Bot struct {
	BotToken string
	APIPtr   *api.API
	// IsAdmin decides who may run $reconcile, $audit and $sync. nil means nobody
	IsAdmin func(userID string) bool
	Logger  *logrus.Logger
}

func NewBot(botToken string, apiPtr *api.API, isAdmin func(userID string) bool, logger *logrus.Logger) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if apiPtr == nil {
		return nil, fmt.Errorf("api is required but none was provided")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Bot{
		BotToken: botToken,
		APIPtr:   apiPtr,
		IsAdmin:  isAdmin,
		Logger:   logger,
	}, nil
}

// isAdmin reports whether the user may run admin commands
func (b *Bot) isAdmin(userID string) bool {
	return b.IsAdmin != nil && b.IsAdmin(userID)
}

// parseCommand splits a message into its command and arguments.
// Preconditions: Receives the raw message content
// Postconditions: Returns the lower cased command (e.g. "$audit") and its arguments with surrounding quotes removed,
// or "" if the message is not a command. Quoted arguments containing spaces are kept as one argument
func parseCommand(content string) (string, []string) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "$") {
		return "", nil
	}

	spaceSplitter, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return "", nil
	}
	parts, err := spaceSplitter.Split(content)
	if err != nil {
		// an unbalanced quote, fall back to plain fields
		parts = strings.Fields(content)
	}

	var fields []string
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), "\"“”")
		if part != "" {
			fields = append(fields, part)
		}
	}
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// parseWeekArgs reads "<week> [dry]" style arguments.
// Preconditions: Receives the arguments after the command
// Postconditions: Returns the week and whether a dry run was requested, or an error if the week is missing or is not a
// positive number
func parseWeekArgs(args []string) (int, bool, error) {
	if len(args) == 0 {
		return 0, false, fmt.Errorf("a week number is required")
	}
	week, err := strconv.Atoi(args[0])
	if err != nil || week < 1 {
		return 0, false, fmt.Errorf("%q is not a valid week", args[0])
	}

	dryRun := false
	for _, arg := range args[1:] {
		switch strings.ToLower(arg) {
		case "dry", "dry-run", "--dry-run", "dryrun":
			dryRun = true
		}
	}
	return week, dryRun, nil
}

// parsePickArgs reads the arguments of the $pick command: a week number followed by the team, which may be several
// words or quoted
func parsePickArgs(args []string) (int, string, error) {
	if len(args) < 2 {
		return 0, "", fmt.Errorf("a week number and a team are required")
	}
	week, err := strconv.Atoi(args[0])
	if err != nil || week < 1 {
		return 0, "", fmt.Errorf("%q is not a valid week", args[0])
	}
	team := strings.TrimSpace(strings.Join(args[1:], " "))
	if team == "" {
		return 0, "", fmt.Errorf("a team is required")
	}
	return week, team, nil
}
