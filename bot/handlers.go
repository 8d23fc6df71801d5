/* handlers.go
 * Contains testable handler methods that accept the DiscordSession interface
 */

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"survivor-pool/api/api"
	"survivor-pool/api/logic"
	"survivor-pool/api/shared"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// maxMessageLength is the Discord limit on a single message
const maxMessageLength = 2000

// helpMessageHandler handles the $help command
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("Survivor Pool Bot v1.0\n")
	res.WriteString("Pick one team each week. If your team loses (or ties, depending on the pool rules) or you don't pick before the week kicks off, you're out\n")
	res.WriteString("`$join`: join the pool\n")
	res.WriteString("`$pick week team`: pick a team for a week. You can change your pick until the week kicks off, but each team can only be used once a season\n")
	res.WriteString("`$status`: shows whether you are still alive\n")
	res.WriteString("`$alive`: shows everyone still alive and everyone who has been eliminated\n")
	res.WriteString("`$teams`: shows the team names that are recognised\n")
	res.WriteString("Admin only:\n")
	res.WriteString("`$sync week`: fetch the results for a week from the results feed\n")
	res.WriteString("`$reconcile week [dry]`: eliminate users based on the results of a week. Add `dry` to preview without saving\n")
	res.WriteString("`$audit week [dry]`: replay every week from week 1 up to the given week\n")
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// joinHandler handles the $join command
func (b *Bot) joinHandler(session DiscordSession, message *discordgo.MessageCreate) {
	user := shared.User{UserID: message.Author.ID, Username: message.Author.Username}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res := fmt.Sprintf("%s has joined the pool\n", user.Username)
	if err := b.APIPtr.JoinPool(ctx, user); err != nil {
		b.Logger.WithError(err).WithField("user_id", user.UserID).Warn("failed to join pool")
		res = fmt.Sprintf("An error occurred adding %s to the pool", user.Username)
	}
	session.ChannelMessageSend(message.ChannelID, res)
}

// statusHandler handles the $status command
func (b *Bot) statusHandler(session DiscordSession, message *discordgo.MessageCreate) {
	user := shared.User{UserID: message.Author.ID, Username: message.Author.Username}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := b.APIPtr.GetUserStatus(ctx, user)
	if err != nil {
		if errors.Is(err, api.ErrNotMember) {
			res = fmt.Sprintf("%s is not in the pool. Use $join to join\n", user.Username)
		} else {
			b.Logger.WithError(err).WithField("user_id", user.UserID).Warn("failed to get user status")
			res = fmt.Sprintf("An error occurred checking %s's status", user.Username)
		}
	}
	session.ChannelMessageSend(message.ChannelID, res)
}

// pickHandler handles the $pick command
// Preconditions: Receives the session, the message and the command arguments (week then team)
// Postconditions: Stores the pick and confirms it, or explains why the pick was refused
func (b *Bot) pickHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	user := shared.User{UserID: message.Author.ID, Username: message.Author.Username}
	week, team, err := parsePickArgs(args)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Usage: $pick week team (%s)", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	pick, err := b.APIPtr.SubmitPick(ctx, user, week, team)
	switch {
	case err == nil:
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s picked the %s for week %d\n", user.Username, pick.Team, week))
	case errors.Is(err, api.ErrNotMember):
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("%s is not in the pool. Use $join to join\n", user.Username))
	case errors.Is(err, api.ErrUnknownTeam):
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Pick not saved, %s. Use $teams to see the recognised teams", err))
	case errors.Is(err, api.ErrAlreadyEliminated),
		errors.Is(err, api.ErrWeekLocked),
		errors.Is(err, api.ErrTeamNotPlaying),
		errors.Is(err, api.ErrTeamAlreadyUsed):
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Pick not saved, %s", err))
	default:
		b.Logger.WithError(err).WithFields(logrus.Fields{"user_id": user.UserID, "week": week}).Warn("failed to store pick")
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("An error occurred saving %s's pick", user.Username))
	}
}

// aliveHandler handles the $alive command
func (b *Bot) aliveHandler(session DiscordSession, message *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	standings, err := b.APIPtr.GetStandings(ctx)
	if err != nil {
		b.Logger.WithError(err).Warn("failed to get standings")
		session.ChannelMessageSend(message.ChannelID, "An error occurred getting the standings")
		return
	}
	if len(standings) == 0 {
		session.ChannelMessageSend(message.ChannelID, "Nobody has joined the pool yet. Use $join to join")
		return
	}
	sendLong(session, message.ChannelID, api.FormatStandings(standings))
}

// teamsHandler handles the $teams command
func (b *Bot) teamsHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("Recognised teams are:\n")
	for _, team := range logic.CanonicalTeams() {
		res.WriteString(fmt.Sprintf("- %s\n", team))
	}
	session.ChannelMessageSend(message.ChannelID, res.String())
}

// syncHandler handles the $sync command
func (b *Bot) syncHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if !b.requireAdmin(session, message) {
		return
	}
	week, _, err := parseWeekArgs(args)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Usage: $sync week (%s)", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	n, err := b.APIPtr.SyncWeekResults(ctx, week)
	if err != nil {
		b.Logger.WithError(err).WithField("week", week).Warn("failed to sync week results")
		if errors.Is(err, api.ErrNoFeed) {
			session.ChannelMessageSend(message.ChannelID, "No results feed is configured")
			return
		}
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("An error occurred syncing week %d results", week))
		return
	}
	session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Stored %d games for week %d", n, week))
}

// reconcileHandler handles the $reconcile command
func (b *Bot) reconcileHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	b.runHandler(session, message, args, api.ModeReconcile)
}

// auditHandler handles the $audit command
func (b *Bot) auditHandler(session DiscordSession, message *discordgo.MessageCreate, args []string) {
	b.runHandler(session, message, args, api.ModeAudit)
}

// runHandler runs a reconciliation or an audit and posts the summary
// Preconditions: Receives the session, the message, the command arguments and the run mode
// Postconditions: Posts the formatted RunResult, or a usage or error message. Non admins get a refusal
func (b *Bot) runHandler(session DiscordSession, message *discordgo.MessageCreate, args []string, mode api.Mode) {
	if !b.requireAdmin(session, message) {
		return
	}
	week, dryRun, err := parseWeekArgs(args)
	if err != nil {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("Usage: $%s week [dry] (%s)", mode, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var result api.RunResult
	if mode == api.ModeAudit {
		result, err = b.APIPtr.Audit(ctx, week, dryRun)
	} else {
		result, err = b.APIPtr.Reconcile(ctx, week, dryRun)
	}
	if err != nil {
		b.Logger.WithError(err).WithFields(logrus.Fields{"week": week, "mode": mode}).Warn("run failed")
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf("An error occurred running the %s for week %d", mode, week))
		return
	}
	sendLong(session, message.ChannelID, api.FormatRunResult(result))
}

// requireAdmin sends a refusal and returns false if the author is not an admin
func (b *Bot) requireAdmin(session DiscordSession, message *discordgo.MessageCreate) bool {
	if b.isAdmin(message.Author.ID) {
		return true
	}
	session.ChannelMessageSend(message.ChannelID, "Only pool admins can run this command")
	return false
}

// newMessageHandler routes messages to the appropriate handler
// botUserID is the bot's user ID to prevent self-responses
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	if message.Author == nil || message.Author.ID == botUserID {
		return
	}

	command, args := parseCommand(message.Content)
	switch command {
	case "$help":
		b.helpMessageHandler(session, message)

	case "$join":
		b.joinHandler(session, message)

	case "$pick":
		b.pickHandler(session, message, args)

	case "$status":
		b.statusHandler(session, message)

	case "$alive", "$standings":
		b.aliveHandler(session, message)

	case "$teams":
		b.teamsHandler(session, message)

	case "$sync":
		b.syncHandler(session, message, args)

	case "$reconcile":
		b.reconcileHandler(session, message, args)

	case "$audit":
		b.auditHandler(session, message, args)
	}
}

// sendLong sends content in as many messages as needed to stay under the Discord length limit, splitting on lines
func sendLong(session DiscordSession, channelID string, content string) {
	for _, chunk := range chunkMessage(content, maxMessageLength) {
		session.ChannelMessageSend(channelID, chunk)
	}
}

// chunkMessage splits content on line boundaries into pieces no longer than limit bytes. A single line longer than
// the limit is cut on a rune boundary
func chunkMessage(content string, limit int) []string {
	if len(content) <= limit {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(content, "\n") {
		for len(line) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			cut := runeBoundary(line, limit)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// runeBoundary returns the largest cut point <= limit that does not split a UTF-8 sequence
func runeBoundary(line string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}
