package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// CommandEvent is the normalized form of a prefix command message.
type CommandEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Content   string
}

const helpText = `**Commands**
` + "`add <lang>`" + ` / ` + "`remove <lang>`" + ` – enable or disable a language (admin)
` + "`list`" + ` – show enabled languages
` + "`mode <thread|inline>`" + ` – where translations are posted (admin)
` + "`flag <emoji> <lang>`" + ` – map a custom emoji to a language (admin)
` + "`dict set <term> <replacement>`" + ` / ` + "`dict remove <term>`" + ` / ` + "`dict list`" + ` – term overrides (admin)
` + "`stats`" + ` – translation activity for the last 30 days
` + "`usage`" + ` – provider character usage by day
` + "`backfill [n]`" + ` – add flag reactions to recent messages (admin)
` + "`guess`" + ` – start a guess-the-language round
` + "`answer <language>`" + ` – answer the open round`

// HandleCommand parses and executes one prefix command.
func (b *Bot) HandleCommand(ctx context.Context, ev CommandEvent) {
	args := strings.Fields(strings.TrimPrefix(ev.Content, b.prefix))
	if len(args) == 0 {
		b.reply(ev, helpText)
		return
	}
	cmd := strings.ToLower(args[0])
	args = args[1:]

	log := logrus.WithFields(logrus.Fields{
		"guild_id": ev.GuildID,
		"user_id":  ev.UserID,
		"command":  cmd,
	})

	switch cmd {
	case "help":
		b.reply(ev, helpText)

	case "add":
		if !b.requireAdmin(ev) {
			return
		}
		if len(args) != 1 {
			b.reply(ev, "Usage: add <lang>")
			return
		}
		langs, err := b.guilds.AddLanguage(ev.GuildID, args[0])
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		b.reply(ev, fmt.Sprintf("Enabled %s. Languages: %s", LanguageName(args[0]), strings.Join(langs, ", ")))

	case "remove":
		if !b.requireAdmin(ev) {
			return
		}
		if len(args) != 1 {
			b.reply(ev, "Usage: remove <lang>")
			return
		}
		langs, err := b.guilds.RemoveLanguage(ev.GuildID, args[0])
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		b.reply(ev, fmt.Sprintf("Disabled %s. Languages: %s", LanguageName(args[0]), strings.Join(langs, ", ")))

	case "list":
		settings, err := b.guilds.GetOrCreate(ev.GuildID)
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		globals := b.defaults.Get()
		var lines []string
		for _, lang := range b.defaults.SortByPriority(settings.Languages) {
			lines = append(lines, fmt.Sprintf("%s %s (%s)", FlagForLanguage(lang, settings, globals), LanguageName(lang), lang))
		}
		b.reply(ev, "Enabled languages:\n"+strings.Join(lines, "\n"))

	case "mode":
		if !b.requireAdmin(ev) {
			return
		}
		if len(args) != 1 {
			b.reply(ev, "Usage: mode <thread|inline>")
			return
		}
		if err := b.guilds.SetMode(ev.GuildID, strings.ToLower(args[0])); err != nil {
			b.replyError(ev, log, err)
			return
		}
		b.reply(ev, "Mode set to "+strings.ToLower(args[0])+".")

	case "flag":
		if !b.requireAdmin(ev) {
			return
		}
		if len(args) != 2 {
			b.reply(ev, "Usage: flag <emoji> <lang>")
			return
		}
		if err := b.guilds.SetCustomFlag(ev.GuildID, args[0], args[1]); err != nil {
			b.replyError(ev, log, err)
			return
		}
		b.reply(ev, fmt.Sprintf("%s now translates to %s.", args[0], LanguageName(args[1])))

	case "dict":
		b.handleDict(ev, log, args)

	case "stats":
		stats, err := b.logs.GuildStats(ev.GuildID, windowForStats())
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "**Last 30 days**: %d translations, %d ok, %d failed\n", stats.Total, stats.Succeeded, stats.Failed)
		for _, lc := range stats.ByLanguage {
			fmt.Fprintf(&sb, "%s: %d\n", LanguageName(lc.TargetLang), lc.Count)
		}
		for _, pc := range stats.ByProvider {
			fmt.Fprintf(&sb, "via %s: %d\n", pc.Provider, pc.Count)
		}
		b.reply(ev, sb.String())

	case "usage":
		rows, err := b.logs.UsageByDay(30)
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		if len(rows) == 0 {
			b.reply(ev, "No provider usage recorded yet.")
			return
		}
		var sb strings.Builder
		sb.WriteString("**Provider usage (chars/day)**\n")
		for _, row := range rows {
			fmt.Fprintf(&sb, "%s %s: %d\n", row.Date, row.Provider, row.Chars)
		}
		b.reply(ev, sb.String())

	case "backfill":
		if !b.requireAdmin(ev) {
			return
		}
		limit := historyScanLimit
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				b.reply(ev, "Usage: backfill [n]")
				return
			}
			limit = n
		}
		count, err := b.Backfill(ev.GuildID, ev.ChannelID, limit)
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		b.reply(ev, fmt.Sprintf("Added flags to %d messages.", count))

	case "guess":
		settings, err := b.guilds.GetOrCreate(ev.GuildID)
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		text, err := b.game.Start(ctx, ev.GuildID, ev.ChannelID, settings.Languages)
		if err != nil {
			b.reply(ev, err.Error())
			return
		}
		b.reply(ev, text)

	case "answer":
		if len(args) == 0 {
			b.reply(ev, "Usage: answer <language>")
			return
		}
		text, _ := b.game.Answer(ev.ChannelID, strings.Join(args, " "))
		b.reply(ev, text)

	default:
		b.reply(ev, "Unknown command. Try `"+b.prefix+" help`.")
	}
}

func (b *Bot) handleDict(ev CommandEvent, log *logrus.Entry, args []string) {
	if len(args) == 0 {
		b.reply(ev, "Usage: dict <set|remove|list> ...")
		return
	}
	switch strings.ToLower(args[0]) {
	case "set":
		if !b.requireAdmin(ev) {
			return
		}
		if len(args) < 3 {
			b.reply(ev, "Usage: dict set <term> <replacement>")
			return
		}
		term := args[1]
		replacement := strings.Join(args[2:], " ")
		if err := b.guilds.SetDictionaryEntry(ev.GuildID, term, replacement); err != nil {
			b.replyError(ev, log, err)
			return
		}
		b.reply(ev, fmt.Sprintf("%q will be treated as %q.", term, replacement))

	case "remove":
		if !b.requireAdmin(ev) {
			return
		}
		if len(args) != 2 {
			b.reply(ev, "Usage: dict remove <term>")
			return
		}
		removed, err := b.guilds.RemoveDictionaryEntry(ev.GuildID, args[1])
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		if !removed {
			b.reply(ev, fmt.Sprintf("%q is not in the dictionary.", args[1]))
			return
		}
		b.reply(ev, fmt.Sprintf("Removed %q.", args[1]))

	case "list":
		terms, dict, err := b.guilds.DictionaryTerms(ev.GuildID)
		if err != nil {
			b.replyError(ev, log, err)
			return
		}
		if len(terms) == 0 {
			b.reply(ev, "The dictionary is empty.")
			return
		}
		var sb strings.Builder
		sb.WriteString("**Dictionary**\n")
		for _, term := range terms {
			fmt.Fprintf(&sb, "%q → %q\n", term, dict[term])
		}
		b.reply(ev, sb.String())

	default:
		b.reply(ev, "Usage: dict <set|remove|list> ...")
	}
}

// requireAdmin gates mutating commands behind the Manage Server permission.
func (b *Bot) requireAdmin(ev CommandEvent) bool {
	perms, err := b.api.UserChannelPermissions(ev.UserID, ev.ChannelID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", ev.UserID).Warn("Failed to check permissions")
		b.reply(ev, "Could not verify your permissions.")
		return false
	}
	if perms&discordgo.PermissionManageGuild == 0 {
		b.reply(ev, "You need the Manage Server permission for that.")
		return false
	}
	return true
}

func (b *Bot) reply(ev CommandEvent, text string) {
	if _, err := b.api.ChannelMessageSendReply(ev.ChannelID, text, &discordgo.MessageReference{
		MessageID: ev.MessageID,
		ChannelID: ev.ChannelID,
		GuildID:   ev.GuildID,
	}); err != nil {
		logrus.WithError(err).WithField("channel_id", ev.ChannelID).Error("Failed to send command reply")
	}
}

func (b *Bot) replyError(ev CommandEvent, log *logrus.Entry, err error) {
	log.WithError(err).Error("Command failed")
	b.reply(ev, "That didn't work: "+err.Error())
}
